// Package capture defines the structured types emitted by anyclick.
// These are the public API contract: any consumer (queue processors,
// webhook receivers, custom pipelines) imports this package to receive
// and process captured element interactions.
package capture

// Action identifies what the user asked for when the payload was created.
type Action string

const (
	ActionCapture   Action = "capture"   // capture element context
	ActionInspect   Action = "inspect"   // inspect element (highlight preserved)
	ActionAssistant Action = "assistant" // ask-assistant / prompt refinement
	ActionUpload    Action = "upload"    // image upload
	ActionIssue     Action = "issue"     // feedback: report issue
	ActionIdea      Action = "idea"      // feedback: suggest improvement
)

// Rect is an axis-aligned rectangle in CSS pixels. Element rects are
// page-relative (document coordinates, not viewport).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AncestorInfo is a lightweight description of one ancestor of the
// captured element. Depth-limited by the caller's Limits.
type AncestorInfo struct {
	Tag      string   `json:"tag"`
	ID       string   `json:"id,omitempty"`
	Classes  []string `json:"classes,omitempty"`
	Selector string   `json:"selector"`
}

// ElementContext is a bounded, size-limited snapshot of one element.
// It holds no references back into the live DOM: once built, host page
// mutations cannot corrupt it.
//
// OuterHTML is either a character-truncated string within the configured
// byte cap, or the empty string when the markup was oversized — never a
// value truncated mid-tag or mid-rune.
type ElementContext struct {
	Selector       string            `json:"selector"`
	Tag            string            `json:"tag"`
	ID             string            `json:"id,omitempty"`
	Classes        []string          `json:"classes,omitempty"`
	InnerText      string            `json:"inner_text,omitempty"`
	OuterHTML      string            `json:"outer_html,omitempty"`
	Markdown       string            `json:"markdown,omitempty"`
	BoundingRect   Rect              `json:"bounding_rect"`
	DataAttributes map[string]string `json:"data_attributes,omitempty"`
	Ancestors      []AncestorInfo    `json:"ancestors,omitempty"`
}

// Viewport is a width/height pair in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PageContext is an immutable snapshot of the page, taken once per capture.
type PageContext struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Referrer  string   `json:"referrer,omitempty"`
	Viewport  Viewport `json:"viewport"`
	Screen    Viewport `json:"screen"`
	UserAgent string   `json:"user_agent,omitempty"`
	Timestamp string   `json:"timestamp"` // ISO-8601
}

// SelectorBundle carries the derived locator variants for export UIs.
type SelectorBundle struct {
	CSS     string `json:"css"`
	XPath   string `json:"xpath"`
	TestID  string `json:"test_id"`
	Snippet string `json:"snippet"`
}

// Payload is the unit handed to the queueing collaborator. Created per
// user action, never mutated after creation, serialised exactly once.
type Payload struct {
	ID          string            `json:"id"` // UUIDv7
	Action      Action            `json:"action"`
	Element     ElementContext    `json:"element"`
	Selectors   SelectorBundle    `json:"selectors"`
	Page        PageContext       `json:"page"`
	Comment     string            `json:"comment,omitempty"`
	Screenshots []string          `json:"screenshots,omitempty"` // data URLs or uploaded URLs
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   int64             `json:"created_at"` // epoch milliseconds
}

// UploadResult is the typed outcome of the image pipeline. Tiers report
// failure through it rather than by returning an error, so the ladder
// can proceed to the next strategy.
type UploadResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}
