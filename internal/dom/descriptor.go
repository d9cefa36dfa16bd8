// Package dom defines the wire-level element descriptors reported by the
// injected page shim. A descriptor is a plain-data photograph of one
// element and its ancestor chain, taken in the page at event time; Go-side
// components (selector engine, context builder, menu construction) operate
// on descriptors instead of live DOM handles.
package dom

import "github.com/anyclick/anyclick/capture"

// Node describes one element in an ancestor chain.
type Node struct {
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
	// NthOfType is the element's 1-based position among same-tag siblings.
	NthOfType int `json:"nth_of_type,omitempty"`
	// SameTagSiblings counts siblings sharing the tag name, including the
	// element itself. The selector engine appends :nth-of-type only when
	// this exceeds 1.
	SameTagSiblings int `json:"same_tag_siblings,omitempty"`
}

// Descriptor is a full snapshot of one element. Chain is ordered leaf
// first and stops below body/html.
type Descriptor struct {
	// ElementID is a shim-assigned identity token, stable for the lifetime
	// of the element object in the page. Selector memoisation keys on it.
	ElementID int64  `json:"element_id"`
	Chain     []Node `json:"chain"`

	InnerText      string            `json:"inner_text,omitempty"`
	OuterHTML      string            `json:"outer_html,omitempty"`
	Rect           capture.Rect      `json:"rect"` // page-relative
	DataAttributes map[string]string `json:"data_attributes,omitempty"`

	// Image target info. ImageSrc is set when the element is or contains
	// an <img>, or carries a background image.
	IsImage  bool   `json:"is_image,omitempty"`
	ImageSrc string `json:"image_src,omitempty"`

	// SelectionText is the page's active text selection at event time.
	SelectionText string `json:"selection_text,omitempty"`
}

// Leaf returns the element's own node, or a zero Node for an empty chain.
func (d *Descriptor) Leaf() Node {
	if len(d.Chain) == 0 {
		return Node{}
	}
	return d.Chain[0]
}

// PageInfo is the shim-reported page snapshot used to build a
// capture.PageContext.
type PageInfo struct {
	URL              string  `json:"url"`
	Title            string  `json:"title"`
	Referrer         string  `json:"referrer,omitempty"`
	ViewportWidth    int     `json:"viewport_width"`
	ViewportHeight   int     `json:"viewport_height"`
	ScreenWidth      int     `json:"screen_width"`
	ScreenHeight     int     `json:"screen_height"`
	UserAgent        string  `json:"user_agent,omitempty"`
	DevicePixelRatio float64 `json:"device_pixel_ratio,omitempty"`
	ScrollX          float64 `json:"scroll_x,omitempty"`
	ScrollY          float64 `json:"scroll_y,omitempty"`
}
