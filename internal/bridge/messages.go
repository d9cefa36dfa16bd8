package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/anyclick/anyclick/internal/dom"
)

// BindingName is the page-side function the shim calls to reach Go.
const BindingName = "__anyclick_bridge"

// Event is the envelope for every shim → Go message. Data holds the
// type-specific payload; decode it with the matching As* method.
type Event struct {
	Type string          `json:"type"`
	Seq  uint64          `json:"seq"`
	Data json.RawMessage `json:"data"`

	// At is stamped on receipt, not by the page.
	At time.Time `json:"-"`
}

// Event types emitted by the shim.
const (
	EventPointer       = "pointer"
	EventContextMenu   = "contextmenu"
	EventTouch         = "touch"
	EventKey           = "key"
	EventItemClick     = "item-click"
	EventItemHover     = "item-hover"
	EventBackClick     = "back"
	EventOutsideClick  = "outside"
	EventCommentSubmit = "comment-submit"
	EventCommentCancel = "comment-cancel"
	EventDismiss       = "dismiss"
	EventNavigate      = "navigate"
	EventCustom        = "custom"
)

// PointerEvent carries the element under the cursor after a mousemove.
type PointerEvent struct {
	Descriptor dom.Descriptor `json:"descriptor"`
}

// ContextMenuEvent carries the element pinned by a contextmenu gesture
// plus the clamped client coordinates where the menu should appear.
type ContextMenuEvent struct {
	Descriptor dom.Descriptor `json:"descriptor"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
}

// KeyEvent is a keydown relayed while the menu is open.
type KeyEvent struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
}

// ItemClickEvent identifies a clicked menu row by its rendered index.
type ItemClickEvent struct {
	Index int `json:"index"`
}

// CommentEvent carries the text submitted from the comment view.
type CommentEvent struct {
	Text string `json:"text"`
}

// NavigateEvent signals a document change (full load or SPA route).
type NavigateEvent struct {
	Page dom.PageInfo `json:"page"`
}

// CustomEvent is a programmatic trigger fired by the host page
// (anyclick-capture-element, anyclick-refresh-element, ...).
type CustomEvent struct {
	Name       string          `json:"name"`
	Descriptor *dom.Descriptor `json:"descriptor,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

func decode[T any](e Event, want string) (T, error) {
	var v T
	if e.Type != want {
		return v, fmt.Errorf("bridge: event type %q, want %q", e.Type, want)
	}
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return v, fmt.Errorf("bridge: decode %s event: %w", want, err)
	}
	return v, nil
}

func (e Event) AsPointer() (PointerEvent, error) { return decode[PointerEvent](e, EventPointer) }
func (e Event) AsContextMenu() (ContextMenuEvent, error) {
	return decode[ContextMenuEvent](e, EventContextMenu)
}
func (e Event) AsKey() (KeyEvent, error) { return decode[KeyEvent](e, EventKey) }
func (e Event) AsItemClick() (ItemClickEvent, error) {
	return decode[ItemClickEvent](e, EventItemClick)
}
func (e Event) AsItemHover() (ItemClickEvent, error) {
	return decode[ItemClickEvent](e, EventItemHover)
}
func (e Event) AsComment() (CommentEvent, error)   { return decode[CommentEvent](e, EventCommentSubmit) }
func (e Event) AsNavigate() (NavigateEvent, error) { return decode[NavigateEvent](e, EventNavigate) }
func (e Event) AsCustom() (CustomEvent, error)     { return decode[CustomEvent](e, EventCustom) }

// Command names understood by the shim's dispatch entry point.
const (
	CmdMenuRender    = "menu.render"
	CmdMenuClose     = "menu.close"
	CmdHighlightShow = "highlight.show"
	CmdHighlightHide = "highlight.hide"
	CmdToastShow     = "toast.show"
	CmdSetEnabled    = "agent.enabled"
	CmdEmitEvent     = "page.emit"
)
