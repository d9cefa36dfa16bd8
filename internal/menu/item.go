// Package menu implements the context-menu state machine: a themeable,
// keyboard-navigable nested menu with an inline comment-entry step. The
// machine is DOM-free — it consumes inputs and produces effects, and the
// agent ships the resulting view models to the page shim for rendering.
package menu

import "github.com/anyclick/anyclick/internal/dom"

// Item is a sealed menu entry: either a Leaf that triggers an action or
// a Node that opens a submenu. The split makes the state machine's
// branch on "has children" an exhaustive type switch instead of an
// optional-field check.
type Item interface {
	item()
	ItemLabel() string
	ItemIcon() string
}

// Leaf triggers an action when selected. When Comment is set, selection
// routes to the comment-entry step instead of dispatching immediately.
type Leaf struct {
	Type    string
	Label   string
	Icon    string
	Comment bool
}

func (Leaf) item()               {}
func (l Leaf) ItemLabel() string { return l.Label }
func (l Leaf) ItemIcon() string  { return l.Icon }

// Node opens a submenu of its children when selected.
type Node struct {
	Type     string
	Label    string
	Icon     string
	Children []Item
}

func (Node) item()               {}
func (n Node) ItemLabel() string { return n.Label }
func (n Node) ItemIcon() string  { return n.Icon }

// Well-known leaf types. The agent maps these to capture actions.
const (
	TypeCapture   = "capture"
	TypeInspect   = "inspect"
	TypeAssistant = "assistant"
	TypeUpload    = "upload"
	TypeIssue     = "issue"
	TypeIdea      = "idea"
	TypeRefine    = "refine"
)

// DefaultItems builds the menu for a pinned target. Context-dependent
// items are prepended: a refine leaf when the page has a text selection,
// an upload leaf when the target is an image.
func DefaultItems(d *dom.Descriptor) []Item {
	items := make([]Item, 0, 8)

	if d != nil && d.SelectionText != "" {
		items = append(items, Leaf{Type: TypeRefine, Label: "Refine Selection", Icon: "sparkles"})
	}
	if d != nil && d.IsImage {
		items = append(items, Leaf{Type: TypeUpload, Label: "Upload Image", Icon: "image"})
	}

	items = append(items,
		Leaf{Type: TypeCapture, Label: "Capture Element", Icon: "crosshair"},
		Leaf{Type: TypeInspect, Label: "Inspect Element", Icon: "search"},
		Leaf{Type: TypeAssistant, Label: "Ask Assistant", Icon: "chat", Comment: true},
		Node{Type: "feedback", Label: "Feedback", Icon: "flag", Children: []Item{
			Leaf{Type: TypeIssue, Label: "Report Issue", Icon: "bug", Comment: true},
			Leaf{Type: TypeIdea, Label: "Suggest Improvement", Icon: "bulb", Comment: true},
		}},
	)
	return items
}
