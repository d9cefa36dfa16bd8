package menu

import (
	"testing"

	"github.com/anyclick/anyclick/internal/dom"
)

func fixtureItems() []Item {
	return []Item{
		Leaf{Type: TypeCapture, Label: "Capture Element"},
		Leaf{Type: TypeInspect, Label: "Inspect Element"},
		Node{Type: "feedback", Label: "Feedback", Children: []Item{
			Leaf{Type: TypeIssue, Label: "Report Issue", Comment: true},
			Leaf{Type: TypeIdea, Label: "Suggest Improvement", Comment: true},
		}},
	}
}

func countEffects(effs []Effect) (renders, dispatches, closes, inspects int) {
	for _, e := range effs {
		switch e.(type) {
		case Render:
			renders++
		case Dispatch:
			dispatches++
		case Close:
			closes++
		case Inspect:
			inspects++
		}
	}
	return
}

func TestOpen_RootLevel(t *testing.T) {
	m := NewMachine()
	effs := m.Open(fixtureItems())

	if !m.IsOpen() {
		t.Fatal("machine should be open")
	}
	if m.Depth() != 1 {
		t.Fatalf("Depth: got %d, want 1", m.Depth())
	}
	r, d, c, _ := countEffects(effs)
	if r != 1 || d != 0 || c != 0 {
		t.Fatalf("effects: got %d renders %d dispatches %d closes", r, d, c)
	}
}

func TestOpen_TearsDownPriorSession(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())
	effs := m.Open(fixtureItems())

	// Prior session closes before the new render: never two live menus.
	if len(effs) != 2 {
		t.Fatalf("effects: got %d, want 2", len(effs))
	}
	if _, ok := effs[0].(Close); !ok {
		t.Fatalf("first effect: got %T, want Close", effs[0])
	}
	if _, ok := effs[1].(Render); !ok {
		t.Fatalf("second effect: got %T, want Render", effs[1])
	}
}

func TestActivate_LeafDispatchesAndCloses(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())
	effs := m.Activate(0)

	r, d, c, _ := countEffects(effs)
	if d != 1 || c != 1 || r != 0 {
		t.Fatalf("effects: got %d renders %d dispatches %d closes", r, d, c)
	}
	for _, e := range effs {
		if disp, ok := e.(Dispatch); ok {
			if disp.Type != TypeCapture || disp.Comment != "" {
				t.Fatalf("Dispatch: got %+v", disp)
			}
		}
	}
	if m.IsOpen() {
		t.Fatal("machine should be closed after leaf activation")
	}
}

func TestActivate_InspectRunsCallbackBeforeClose(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())
	effs := m.Activate(1)

	if len(effs) != 3 {
		t.Fatalf("effects: got %d, want 3", len(effs))
	}
	if _, ok := effs[0].(Inspect); !ok {
		t.Fatalf("effs[0]: got %T, want Inspect", effs[0])
	}
	if disp, ok := effs[1].(Dispatch); !ok || disp.Type != TypeInspect {
		t.Fatalf("effs[1]: got %#v, want Dispatch{inspect}", effs[1])
	}
	if _, ok := effs[2].(Close); !ok {
		t.Fatalf("effs[2]: got %T, want Close", effs[2])
	}
}

func TestSubmenu_PushAndBack(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())

	effs := m.Activate(2) // Feedback node
	if m.Depth() != 2 {
		t.Fatalf("Depth after push: got %d, want 2", m.Depth())
	}
	r, d, c, _ := countEffects(effs)
	if r != 1 || d != 0 || c != 0 {
		t.Fatal("opening a submenu must only render")
	}
	if m.Focused() != 0 {
		t.Fatalf("focus should reset on push, got %d", m.Focused())
	}

	// Back pops exactly one level.
	m.Back()
	if m.Depth() != 1 {
		t.Fatalf("Depth after back: got %d, want 1", m.Depth())
	}
	if !m.IsOpen() {
		t.Fatal("back from depth 2 must not close")
	}

	// Back at root closes.
	effs = m.Back()
	if m.IsOpen() {
		t.Fatal("back at root must close")
	}
	if _, _, c, _ := countEffects(effs); c != 1 {
		t.Fatalf("back at root: got %d closes, want 1", c)
	}
}

func TestComment_SubmitDispatchesOnce(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())
	m.Activate(2) // Feedback
	m.Activate(0) // Report Issue (comment)

	if m.View() != ViewComment {
		t.Fatalf("View: got %v, want comment", m.View())
	}
	if m.CommentFor() != "Report Issue" {
		t.Fatalf("CommentFor: got %q", m.CommentFor())
	}

	effs := m.SubmitComment("the save button is broken")
	r, d, c, _ := countEffects(effs)
	if d != 1 || c != 1 || r != 0 {
		t.Fatalf("effects: got %d renders %d dispatches %d closes", r, d, c)
	}
	for _, e := range effs {
		if disp, ok := e.(Dispatch); ok {
			if disp.Type != TypeIssue || disp.Comment != "the save button is broken" {
				t.Fatalf("Dispatch: got %+v", disp)
			}
		}
	}

	// Further submissions are no-ops: dispatch happens exactly once.
	if extra := m.SubmitComment("again"); extra != nil {
		t.Fatalf("second submit: got %v, want nil", extra)
	}
}

func TestComment_EscapeReturnsToSameDepth(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())
	m.Activate(2) // depth 2
	m.Activate(0) // comment view

	effs := m.Escape()
	if m.View() != ViewMenu {
		t.Fatalf("View after escape: got %v, want menu", m.View())
	}
	if m.Depth() != 2 {
		t.Fatalf("Depth after escape: got %d, want 2 (same as before comment)", m.Depth())
	}
	if _, _, c, _ := countEffects(effs); c != 0 {
		t.Fatal("escaping the comment view must not close the menu")
	}
}

func TestEscape_PopsOneLevelAtATime(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())
	m.Activate(2) // depth 2
	m.Activate(0) // comment

	m.Escape() // comment → menu depth 2
	if m.Depth() != 2 || m.View() != ViewMenu {
		t.Fatalf("after 1st escape: depth=%d view=%v", m.Depth(), m.View())
	}
	m.Escape() // depth 2 → depth 1
	if m.Depth() != 1 || !m.IsOpen() {
		t.Fatalf("after 2nd escape: depth=%d open=%v", m.Depth(), m.IsOpen())
	}
	effs := m.Escape() // depth 1 → closed
	if m.IsOpen() {
		t.Fatal("after 3rd escape: should be closed")
	}
	if _, _, c, _ := countEffects(effs); c != 1 {
		t.Fatalf("close effects: got %d, want 1", c)
	}
}

func TestClickOutside_ClosesOnce(t *testing.T) {
	m := NewMachine()
	m.Open(fixtureItems())

	effs := m.ClickOutside()
	if _, _, c, _ := countEffects(effs); c != 1 {
		t.Fatalf("closes: got %d, want 1", c)
	}
	// A second outside click on a closed machine emits nothing.
	if extra := m.ClickOutside(); extra != nil {
		t.Fatalf("second outside click: got %v, want nil", extra)
	}
}

func TestDefaultItems_ContextPrepends(t *testing.T) {
	plain := DefaultItems(&dom.Descriptor{})
	if len(plain) != 4 {
		t.Fatalf("plain items: got %d, want 4", len(plain))
	}
	if plain[0].(Leaf).Type != TypeCapture {
		t.Fatalf("plain first item: got %+v", plain[0])
	}

	img := DefaultItems(&dom.Descriptor{IsImage: true, ImageSrc: "https://x/y.png"})
	if img[0].(Leaf).Type != TypeUpload {
		t.Fatalf("image first item: got %+v", img[0])
	}

	sel := DefaultItems(&dom.Descriptor{SelectionText: "some words"})
	if sel[0].(Leaf).Type != TypeRefine {
		t.Fatalf("selection first item: got %+v", sel[0])
	}

	both := DefaultItems(&dom.Descriptor{SelectionText: "w", IsImage: true})
	if both[0].(Leaf).Type != TypeRefine || both[1].(Leaf).Type != TypeUpload {
		t.Fatalf("both: got %+v, %+v", both[0], both[1])
	}
}
