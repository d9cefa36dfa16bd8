package menu

// View is the visible surface of an open menu.
type View int

const (
	ViewMenu View = iota
	ViewComment
)

// Effect is an instruction the machine emits for the agent to execute.
// The machine itself never touches the DOM.
type Effect interface{ effect() }

// Render instructs the agent to (re)draw the current view model.
// Animate false means the redraw must not replay the entrance animation
// (theme toggles feel instantaneous).
type Render struct{ Animate bool }

// Dispatch reports a completed selection: the leaf type and, for
// comment-routed leaves, the entered text. Emitted at most once per open
// session.
type Dispatch struct {
	Type    string
	Comment string
}

// Inspect instructs the agent to run the inspect callback. Always
// followed by a Close in the same effect batch.
type Inspect struct{}

// Close instructs the agent to tear down the menu DOM and detach every
// listener added while open. Emitted exactly once per open session,
// whatever the close path.
type Close struct{}

func (Render) effect()   {}
func (Dispatch) effect() {}
func (Inspect) effect()  {}
func (Close) effect()    {}

// Machine drives one menu session: closed → menu(root) ⇄ submenus ⇄
// comment → closed. Not safe for concurrent use; the agent serialises
// access on its event loop.
type Machine struct {
	// stack holds the navigation path; stack[0] is the root level and
	// the last entry is the visible level. Strict push/pop: Back pops
	// exactly one level.
	stack [][]Item
	view  View

	// selectedType is the leaf type awaiting comment entry.
	selectedType string
	// commentFor labels the comment view.
	commentFor string

	focused int
	open    bool
}

// NewMachine returns a closed machine.
func NewMachine() *Machine { return &Machine{} }

// IsOpen reports whether a menu session is active.
func (m *Machine) IsOpen() bool { return m.open }

// Depth returns the submenu depth: 1 at the root level, 0 when closed.
func (m *Machine) Depth() int { return len(m.stack) }

// View returns the current view.
func (m *Machine) View() View { return m.view }

// Focused returns the focused item index in the visible level.
func (m *Machine) Focused() int { return m.focused }

// CommentFor returns the label of the leaf awaiting comment entry.
func (m *Machine) CommentFor() string { return m.commentFor }

// Level returns the visible item level, nil when closed.
func (m *Machine) Level() []Item {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// Open starts a session with the given root items. A prior session is
// torn down first (its Close effect precedes the new Render), keeping
// open/close strictly serialised: never two live menus.
func (m *Machine) Open(items []Item) []Effect {
	var effs []Effect
	if m.open {
		effs = append(effs, m.reset()...)
	}
	if len(items) == 0 {
		return effs
	}
	m.stack = [][]Item{items}
	m.view = ViewMenu
	m.focused = 0
	m.open = true
	return append(effs, Render{Animate: true})
}

// reset clears all session state and emits the session's single Close.
func (m *Machine) reset() []Effect {
	m.stack = nil
	m.view = ViewMenu
	m.selectedType = ""
	m.commentFor = ""
	m.focused = 0
	m.open = false
	return []Effect{Close{}}
}

// Activate selects the item at index i in the visible level.
func (m *Machine) Activate(i int) []Effect {
	if !m.open || m.view != ViewMenu {
		return nil
	}
	level := m.Level()
	if i < 0 || i >= len(level) {
		return nil
	}
	m.focused = i

	switch it := level[i].(type) {
	case Node:
		m.stack = append(m.stack, it.Children)
		m.focused = 0
		return []Effect{Render{Animate: true}}
	case Leaf:
		if it.Comment {
			m.view = ViewComment
			m.selectedType = it.Type
			m.commentFor = it.Label
			return []Effect{Render{Animate: true}}
		}
		if it.Type == TypeInspect {
			return append([]Effect{Inspect{}, Dispatch{Type: it.Type}}, m.reset()...)
		}
		return append([]Effect{Dispatch{Type: it.Type}}, m.reset()...)
	}
	return nil
}

// Hover moves focus without activating, unifying mouse and keyboard
// focus through the one focusedIndex.
func (m *Machine) Hover(i int) {
	if !m.open || m.view != ViewMenu {
		return
	}
	if i >= 0 && i < len(m.Level()) {
		m.focused = i
	}
}

// Back pops exactly one submenu level; at the root it closes.
func (m *Machine) Back() []Effect {
	if !m.open || m.view != ViewMenu {
		return nil
	}
	if len(m.stack) <= 1 {
		return m.reset()
	}
	m.stack = m.stack[:len(m.stack)-1]
	m.focused = 0
	return []Effect{Render{Animate: true}}
}

// Escape pops one level of whatever is open: comment → menu at the same
// depth it was opened from, submenu → parent, root → closed. Never
// skips levels.
func (m *Machine) Escape() []Effect {
	if !m.open {
		return nil
	}
	if m.view == ViewComment {
		return m.CancelComment()
	}
	return m.Back()
}

// SubmitComment completes the comment step: dispatches the pending leaf
// type with the text and closes.
func (m *Machine) SubmitComment(text string) []Effect {
	if !m.open || m.view != ViewComment {
		return nil
	}
	typ := m.selectedType
	return append([]Effect{Dispatch{Type: typ, Comment: text}}, m.reset()...)
}

// CancelComment returns from the comment view to the menu level it was
// opened from.
func (m *Machine) CancelComment() []Effect {
	if !m.open || m.view != ViewComment {
		return nil
	}
	m.view = ViewMenu
	m.selectedType = ""
	m.commentFor = ""
	return []Effect{Render{Animate: true}}
}

// ClickOutside closes the menu (control regions such as the theme
// toggle are excluded by the shim before the event reaches Go).
func (m *Machine) ClickOutside() []Effect {
	if !m.open {
		return nil
	}
	return m.reset()
}

// CloseNow force-closes the session (navigation, teardown).
func (m *Machine) CloseNow() []Effect {
	if !m.open {
		return nil
	}
	return m.reset()
}
