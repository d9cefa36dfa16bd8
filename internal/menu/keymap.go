package menu

// Key routes a keyboard event into the machine. Keys follow the DOM
// KeyboardEvent.key values the shim forwards. In the comment view only
// Escape acts here — printable keys belong to the text input.
func (m *Machine) Key(key string, shift bool) []Effect {
	if !m.open {
		return nil
	}
	if m.view == ViewComment {
		if key == "Escape" {
			return m.Escape()
		}
		return nil
	}

	switch key {
	case "ArrowDown", "j":
		m.moveFocus(1)
		return []Effect{Render{Animate: false}}
	case "ArrowUp", "k":
		m.moveFocus(-1)
		return []Effect{Render{Animate: false}}
	case "Tab":
		if shift {
			m.moveFocus(-1)
		} else {
			m.moveFocus(1)
		}
		return []Effect{Render{Animate: false}}
	case "ArrowRight", "l":
		if _, ok := m.focusedNode(); ok {
			return m.Activate(m.focused)
		}
		return nil
	case "ArrowLeft", "h", "Backspace":
		return m.Back()
	case "Enter", " ":
		return m.Activate(m.focused)
	case "Escape":
		return m.Escape()
	}
	return nil
}

// moveFocus shifts the focused index cyclically through the visible
// level.
func (m *Machine) moveFocus(delta int) {
	n := len(m.Level())
	if n == 0 {
		return
	}
	m.focused = ((m.focused+delta)%n + n) % n
}

// focusedNode reports whether the focused item has children.
func (m *Machine) focusedNode() (Node, bool) {
	level := m.Level()
	if m.focused < 0 || m.focused >= len(level) {
		return Node{}, false
	}
	n, ok := level[m.focused].(Node)
	return n, ok
}
