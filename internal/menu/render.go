package menu

// Point is a viewport position in CSS pixels. The shim clamps the menu
// into the viewport at render time.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ItemVM is one rendered row.
type ItemVM struct {
	Label       string `json:"label"`
	Icon        string `json:"icon,omitempty"`
	HasChildren bool   `json:"has_children,omitempty"`
	Focused     bool   `json:"focused,omitempty"`
}

// ViewModel is the full declarative description of the menu surface.
// The shim renders it verbatim; it carries no behaviour.
type ViewModel struct {
	View       string   `json:"view"` // "menu" | "comment"
	Items      []ItemVM `json:"items,omitempty"`
	Depth      int      `json:"depth"`
	ShowBack   bool     `json:"show_back,omitempty"`
	CommentFor string   `json:"comment_for,omitempty"`
	Theme      Theme    `json:"theme"`
	Palette    Palette  `json:"palette"`
	Position   Point    `json:"position"`
	Animate    bool     `json:"animate"`
}

// RenderOptions carries the per-render context the machine does not own.
type RenderOptions struct {
	Position Point
	Theme    Theme
	Animate  bool
}

// BuildViewModel projects the machine state into a ViewModel. Pure:
// calling it never mutates the machine.
func BuildViewModel(m *Machine, opts RenderOptions) ViewModel {
	vm := ViewModel{
		Depth:    m.Depth(),
		Theme:    opts.Theme,
		Palette:  opts.Theme.Palette(),
		Position: opts.Position,
		Animate:  opts.Animate,
	}

	if m.View() == ViewComment {
		vm.View = "comment"
		vm.CommentFor = m.CommentFor()
		return vm
	}

	vm.View = "menu"
	vm.ShowBack = m.Depth() > 1
	level := m.Level()
	vm.Items = make([]ItemVM, 0, len(level))
	for i, it := range level {
		row := ItemVM{
			Label:   it.ItemLabel(),
			Icon:    it.ItemIcon(),
			Focused: i == m.Focused(),
		}
		if _, ok := it.(Node); ok {
			row.HasChildren = true
		}
		vm.Items = append(vm.Items, row)
	}
	return vm
}
