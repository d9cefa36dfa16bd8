package menu

// Theme names one of the two built-in palettes. The preference persists
// in the settings store; toggling an open menu re-renders it without
// replaying the entrance animation.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Palette is the concrete colour set shipped to the shim.
type Palette struct {
	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
	Muted      string `json:"muted"`
	Accent     string `json:"accent"`
	Border     string `json:"border"`
	Shadow     string `json:"shadow"`
}

// Palette returns the colours for the theme. Unknown values fall back
// to light.
func (t Theme) Palette() Palette {
	if t == ThemeDark {
		return Palette{
			Background: "#1f2430",
			Surface:    "#2a3040",
			Text:       "#e6e9f0",
			Muted:      "#8b93a7",
			Accent:     "#6ea8fe",
			Border:     "#3a4156",
			Shadow:     "rgba(0,0,0,0.45)",
		}
	}
	return Palette{
		Background: "#ffffff",
		Surface:    "#f4f5f7",
		Text:       "#1b1f27",
		Muted:      "#6b7280",
		Accent:     "#2563eb",
		Border:     "#d9dce3",
		Shadow:     "rgba(16,24,40,0.18)",
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme normalises a stored preference.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}
