// Package inspect builds bounded, size-limited element and page context
// snapshots from shim-reported descriptors. Once built, a context holds
// no references into the live DOM: later host page mutations cannot
// corrupt an in-flight payload.
package inspect

// Limits bound the size of a built ElementContext. Callers supply their
// own profile; the extension's lean default keeps payloads small while
// richer surfaces (workflow drawers, export UIs) request larger caps.
type Limits struct {
	// MaxTextChars caps InnerText, character-truncated with an ellipsis.
	MaxTextChars int
	// MaxHTMLChars caps OuterHTML, character-truncated with an ellipsis.
	MaxHTMLChars int
	// MaxHTMLBytes is the hard byte cap for OuterHTML. Markup whose
	// byte length exceeds it is dropped to the empty string rather than
	// truncated mid-tag or mid-rune.
	MaxHTMLBytes int
	// MaxAncestors bounds the depth of the Ancestors slice.
	MaxAncestors int
}

// Lean is the default capture profile.
func Lean() Limits {
	return Limits{
		MaxTextChars: 200,
		MaxHTMLChars: 500,
		MaxHTMLBytes: 2000,
		MaxAncestors: 3,
	}
}

// Rich is the profile for callers that want fuller context.
func Rich() Limits {
	return Limits{
		MaxTextChars: 600,
		MaxHTMLChars: 2500,
		MaxHTMLBytes: 10000,
		MaxAncestors: 8,
	}
}

func (l *Limits) defaults() {
	d := Lean()
	if l.MaxTextChars <= 0 {
		l.MaxTextChars = d.MaxTextChars
	}
	if l.MaxHTMLChars <= 0 {
		l.MaxHTMLChars = d.MaxHTMLChars
	}
	if l.MaxHTMLBytes <= 0 {
		l.MaxHTMLBytes = d.MaxHTMLBytes
	}
	if l.MaxAncestors <= 0 {
		l.MaxAncestors = d.MaxAncestors
	}
}
