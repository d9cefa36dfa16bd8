package selector

import (
	"fmt"
	"strings"

	"github.com/anyclick/anyclick/internal/dom"
)

// XPath synthesises an XPath locator segment-by-segment from the same
// ancestor chain the CSS path is built from:
//
//   - id            → exact match, anchors the expression ("//tag[@id='x']")
//   - class + index → contains(@class, ...) with a positional predicate
//   - fallback      → bare tag name, positionally indexed when ambiguous
func XPath(chain []dom.Node) string {
	if len(chain) == 0 {
		return ""
	}

	// Find the anchor: the deepest node with an id (the element itself
	// included). Everything above it is dropped.
	anchor := -1
	for i, n := range chain {
		if n.ID != "" {
			anchor = i
			break
		}
	}

	var segs []string
	top := len(chain) - 1
	if anchor >= 0 {
		top = anchor
	}
	for i := top; i >= 0; i-- {
		n := chain[i]
		tag := strings.ToLower(n.Tag)
		if tag == "" {
			tag = "*"
		}

		if i == anchor {
			segs = append(segs, fmt.Sprintf("//%s[@id=%q]", tag, n.ID))
			continue
		}

		seg := "/" + tag
		if cls := firstSafeClass(n.Classes); cls != "" {
			seg = fmt.Sprintf("/%s[contains(@class,%q)]", tag, cls)
		}
		if n.SameTagSiblings > 1 && n.NthOfType > 0 {
			seg += fmt.Sprintf("[%d]", n.NthOfType)
		}
		segs = append(segs, seg)
	}

	path := strings.Join(segs, "")
	if anchor < 0 {
		path = "/" + path
	}
	return path
}

func firstSafeClass(classes []string) string {
	for _, c := range classes {
		if safeClass(c) {
			return c
		}
	}
	return ""
}
