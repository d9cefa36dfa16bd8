package selector

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// QuerySelectorAll evaluates a CSS selector of the subset this package
// generates against a parsed HTML tree:
//
//   - tag, .class, #id and combinations ("div.a.b", "button#save")
//   - :nth-of-type(k)
//   - ">" child combinator
//   - " " descendant combinator
//
// It exists so generated selectors can be checked for soundness against
// real markup without a browser.
func QuerySelectorAll(doc *html.Node, selector string) []*html.Node {
	parts := splitCombinators(selector)
	if len(parts) == 0 {
		return nil
	}

	matches := matchAnywhere(doc, parts[0].compound)

	for _, part := range parts[1:] {
		var next []*html.Node
		for _, parent := range matches {
			if part.child {
				for c := parent.FirstChild; c != nil; c = c.NextSibling {
					if matchesCompound(c, part.compound) {
						next = append(next, c)
					}
				}
			} else {
				next = append(next, matchAnywhereBelow(parent, part.compound)...)
			}
		}
		matches = next
	}
	return matches
}

// QuerySelector returns the first match or nil.
func QuerySelector(doc *html.Node, selector string) *html.Node {
	m := QuerySelectorAll(doc, selector)
	if len(m) == 0 {
		return nil
	}
	return m[0]
}

type selectorPart struct {
	compound compound
	child    bool // true when joined by ">", false for descendant
}

type compound struct {
	tag     string
	id      string
	classes []string
	nth     int // :nth-of-type(k), 0 = absent
}

// splitCombinators tokenises "a > b c" into parts with their combinators.
func splitCombinators(sel string) []selectorPart {
	fields := strings.Fields(sel)
	var parts []selectorPart
	child := false
	for _, f := range fields {
		if f == ">" {
			child = true
			continue
		}
		parts = append(parts, selectorPart{compound: parseCompound(f), child: child})
		child = false
	}
	return parts
}

// parseCompound parses "tag.c1.c2:nth-of-type(3)", "#id", ".class", "div#main".
func parseCompound(sel string) compound {
	var c compound

	if idx := strings.Index(sel, ":nth-of-type("); idx >= 0 {
		numPart := sel[idx+len(":nth-of-type("):]
		if end := strings.IndexByte(numPart, ')'); end >= 0 {
			c.nth, _ = strconv.Atoi(numPart[:end])
		}
		sel = sel[:idx]
	}

	// Split on '.' and '#' boundaries, keeping the leading tag.
	cur := &c.tag
	var buf strings.Builder
	flush := func() {
		*cur = buf.String()
		buf.Reset()
	}
	for _, r := range sel {
		switch r {
		case '.':
			flush()
			c.classes = append(c.classes, "")
			cur = &c.classes[len(c.classes)-1]
		case '#':
			flush()
			cur = &c.id
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return c
}

func matchAnywhere(root *html.Node, c compound) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if matchesCompound(n, c) {
			results = append(results, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return results
}

func matchAnywhereBelow(root *html.Node, c compound) []*html.Node {
	var results []*html.Node
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		results = append(results, matchAnywhere(child, c)...)
	}
	return results
}

func matchesCompound(n *html.Node, c compound) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && n.Data != c.tag {
		return false
	}
	if c.id != "" && attrValue(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attrValue(n, "class"))
		for _, want := range c.classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if c.nth > 0 && nthOfType(n) != c.nth {
		return false
	}
	return true
}

// nthOfType returns the node's 1-based index among same-tag element
// siblings.
func nthOfType(n *html.Node) int {
	if n.Parent == nil {
		return 1
	}
	idx := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == n.Data {
			idx++
		}
		if c == n {
			return idx
		}
	}
	return idx
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
