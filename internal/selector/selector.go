// Package selector derives stable, human-readable locators (CSS path,
// XPath, test-id) for elements described by their ancestor chains.
package selector

import (
	"strings"
	"sync"

	"github.com/anyclick/anyclick/internal/dom"
)

// maxSegmentClasses bounds how many classes a path segment carries.
// Two keeps selectors readable without over-qualifying.
const maxSegmentClasses = 2

// Unique derives a CSS selector for the element at the head of the chain.
//
// If the element has an id the selector is exactly "#id" (ids are assumed
// page-unique). Otherwise the chain is walked leaf to root, each level
// contributing "tag[.c1][.c2]" with ":nth-of-type(k)" appended only when
// more than one same-tag sibling exists. The walk stops early at the
// first ancestor with an id, which anchors the path.
//
// This is a greedy, single-pass, O(depth) algorithm with no uniqueness
// verification against the document; a collision on adversarial DOMs is
// possible and accepted.
func Unique(chain []dom.Node) string {
	if len(chain) == 0 {
		return ""
	}
	if chain[0].ID != "" {
		return "#" + chain[0].ID
	}

	// Build leaf-to-root, then reverse into root-to-leaf order.
	segments := make([]string, 0, len(chain))
	for i, n := range chain {
		if i > 0 && n.ID != "" {
			segments = append(segments, "#"+n.ID)
			break
		}
		segments = append(segments, segment(n))
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " > ")
}

func segment(n dom.Node) string {
	var b strings.Builder
	tag := strings.ToLower(n.Tag)
	if tag == "" {
		tag = "*"
	}
	b.WriteString(tag)

	count := 0
	for _, c := range n.Classes {
		if count >= maxSegmentClasses {
			break
		}
		if !safeClass(c) {
			continue
		}
		b.WriteByte('.')
		b.WriteString(c)
		count++
	}

	// Disambiguation, not always-on indexing.
	if n.SameTagSiblings > 1 && n.NthOfType > 0 {
		b.WriteString(":nth-of-type(")
		b.WriteString(itoa(n.NthOfType))
		b.WriteByte(')')
	}
	return b.String()
}

// safeClass rejects class names that would break a CSS selector when
// embedded verbatim (utility frameworks emit names like "p-[2px]" or
// "hover:underline").
func safeClass(c string) bool {
	if c == "" {
		return false
	}
	for _, r := range c {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Cache memoises selectors per shim-assigned element identity. Entries
// live until Reset, which the agent calls on navigation — the Go-side
// analog of a weak per-element association.
type Cache struct {
	mu sync.Mutex
	m  map[int64]string
}

// NewCache creates an empty selector cache.
func NewCache() *Cache {
	return &Cache{m: make(map[int64]string)}
}

// Unique returns the memoised selector for the descriptor, computing and
// storing it on first sight. Selectors are computed from the chain as
// captured at build time, never live-updated on DOM mutation.
func (c *Cache) Unique(d *dom.Descriptor) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.ElementID != 0 {
		if s, ok := c.m[d.ElementID]; ok {
			return s
		}
	}
	s := Unique(d.Chain)
	if d.ElementID != 0 {
		c.m[d.ElementID] = s
	}
	return s
}

// Reset drops all memoised entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.m = make(map[int64]string)
	c.mu.Unlock()
}

// Len reports the number of memoised entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
