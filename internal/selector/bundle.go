package selector

import (
	"fmt"
	"strings"

	"github.com/anyclick/anyclick/capture"
	"github.com/anyclick/anyclick/internal/dom"
)

// testIDKeys is the ordered list of dataset keys scanned for an existing
// test identifier before one is synthesised.
var testIDKeys = []string{"testid", "testId", "qa", "cy", "test"}

// Bundle produces the derived selector variants (css, xpath, testId,
// snippet) for workflow and export UIs. Produced on demand, not at
// capture time.
func Bundle(d *dom.Descriptor) capture.SelectorBundle {
	css := Unique(d.Chain)
	return capture.SelectorBundle{
		CSS:     css,
		XPath:   XPath(d.Chain),
		TestID:  TestID(d),
		Snippet: fmt.Sprintf("document.querySelector(%q)", css),
	}
}

// TestID returns the element's test identifier: an existing data
// attribute from the candidate list when present, otherwise a synthesised
// "tag-class" name.
func TestID(d *dom.Descriptor) string {
	for _, key := range testIDKeys {
		if v, ok := d.DataAttributes[key]; ok && v != "" {
			return v
		}
	}

	leaf := d.Leaf()
	tag := strings.ToLower(leaf.Tag)
	if tag == "" {
		tag = "element"
	}
	if cls := firstSafeClass(leaf.Classes); cls != "" {
		return tag + "-" + strings.ToLower(cls)
	}
	return tag
}
