package selector

import (
	"strings"
	"testing"

	"github.com/anyclick/anyclick/internal/dom"
	"golang.org/x/net/html"
)

func TestUnique_IDShortCircuit(t *testing.T) {
	chain := []dom.Node{
		{Tag: "button", ID: "save-btn", Classes: []string{"btn", "primary"}},
		{Tag: "div", Classes: []string{"toolbar"}},
		{Tag: "main"},
	}
	got := Unique(chain)
	if got != "#save-btn" {
		t.Fatalf("Unique: got %q, want %q", got, "#save-btn")
	}
}

func TestUnique_ClassPath(t *testing.T) {
	chain := []dom.Node{
		{Tag: "span", Classes: []string{"label"}, NthOfType: 1, SameTagSiblings: 1},
		{Tag: "div", Classes: []string{"card", "wide", "ignored-third"}, NthOfType: 2, SameTagSiblings: 3},
	}
	got := Unique(chain)
	want := "div.card.wide:nth-of-type(2) > span.label"
	if got != want {
		t.Fatalf("Unique: got %q, want %q", got, want)
	}
}

func TestUnique_NthOnlyWhenAmbiguous(t *testing.T) {
	chain := []dom.Node{
		{Tag: "li", NthOfType: 3, SameTagSiblings: 5},
		{Tag: "ul", NthOfType: 1, SameTagSiblings: 1},
	}
	got := Unique(chain)
	want := "ul > li:nth-of-type(3)"
	if got != want {
		t.Fatalf("Unique: got %q, want %q", got, want)
	}
}

func TestUnique_AncestorIDAnchors(t *testing.T) {
	chain := []dom.Node{
		{Tag: "a", Classes: []string{"link"}},
		{Tag: "nav", ID: "topnav"},
		{Tag: "header"},
	}
	got := Unique(chain)
	want := "#topnav > a.link"
	if got != want {
		t.Fatalf("Unique: got %q, want %q", got, want)
	}
}

func TestUnique_UnsafeClassesSkipped(t *testing.T) {
	chain := []dom.Node{
		{Tag: "div", Classes: []string{"p-[2px]", "hover:underline", "card"}},
	}
	got := Unique(chain)
	if got != "div.card" {
		t.Fatalf("Unique: got %q, want %q", got, "div.card")
	}
}

func TestUnique_Empty(t *testing.T) {
	if got := Unique(nil); got != "" {
		t.Fatalf("Unique(nil): got %q, want empty", got)
	}
}

func TestCache_Memoises(t *testing.T) {
	c := NewCache()
	d := &dom.Descriptor{
		ElementID: 42,
		Chain:     []dom.Node{{Tag: "p", Classes: []string{"first"}}},
	}
	first := c.Unique(d)

	// Mutating the chain must not change the memoised value — the
	// selector is computed from the class list at build time.
	d.Chain[0].Classes = []string{"second"}
	second := c.Unique(d)

	if first != second {
		t.Fatalf("Cache: got %q then %q, want memoised value", first, second)
	}
	if c.Len() != 1 {
		t.Fatalf("Cache: %d entries, want 1", c.Len())
	}

	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("Cache after Reset: %d entries, want 0", c.Len())
	}
	if got := c.Unique(d); got == first {
		t.Fatalf("Cache after Reset: got stale %q", got)
	}
}

// The soundness property: a generated selector, evaluated against the
// document it was derived from, must resolve to a set containing the
// original element. Uniqueness is not guaranteed and not asserted.
func TestUnique_SoundAgainstDocument(t *testing.T) {
	const page = `<html><body>
		<main>
			<div class="toolbar">
				<button id="save-btn" class="btn">Save</button>
			</div>
			<ul class="items">
				<li>one</li>
				<li>two</li>
				<li class="active">three</li>
			</ul>
			<div class="card"><span>a</span></div>
			<div class="card"><span>b</span></div>
		</main>
	</body></html>`

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var elements []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html", "head", "body":
			default:
				elements = append(elements, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(elements) == 0 {
		t.Fatal("no elements collected from fixture")
	}

	for _, el := range elements {
		chain := ChainFromNode(el)
		sel := Unique(chain)
		if sel == "" {
			t.Errorf("empty selector for <%s>", el.Data)
			continue
		}
		matches := QuerySelectorAll(doc, sel)
		found := false
		for _, m := range matches {
			if m == el {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("selector %q does not resolve to its <%s> element (matched %d nodes)",
				sel, el.Data, len(matches))
		}
	}
}

func TestUnique_IDIgnoresAncestors(t *testing.T) {
	const page = `<html><body><main><div><button id="save-btn">x</button></div></main></body></html>`
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	btn := QuerySelector(doc, "#save-btn")
	if btn == nil {
		t.Fatal("fixture: #save-btn not found")
	}
	if got := Unique(ChainFromNode(btn)); got != "#save-btn" {
		t.Fatalf("Unique: got %q, want %q", got, "#save-btn")
	}
}
