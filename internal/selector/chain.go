package selector

import (
	"strings"

	"github.com/anyclick/anyclick/internal/dom"
	"golang.org/x/net/html"
)

// ChainFromNode builds the ancestor chain for a parsed HTML node, leaf
// first, stopping below body/html, mirroring the chain the page shim
// captures. Soundness checks use it to compare a generated selector's
// matches against the element it came from.
func ChainFromNode(n *html.Node) []dom.Node {
	var chain []dom.Node
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if cur.Data == "body" || cur.Data == "html" {
			break
		}
		chain = append(chain, dom.Node{
			Tag:             cur.Data,
			ID:              attrValue(cur, "id"),
			Classes:         strings.Fields(attrValue(cur, "class")),
			NthOfType:       nthOfType(cur),
			SameTagSiblings: sameTagSiblings(cur),
		})
	}
	return chain
}

func sameTagSiblings(n *html.Node) int {
	if n.Parent == nil {
		return 1
	}
	count := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == n.Data {
			count++
		}
	}
	return count
}
