package inspect

import (
	"log/slog"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/anyclick/anyclick/capture"
	"github.com/anyclick/anyclick/internal/dom"
	"github.com/anyclick/anyclick/internal/selector"
)

// ellipsis marks character truncation.
const ellipsis = "…"

// Builder constructs element and page contexts. Safe for concurrent use.
type Builder struct {
	limits Limits
	policy *bluemonday.Policy
	md     *converter.Converter
	logger *slog.Logger
}

// NewBuilder creates a Builder with the given limits (zero fields take
// the lean defaults).
func NewBuilder(limits Limits, logger *slog.Logger) *Builder {
	limits.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	policy := bluemonday.UGCPolicy()
	// Keep identity attributes: captured markup is inspected by humans
	// and matched against derived selectors downstream.
	policy.AllowAttrs("id", "class").Globally()

	return &Builder{
		limits: limits,
		policy: policy,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		logger: logger,
	}
}

// Limits returns the builder's effective limits.
func (b *Builder) Limits() Limits { return b.limits }

// Element builds a bounded ElementContext from a descriptor. sel is the
// element's derived selector (memoised by the caller).
//
// OuterHTML is sanitised before the caps apply; markup whose byte
// length exceeds MaxHTMLBytes is dropped to empty — an expected, bounded
// condition, not an error.
func (b *Builder) Element(d *dom.Descriptor, sel string) capture.ElementContext {
	leaf := d.Leaf()

	html := b.policy.Sanitize(d.OuterHTML)
	if len(html) > b.limits.MaxHTMLBytes {
		html = ""
	} else {
		html = truncateChars(html, b.limits.MaxHTMLChars)
		// The ellipsis marker can push truncated markup past the byte
		// cap; the cap wins.
		if len(html) > b.limits.MaxHTMLBytes {
			html = ""
		}
	}

	markdown := ""
	if html != "" {
		if md, err := b.md.ConvertString(html); err == nil {
			markdown = md
		} else {
			b.logger.Debug("inspect: markdown conversion failed", "error", err)
		}
	}

	return capture.ElementContext{
		Selector:       sel,
		Tag:            leaf.Tag,
		ID:             leaf.ID,
		Classes:        leaf.Classes,
		InnerText:      truncateChars(d.InnerText, b.limits.MaxTextChars),
		OuterHTML:      html,
		Markdown:       markdown,
		BoundingRect:   d.Rect,
		DataAttributes: d.DataAttributes,
		Ancestors:      b.ancestors(d.Chain),
	}
}

// ancestors builds depth-limited AncestorInfo entries. Each ancestor's
// selector is derived from its own sub-chain.
func (b *Builder) ancestors(chain []dom.Node) []capture.AncestorInfo {
	if len(chain) <= 1 {
		return nil
	}
	rest := chain[1:]
	if len(rest) > b.limits.MaxAncestors {
		rest = rest[:b.limits.MaxAncestors]
	}
	out := make([]capture.AncestorInfo, 0, len(rest))
	for i, n := range rest {
		out = append(out, capture.AncestorInfo{
			Tag:      n.Tag,
			ID:       n.ID,
			Classes:  n.Classes,
			Selector: selector.Unique(chain[i+1:]),
		})
	}
	return out
}

// truncateChars limits s to max runes, appending an ellipsis marker when
// anything was cut. Rune-safe: never splits a multi-byte character.
func truncateChars(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + ellipsis
}
