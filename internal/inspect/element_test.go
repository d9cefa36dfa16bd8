package inspect

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/anyclick/anyclick/capture"
	"github.com/anyclick/anyclick/internal/dom"
)

func testDescriptor() *dom.Descriptor {
	return &dom.Descriptor{
		ElementID: 1,
		Chain: []dom.Node{
			{Tag: "button", ID: "save-btn", Classes: []string{"btn"}},
			{Tag: "div", Classes: []string{"toolbar"}},
			{Tag: "main"},
			{Tag: "section"},
			{Tag: "article"},
		},
		InnerText:      "Save",
		OuterHTML:      `<button id="save-btn" class="btn">Save</button>`,
		Rect:           capture.Rect{X: 10, Y: 20, Width: 80, Height: 24},
		DataAttributes: map[string]string{"qa": "save"},
	}
}

func TestElement_Basic(t *testing.T) {
	b := NewBuilder(Lean(), nil)
	ec := b.Element(testDescriptor(), "#save-btn")

	if ec.Selector != "#save-btn" {
		t.Errorf("Selector: got %q", ec.Selector)
	}
	if ec.Tag != "button" || ec.ID != "save-btn" {
		t.Errorf("identity: got tag=%q id=%q", ec.Tag, ec.ID)
	}
	if ec.InnerText != "Save" {
		t.Errorf("InnerText: got %q", ec.InnerText)
	}
	if !strings.Contains(ec.OuterHTML, "Save") {
		t.Errorf("OuterHTML: got %q", ec.OuterHTML)
	}
	if ec.BoundingRect.Width != 80 {
		t.Errorf("BoundingRect: got %+v", ec.BoundingRect)
	}
}

func TestElement_AncestorsDepthLimited(t *testing.T) {
	b := NewBuilder(Limits{MaxAncestors: 2}, nil)
	ec := b.Element(testDescriptor(), "#save-btn")

	if len(ec.Ancestors) != 2 {
		t.Fatalf("Ancestors: got %d, want 2", len(ec.Ancestors))
	}
	if ec.Ancestors[0].Tag != "div" || ec.Ancestors[1].Tag != "main" {
		t.Errorf("Ancestors: got %+v", ec.Ancestors)
	}
	if ec.Ancestors[0].Selector == "" {
		t.Error("ancestor selector should be derived")
	}
}

func TestElement_TextTruncatedWithEllipsis(t *testing.T) {
	b := NewBuilder(Limits{MaxTextChars: 10}, nil)
	d := testDescriptor()
	d.InnerText = "a very long piece of inner text"
	ec := b.Element(d, "x")

	if !strings.HasSuffix(ec.InnerText, ellipsis) {
		t.Fatalf("InnerText: got %q, want ellipsis suffix", ec.InnerText)
	}
	if utf8.RuneCountInString(ec.InnerText) != 11 { // 10 + marker
		t.Fatalf("InnerText: got %d runes", utf8.RuneCountInString(ec.InnerText))
	}
}

func TestElement_MultibyteTruncationIsRuneSafe(t *testing.T) {
	b := NewBuilder(Limits{MaxTextChars: 3}, nil)
	d := testDescriptor()
	d.InnerText = "héllo wörld"
	ec := b.Element(d, "x")

	if !utf8.ValidString(ec.InnerText) {
		t.Fatalf("InnerText: invalid UTF-8 %q", ec.InnerText)
	}
	if ec.InnerText != "hél"+ellipsis {
		t.Fatalf("InnerText: got %q", ec.InnerText)
	}
}

func TestElement_OversizedHTMLDroppedEmpty(t *testing.T) {
	b := NewBuilder(Limits{MaxHTMLChars: 500, MaxHTMLBytes: 64}, nil)
	d := testDescriptor()
	d.OuterHTML = "<p>" + strings.Repeat("é", 100) + "</p>" // >64 bytes

	ec := b.Element(d, "x")
	if ec.OuterHTML != "" {
		t.Fatalf("OuterHTML: got %q, want empty for oversized markup", ec.OuterHTML)
	}
	if ec.Markdown != "" {
		t.Fatalf("Markdown: got %q, want empty when HTML dropped", ec.Markdown)
	}
}

func TestElement_EllipsisNeverOvershootsByteCap(t *testing.T) {
	// 8 bytes fits the byte cap, but char truncation to 7 plus the
	// 3-byte ellipsis would make 10. The byte cap wins: dropped empty.
	b := NewBuilder(Limits{MaxHTMLChars: 7, MaxHTMLBytes: 8}, nil)
	d := testDescriptor()
	d.OuterHTML = "abcdefgh"

	ec := b.Element(d, "x")
	if ec.OuterHTML != "" {
		t.Fatalf("OuterHTML: got %q (%d bytes), want empty", ec.OuterHTML, len(ec.OuterHTML))
	}
}

func TestElement_HTMLWithinCapsKept(t *testing.T) {
	b := NewBuilder(Lean(), nil)
	ec := b.Element(testDescriptor(), "x")

	if ec.OuterHTML == "" {
		t.Fatal("OuterHTML: dropped despite being within caps")
	}
	if len(ec.OuterHTML) > b.Limits().MaxHTMLBytes {
		t.Fatalf("OuterHTML: %d bytes exceeds cap %d", len(ec.OuterHTML), b.Limits().MaxHTMLBytes)
	}
}

func TestElement_ScriptSanitised(t *testing.T) {
	b := NewBuilder(Lean(), nil)
	d := testDescriptor()
	d.OuterHTML = `<div>ok<script>alert(1)</script></div>`
	ec := b.Element(d, "x")

	if strings.Contains(ec.OuterHTML, "script") {
		t.Fatalf("OuterHTML: script survived sanitisation: %q", ec.OuterHTML)
	}
	if !strings.Contains(ec.OuterHTML, "ok") {
		t.Fatalf("OuterHTML: content lost: %q", ec.OuterHTML)
	}
}

func TestElement_Markdown(t *testing.T) {
	b := NewBuilder(Rich(), nil)
	d := testDescriptor()
	d.OuterHTML = `<p>some <strong>bold</strong> text</p>`
	ec := b.Element(d, "x")

	if !strings.Contains(ec.Markdown, "**bold**") {
		t.Fatalf("Markdown: got %q", ec.Markdown)
	}
}

func TestPage(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	pc := Page(dom.PageInfo{
		URL:            "https://example.com/a",
		Title:          "Example",
		Referrer:       "https://ref.example.com",
		ViewportWidth:  1280,
		ViewportHeight: 800,
		ScreenWidth:    2560,
		ScreenHeight:   1440,
		UserAgent:      "test-agent",
	}, now)

	if pc.URL != "https://example.com/a" || pc.Title != "Example" {
		t.Errorf("page identity: got %+v", pc)
	}
	if pc.Viewport.Width != 1280 || pc.Screen.Height != 1440 {
		t.Errorf("dimensions: got %+v", pc)
	}
	if pc.Timestamp != "2026-03-14T09:26:53Z" {
		t.Errorf("Timestamp: got %q", pc.Timestamp)
	}
	if _, err := time.Parse(time.RFC3339, pc.Timestamp); err != nil {
		t.Errorf("Timestamp not RFC3339: %v", err)
	}
}
