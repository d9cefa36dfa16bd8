package agent

import (
	"context"
	"time"

	"github.com/anyclick/anyclick/capture"
	"github.com/anyclick/anyclick/idgen"
	"github.com/anyclick/anyclick/internal/assistant"
	"github.com/anyclick/anyclick/internal/dom"
	"github.com/anyclick/anyclick/internal/imaging"
	"github.com/anyclick/anyclick/internal/inspect"
	"github.com/anyclick/anyclick/internal/menu"
	"github.com/anyclick/anyclick/internal/overlay"
	"github.com/anyclick/anyclick/internal/selector"
)

const actionTimeout = 60 * time.Second

// runAction executes one dispatched leaf. It runs off the event loop:
// a completion arriving after the menu closed only reports via toast
// and never touches menu state.
func (a *Agent) runAction(typ, comment string, d *dom.Descriptor) {
	ctx, cancel := context.WithTimeout(a.ctx, actionTimeout)
	defer cancel()

	switch typ {
	case menu.TypeCapture:
		a.doCapture(ctx, capture.ActionCapture, d, comment)
	case menu.TypeInspect:
		a.doCapture(ctx, capture.ActionInspect, d, comment)
	case menu.TypeIssue:
		a.doCapture(ctx, capture.ActionIssue, d, comment)
	case menu.TypeIdea:
		a.doCapture(ctx, capture.ActionIdea, d, comment)
	case menu.TypeAssistant:
		a.doAssistant(ctx, d, comment)
	case menu.TypeRefine:
		a.doAssistant(ctx, d, d.SelectionText)
	case menu.TypeUpload:
		a.doUpload(ctx, d)
	default:
		// Custom menus may carry types only their webhook understands;
		// ship them as plain captures tagged with the type.
		p := a.buildPayload(capture.ActionCapture, d, comment)
		setMeta(&p, "custom_type", typ)
		a.deliver(ctx, p)
	}
}

func (a *Agent) buildPayload(action capture.Action, d *dom.Descriptor, comment string) capture.Payload {
	sel := a.cache.Unique(d)
	p := capture.Payload{
		ID:        idgen.New(),
		Action:    action,
		Element:   a.builder.Element(d, sel),
		Selectors: selector.Bundle(d),
		Page:      inspect.Page(a.pageInfo(), time.Now()),
		Comment:   comment,
		CreatedAt: time.Now().UnixMilli(),
	}
	// The hash lets downstream consumers dedup captures of unchanged
	// markup.
	if p.Element.OuterHTML != "" {
		setMeta(&p, "content_hash", capture.HashHTML(p.Element.OuterHTML))
	}
	return p
}

func setMeta(p *capture.Payload, key, value string) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]string, 1)
	}
	p.Metadata[key] = value
}

func (a *Agent) deliver(ctx context.Context, p capture.Payload) bool {
	if err := a.out.Send(ctx, p); err != nil {
		a.logger.Error("agent: deliver payload", "action", p.Action, "error", err)
		a.toast(overlay.Error("Could not save the capture"))
		return false
	}
	return true
}

func (a *Agent) doCapture(ctx context.Context, action capture.Action, d *dom.Descriptor, comment string) {
	p := a.buildPayload(action, d, comment)
	if !a.deliver(ctx, p) {
		return
	}
	switch action {
	case capture.ActionIssue, capture.ActionIdea:
		a.toast(overlay.Success("Thanks for the feedback"))
	case capture.ActionInspect:
		a.toast(overlay.Info("Element pinned: " + p.Element.Selector))
	default:
		a.toast(overlay.Success("Captured " + p.Element.Tag))
	}
}

func (a *Agent) doAssistant(ctx context.Context, d *dom.Descriptor, text string) {
	client := a.currentAssistant()
	if client == nil {
		a.toast(overlay.Error("Assistant is not configured"))
		return
	}

	sel := a.cache.Unique(d)
	res, err := client.Refine(ctx, assistant.Request{
		SelectedText: text,
		Context:      a.lean.Element(d, sel),
	})
	if err != nil {
		a.logger.Warn("agent: refine failed", "error", err)
		a.toast(overlay.Error("Could not refine the prompt"))
		return
	}

	p := a.buildPayload(capture.ActionAssistant, d, text)
	setMeta(&p, "refined_prompt", res.RefinedPrompt)
	a.deliver(ctx, p)

	if err := a.br.WriteClipboard(ctx, res.RefinedPrompt); err != nil {
		// Clipboard denial degrades to showing the text itself.
		a.toast(overlay.Info(res.RefinedPrompt))
		return
	}
	a.toast(overlay.Success("Refined prompt copied to clipboard"))
}

func (a *Agent) doUpload(ctx context.Context, d *dom.Descriptor) {
	if d.ImageSrc == "" {
		a.toast(overlay.Error("No image source on this element"))
		return
	}
	page := a.pageInfo()

	// The screenshot tier needs the rect in viewport coordinates.
	viewRect := d.Rect
	viewRect.X -= page.ScrollX
	viewRect.Y -= page.ScrollY

	res := a.pipeline.Upload(ctx, imaging.Request{
		Src:           d.ImageSrc,
		PageURL:       page.URL,
		Rect:          viewRect,
		ViewportWidth: float64(page.ViewportWidth),
	})
	if !res.Success {
		a.toast(overlay.Error(res.Error))
		return
	}

	p := a.buildPayload(capture.ActionUpload, d, "")
	p.Screenshots = []string{res.URL}
	a.deliver(ctx, p)

	if err := a.br.WriteClipboard(ctx, res.URL); err != nil {
		a.toast(overlay.Info(res.URL))
		return
	}
	a.toast(overlay.Success("Image URL copied to clipboard"))
}
