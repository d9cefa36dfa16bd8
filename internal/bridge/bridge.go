// Package bridge is the transport between Go and the in-page shim: a
// Runtime binding for shim → Go events and Eval-based dispatch for
// Go → shim commands.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// ErrBridgeDown marks transport failures (page gone, context detached)
// as opposed to errors the page-side code reported itself.
var ErrBridgeDown = errors.New("bridge down")

// Bridge owns the two-way channel with one page. Events arrive on
// Events(); commands go out through Dispatch.
type Bridge struct {
	page   *rod.Page
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	events chan Event
}

// Config for creating a Bridge.
type Config struct {
	Page   *rod.Page
	Buffer int
	Logger *slog.Logger
}

// New creates a Bridge for the given page. Call Inject before use.
func New(cfg Config) *Bridge {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		page:   cfg.Page,
		logger: cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, cfg.Buffer),
	}
}

// SetContext reparents the bridge lifetime to the caller's context.
func (b *Bridge) SetContext(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)
}

// Inject registers the binding, starts the listener and evaluates the
// shim script in the page.
func (b *Bridge) Inject(script []byte) error {
	err := proto.RuntimeAddBinding{Name: BindingName}.Call(b.page)
	if err != nil {
		b.logger.Warn("bridge: addBinding failed (may already exist)", "error", err)
	}

	go b.listen()

	if _, err := b.page.Eval(string(script)); err != nil {
		return fmt.Errorf("bridge: inject shim: %w", err)
	}
	b.logger.Debug("bridge: shim injected")
	return nil
}

// Events returns the stream of shim events. Closed when the bridge stops.
func (b *Bridge) Events() <-chan Event {
	return b.events
}

// Stop tears down the listener. The shim itself is left in the page;
// a reload clears it.
func (b *Bridge) Stop() {
	b.cancel()
}

func (b *Bridge) listen() {
	defer close(b.events)
	b.page.Context(b.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != BindingName {
			return
		}
		var ev Event
		if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
			b.logger.Warn("bridge: parse binding payload", "error", err)
			return
		}
		ev.At = time.Now()

		select {
		case b.events <- ev:
		default:
			// Pointer events are high-rate and safe to drop under load.
			if ev.Type != EventPointer {
				b.logger.Warn("bridge: event channel full, dropped", "type", ev.Type)
			}
		}
	})()
}

// Dispatch sends one command to the shim. The payload is marshalled to
// JSON and handed to window.__anyclick.dispatch.
func (b *Bridge) Dispatch(ctx context.Context, cmd string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bridge: marshal %s payload: %w", cmd, err)
	}
	_, err = b.page.Context(ctx).Eval(
		`(cmd, payload) => window.__anyclick && window.__anyclick.dispatch(cmd, payload)`,
		cmd, json.RawMessage(raw))
	if err != nil {
		return fmt.Errorf("bridge: dispatch %s: %w", cmd, errors.Join(ErrBridgeDown, err))
	}
	return nil
}

// FetchDataURL fetches an image URL in page context and returns it as a
// data: URL. withCredentials includes cookies, which some CDNs require
// for cross-origin assets.
func (b *Bridge) FetchDataURL(ctx context.Context, src string, withCredentials bool) (string, error) {
	res, err := b.page.Context(ctx).Eval(`async (src, creds) => {
		const resp = await fetch(src, creds ? {credentials: "include"} : {});
		if (!resp.ok) throw new Error("fetch " + src + ": " + resp.status);
		const blob = await resp.blob();
		return await new Promise((resolve, reject) => {
			const r = new FileReader();
			r.onload = () => resolve(r.result);
			r.onerror = () => reject(r.error);
			r.readAsDataURL(blob);
		});
	}`, src, withCredentials)
	if err != nil {
		return "", fmt.Errorf("bridge: page fetch %s: %w", src, err)
	}
	return res.Value.Str(), nil
}

// ReadBlob resolves a blob: URL into a data: URL. Blob URLs only exist
// inside the document that created them, so this is the only tier that
// can read them.
func (b *Bridge) ReadBlob(ctx context.Context, src string) (string, error) {
	return b.FetchDataURL(ctx, src, false)
}

// Screenshot captures the visible viewport as PNG.
func (b *Bridge) Screenshot(ctx context.Context) ([]byte, error) {
	shot, err := proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	}.Call(b.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("bridge: screenshot: %w", errors.Join(ErrBridgeDown, err))
	}
	return shot.Data, nil
}

// WriteClipboard copies text via the page's async clipboard API.
func (b *Bridge) WriteClipboard(ctx context.Context, text string) error {
	_, err := b.page.Context(ctx).Eval(
		`async (t) => { await navigator.clipboard.writeText(t); }`, text)
	if err != nil {
		return fmt.Errorf("bridge: clipboard write: %w", err)
	}
	return nil
}
