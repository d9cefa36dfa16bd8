// Package agent runs the per-page interaction loop: it injects the shim,
// tracks the pointer, drives the menu state machine, and turns menu
// actions into captures, uploads and assistant calls. All state lives on
// the Go side; the shim only relays DOM events and paints view models.
package agent

import (
	"context"
	_ "embed"
	"log/slog"
	"sync"
	"time"

	"github.com/anyclick/anyclick/capture"
	"github.com/anyclick/anyclick/internal/assistant"
	"github.com/anyclick/anyclick/internal/bridge"
	"github.com/anyclick/anyclick/internal/browser"
	"github.com/anyclick/anyclick/internal/dom"
	"github.com/anyclick/anyclick/internal/imaging"
	"github.com/anyclick/anyclick/internal/inspect"
	"github.com/anyclick/anyclick/internal/menu"
	"github.com/anyclick/anyclick/internal/overlay"
	"github.com/anyclick/anyclick/internal/pointer"
	"github.com/anyclick/anyclick/internal/selector"
	"github.com/anyclick/anyclick/internal/sink"
)

//go:embed agent.js
var agentJS []byte

// pageShim is the transport to the injected shim. Satisfied by
// bridge.Bridge; tests substitute a fake.
type pageShim interface {
	Inject(script []byte) error
	Events() <-chan bridge.Event
	Dispatch(ctx context.Context, cmd string, payload any) error
	WriteClipboard(ctx context.Context, text string) error
	Stop()

	imaging.PageFetcher
	imaging.Screenshotter
}

// Host page events the shim forwards through the custom channel.
const (
	customCaptureElement = "anyclick-capture-element"
	customRefreshElement = "anyclick-refresh-element"
	customOverlayClick   = "anyclick-overlay-click"
)

// Agent manages one page.
type Agent struct {
	tab    *browser.Tab
	br     pageShim
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	tracker   *pointer.Tracker
	cache     *selector.Cache
	machine   *menu.Machine
	highlight *overlay.Highlight
	builder   *inspect.Builder
	lean      *inspect.Builder
	pipeline  *imaging.Pipeline
	out       sink.Sink

	// Owned by the event loop. Out-of-loop callers reach them through
	// ctrl, never directly.
	menuPos menu.Point
	ctrl    chan func()

	mu      sync.RWMutex
	page    dom.PageInfo
	enabled bool
	theme   menu.Theme
	items   []menu.Item // nil = DefaultItems
	sender  imaging.Sender
	assist  *assistant.Client
}

// Config for creating an Agent.
type Config struct {
	Tab    *browser.Tab
	Sink   sink.Sink
	Sender imaging.Sender
	Assist *assistant.Client

	Theme       menu.Theme
	CustomItems []menu.Item
	TouchWindow time.Duration
	Limits      inspect.Limits
	Enabled     bool

	Logger *slog.Logger
}

// New creates an Agent for the tab. Call Start to inject and run.
func New(cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Theme == "" {
		cfg.Theme = menu.ThemeLight
	}
	if cfg.TouchWindow <= 0 {
		cfg.TouchWindow = pointer.DefaultTouchWindow
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Agent{
		tab:       cfg.Tab,
		logger:    cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
		tracker:   pointer.New(cfg.TouchWindow),
		cache:     selector.NewCache(),
		machine:   menu.NewMachine(),
		highlight: &overlay.Highlight{},
		ctrl:      make(chan func(), 16),
		builder:   inspect.NewBuilder(cfg.Limits, cfg.Logger),
		lean:      inspect.NewBuilder(inspect.Lean(), cfg.Logger),
		out:       cfg.Sink,
		enabled:   cfg.Enabled,
		theme:     cfg.Theme,
		items:     cfg.CustomItems,
		sender:    cfg.Sender,
		assist:    cfg.Assist,
	}
}

// SetContext reparents the agent lifetime to the caller's context.
func (a *Agent) SetContext(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
}

// PageURL returns the attached page's URL.
func (a *Agent) PageURL() string { return a.tab.PageURL }

// PageID returns the attached page's ID.
func (a *Agent) PageID() string { return a.tab.PageID }

// Start injects the shim and runs the event loop.
func (a *Agent) Start() error {
	if a.br == nil {
		b := bridge.New(bridge.Config{Page: a.tab.Page, Logger: a.logger})
		b.SetContext(a.ctx)
		a.br = b
	}

	a.pipeline = imaging.NewPipeline(imaging.PipelineConfig{
		Fetcher: a.br,
		Shooter: a.br,
		Sender:  senderFunc(a.currentSender),
		Logger:  a.logger,
	})

	if err := a.br.Inject(agentJS); err != nil {
		return err
	}
	a.pushEnabled()

	go a.loop()

	a.logger.Info("agent: started", "url", a.tab.PageURL, "page_id", a.tab.PageID)
	return nil
}

// Stop tears down the agent. The shim removes its listeners and DOM
// nodes when the enabled flag drops.
func (a *Agent) Stop() {
	a.dispatch(bridge.CmdMenuClose, nil)
	a.dispatch(bridge.CmdHighlightHide, nil)
	a.dispatch(bridge.CmdSetEnabled, map[string]bool{"enabled": false})
	a.cancel()
	if a.br != nil {
		a.br.Stop()
	}
	a.logger.Info("agent: stopped", "url", a.tab.PageURL)
}

// SetEnabled flips the master switch. Disabling closes any open menu
// and removes the highlight.
func (a *Agent) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()
	if !changed {
		return
	}
	a.onLoop(func() {
		if !enabled {
			a.applyEffects(a.machine.CloseNow(), nil)
			if a.highlight.Clear(true) {
				a.dispatch(bridge.CmdHighlightHide, nil)
			}
		}
		a.pushEnabled()
	})
	a.logger.Info("agent: enabled changed", "enabled", enabled, "url", a.tab.PageURL)
}

// Enabled reports the master switch.
func (a *Agent) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetTheme switches the menu theme; an open menu re-renders.
func (a *Agent) SetTheme(t menu.Theme) {
	a.mu.Lock()
	a.theme = t
	a.mu.Unlock()
	a.onLoop(func() {
		if a.machine.IsOpen() {
			a.render(false)
		}
	})
}

// SetItems replaces the menu item tree. nil restores the default menu.
func (a *Agent) SetItems(items []menu.Item) {
	a.mu.Lock()
	a.items = items
	a.mu.Unlock()
}

// CaptureBySelector asks the page to capture the element matching the
// CSS selector, the same path a host page takes via the capture hook.
// The resulting payload arrives asynchronously through the sink.
func (a *Agent) CaptureBySelector(sel string) {
	a.dispatch(bridge.CmdEmitEvent, map[string]any{
		"name":   customCaptureElement,
		"detail": map[string]string{"selector": sel},
	})
}

// SetSender swaps the upload destination when settings change.
func (a *Agent) SetSender(s imaging.Sender) {
	a.mu.Lock()
	a.sender = s
	a.mu.Unlock()
}

// SetAssistant swaps the refine client when settings change.
func (a *Agent) SetAssistant(c *assistant.Client) {
	a.mu.Lock()
	a.assist = c
	a.mu.Unlock()
}

func (a *Agent) currentSender() imaging.Sender {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sender
}

func (a *Agent) currentAssistant() *assistant.Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.assist
}

func (a *Agent) pageInfo() dom.PageInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.page
}

func (a *Agent) currentTheme() menu.Theme {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.theme
}

func (a *Agent) menuItems(d *dom.Descriptor) []menu.Item {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.items != nil {
		return a.items
	}
	return menu.DefaultItems(d)
}

func (a *Agent) pushEnabled() {
	a.dispatch(bridge.CmdSetEnabled, map[string]bool{"enabled": a.Enabled()})
}

func (a *Agent) loop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case fn := <-a.ctrl:
			fn()
		case ev, ok := <-a.br.Events():
			if !ok {
				return
			}
			a.handle(ev)
		}
	}
}

// onLoop hands fn to the event loop, which owns the menu machine and
// menuPos. Dropped once the agent context is cancelled.
func (a *Agent) onLoop(fn func()) {
	select {
	case a.ctrl <- fn:
	case <-a.ctx.Done():
	}
}

func (a *Agent) handle(ev bridge.Event) {
	switch ev.Type {
	case bridge.EventPointer:
		a.onPointer(ev)
	case bridge.EventTouch:
		a.tracker.MarkTouch()
	case bridge.EventContextMenu:
		a.onContextMenu(ev)
	case bridge.EventKey:
		if k, err := ev.AsKey(); err == nil {
			a.applyEffects(a.machine.Key(k.Key, k.Shift), a.tracker.Pinned())
		}
	case bridge.EventItemClick:
		if c, err := ev.AsItemClick(); err == nil {
			a.applyEffects(a.machine.Activate(c.Index), a.tracker.Pinned())
		}
	case bridge.EventItemHover:
		if c, err := ev.AsItemHover(); err == nil {
			a.machine.Hover(c.Index)
		}
	case bridge.EventBackClick:
		a.applyEffects(a.machine.Back(), a.tracker.Pinned())
	case bridge.EventOutsideClick:
		a.applyEffects(a.machine.ClickOutside(), nil)
	case bridge.EventCommentSubmit:
		if c, err := ev.AsComment(); err == nil {
			a.applyEffects(a.machine.SubmitComment(c.Text), a.tracker.Pinned())
		}
	case bridge.EventCommentCancel:
		a.applyEffects(a.machine.CancelComment(), nil)
	case bridge.EventDismiss:
		a.applyEffects(a.machine.CloseNow(), nil)
	case bridge.EventNavigate:
		a.onNavigate(ev)
	case bridge.EventCustom:
		a.onCustom(ev)
	default:
		a.logger.Debug("agent: unknown event", "type", ev.Type)
	}
}

func (a *Agent) onPointer(ev bridge.Event) {
	if !a.Enabled() {
		return
	}
	p, err := ev.AsPointer()
	if err != nil {
		a.logger.Warn("agent: bad pointer event", "error", err)
		return
	}
	d := p.Descriptor
	a.tracker.Motion(&d)

	// While the menu is open the pinned target owns the highlight.
	if a.machine.IsOpen() {
		return
	}
	box := a.highlight.Show(d.Rect)
	a.dispatch(bridge.CmdHighlightShow, box)
}

func (a *Agent) onContextMenu(ev bridge.Event) {
	if !a.Enabled() {
		return
	}
	cm, err := ev.AsContextMenu()
	if err != nil {
		a.logger.Warn("agent: bad contextmenu event", "error", err)
		return
	}
	d := cm.Descriptor
	if !a.tracker.Pin(&d) {
		// Synthetic contextmenu shortly after a touch: ignore.
		a.logger.Debug("agent: contextmenu suppressed after touch")
		return
	}

	a.menuPos = menu.Point{X: cm.X, Y: cm.Y}
	box := a.highlight.Show(d.Rect)
	a.dispatch(bridge.CmdHighlightShow, box)
	a.applyEffects(a.machine.Open(a.menuItems(&d)), &d)
}

func (a *Agent) onNavigate(ev bridge.Event) {
	nav, err := ev.AsNavigate()
	if err != nil {
		a.logger.Warn("agent: bad navigate event", "error", err)
		return
	}
	a.applyEffects(a.machine.CloseNow(), nil)
	if a.highlight.Clear(true) {
		a.dispatch(bridge.CmdHighlightHide, nil)
	}
	a.tracker.Reset()
	a.cache.Reset()
	a.mu.Lock()
	a.page = nav.Page
	a.mu.Unlock()
	a.tab.PageURL = nav.Page.URL
	a.logger.Debug("agent: navigation", "url", nav.Page.URL)
}

func (a *Agent) onCustom(ev bridge.Event) {
	c, err := ev.AsCustom()
	if err != nil {
		a.logger.Warn("agent: bad custom event", "error", err)
		return
	}
	switch c.Name {
	case customCaptureElement:
		// Programmatic capture requested by the host page.
		if c.Descriptor != nil && a.Enabled() {
			go a.doCapture(a.ctx, capture.ActionCapture, c.Descriptor, "")
		}
	case customRefreshElement:
		// Element geometry changed: refresh the highlight and drop the
		// memoised selectors for the page.
		a.cache.Reset()
		if c.Descriptor != nil && a.highlight.Active() {
			a.dispatch(bridge.CmdHighlightShow, a.highlight.Show(c.Descriptor.Rect))
		}
	case customOverlayClick:
		a.applyEffects(a.machine.ClickOutside(), nil)
	default:
		a.logger.Debug("agent: unknown custom event", "name", c.Name)
	}
}

// applyEffects executes machine effects in order. Render and Close touch
// the shim; Dispatch spawns the action without blocking the loop.
func (a *Agent) applyEffects(effects []menu.Effect, target *dom.Descriptor) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case menu.Render:
			a.render(e.Animate)
		case menu.Inspect:
			a.highlight.Preserve()
		case menu.Dispatch:
			d := target
			if d == nil {
				d = a.tracker.Pinned()
			}
			if d == nil {
				a.logger.Warn("agent: action without target", "type", e.Type)
				continue
			}
			go a.runAction(e.Type, e.Comment, d)
		case menu.Close:
			a.dispatch(bridge.CmdMenuClose, nil)
			if a.highlight.Clear(false) {
				a.dispatch(bridge.CmdHighlightHide, nil)
			}
		}
	}
}

func (a *Agent) render(animate bool) {
	vm := menu.BuildViewModel(a.machine, menu.RenderOptions{
		Position: a.menuPos,
		Theme:    a.currentTheme(),
		Animate:  animate,
	})
	a.dispatch(bridge.CmdMenuRender, vm)
}

func (a *Agent) dispatch(cmd string, payload any) {
	if a.br == nil {
		return
	}
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := a.br.Dispatch(ctx, cmd, payload); err != nil {
		a.logger.Warn("agent: dispatch failed", "cmd", cmd, "error", err)
	}
}

func (a *Agent) toast(t overlay.Toast) {
	a.dispatch(bridge.CmdToastShow, t)
}

// senderFunc lets the pipeline follow sender swaps without rebuilds.
type senderFunc func() imaging.Sender

func (f senderFunc) SendDataURL(ctx context.Context, dataURL, filename string) (string, error) {
	return f().SendDataURL(ctx, dataURL, filename)
}

func (f senderFunc) SendFile(ctx context.Context, data []byte, filename string) (string, error) {
	return f().SendFile(ctx, data, filename)
}

func (f senderFunc) SendURL(ctx context.Context, src, filename string) (string, error) {
	return f().SendURL(ctx, src, filename)
}
