// Package anyclick turns Chrome pages into capture surfaces: a
// right-click on any element opens a themeable context menu whose
// actions snapshot the element and page, upload images, refine prompts,
// and collect feedback. Payloads flow to sinks (stdout, webhook,
// callback); a delivery queue, if any, lives behind the webhook sink.
//
// anyclick captures, it does not interpret. Consumers receive
// capture.Payload values and decide what they mean.
package anyclick

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"

	"github.com/anyclick/anyclick/idgen"
	"github.com/anyclick/anyclick/internal/agent"
	"github.com/anyclick/anyclick/internal/assistant"
	"github.com/anyclick/anyclick/internal/browser"
	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/imaging"
	"github.com/anyclick/anyclick/internal/inspect"
	"github.com/anyclick/anyclick/internal/menu"
	"github.com/anyclick/anyclick/internal/sink"
)

// Session is the top-level controller. It owns the browser, the settings
// store, the sink router, and one agent per attached page.
type Session struct {
	cfg    *config.Config
	mgr    *browser.Manager
	store  *config.Store
	sinkR  *sink.Router
	logger *slog.Logger

	// pageID names pages attached without an explicit ID. Short NanoIDs
	// read better in logs and URLs than full UUIDs.
	pageID idgen.Generator

	mu       sync.Mutex
	agents   map[string]*agent.Agent // keyed by page ID
	settings config.Settings
}

// New creates a Session from configuration.
func New(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:       cfg.Browser.Remote,
		MemoryLimit:     cfg.Browser.MemoryLimit,
		RecycleInterval: cfg.Browser.RecycleInterval,
		Mode:            browser.ParseMode(cfg.Browser.Stealth),
		XvfbDisplay:     cfg.Browser.XvfbDisplay,
		Logger:          logger,
	})

	return &Session{
		cfg:    cfg,
		mgr:    mgr,
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
		pageID: idgen.Prefixed("pg_", idgen.NanoID(10)),
		agents: make(map[string]*agent.Agent),
		settings: config.Settings{
			Enabled: true,
			Theme:   cfg.Menu.Theme,
		},
	}
}

// Start launches the browser, loads persisted settings, attaches the
// configured pages and begins watching the settings store.
func (s *Session) Start(ctx context.Context) error {
	if s.cfg.Settings.Path != "" {
		store, err := config.OpenStore(s.cfg.Settings.Path)
		if err != nil {
			return fmt.Errorf("anyclick: open settings: %w", err)
		}
		s.store = store

		loaded, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("anyclick: load settings: %w", err)
		}
		s.mu.Lock()
		s.settings = loaded
		s.mu.Unlock()
	}

	if _, err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("anyclick: start browser: %w", err)
	}

	s.mgr.SetRecycleCallback(&browser.RecycleCallback{
		BeforeRecycle: s.detachAll,
		AfterRecycle:  func(b *rod.Browser) { s.reattachAll(ctx) },
	})

	for _, page := range s.cfg.Pages {
		if _, err := s.AttachPage(ctx, page.URL, page.ID); err != nil {
			s.logger.Error("anyclick: attach page failed",
				"url", page.URL, "error", err)
		}
	}

	if s.store != nil {
		w := config.NewWatcher(s.store.DB(), config.WatcherOptions{Logger: s.logger})
		go w.OnChange(ctx, func() error { return s.reloadSettings(ctx) })
	}

	return nil
}

// AttachPage opens a tab for the URL and starts an agent on it. An
// empty pageID gets a generated one; the effective ID is returned.
func (s *Session) AttachPage(ctx context.Context, pageURL, pageID string) (string, error) {
	if pageID == "" {
		pageID = s.pageID()
	}
	tab, err := browser.OpenTab(ctx, s.mgr, pageURL, pageID)
	if err != nil {
		return "", fmt.Errorf("anyclick: open tab: %w", err)
	}
	if err := s.startAgent(ctx, tab); err != nil {
		return "", err
	}
	return pageID, nil
}

func (s *Session) startAgent(ctx context.Context, tab *browser.Tab) error {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()

	ag := agent.New(agent.Config{
		Tab:         tab,
		Sink:        s.sinkR,
		Sender:      s.uploaderFor(settings),
		Assist:      s.assistantFor(settings),
		Theme:       menu.ParseTheme(settings.Theme),
		CustomItems: s.itemsFor(settings),
		TouchWindow: s.cfg.Menu.TouchWindow,
		Limits:      inspect.Rich(),
		Enabled:     settings.Enabled,
		Logger:      s.logger,
	})
	ag.SetContext(ctx)

	if err := ag.Start(); err != nil {
		tab.Close()
		return fmt.Errorf("anyclick: start agent: %w", err)
	}

	s.mu.Lock()
	s.agents[tab.PageID] = ag
	s.mu.Unlock()

	s.logger.Info("anyclick: page attached", "url", tab.PageURL, "id", tab.PageID)
	return nil
}

// DetachPage stops the agent for the page ID.
func (s *Session) DetachPage(pageID string) error {
	s.mu.Lock()
	ag, ok := s.agents[pageID]
	if ok {
		delete(s.agents, pageID)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("anyclick: no agent for page %q", pageID)
	}
	ag.Stop()
	return nil
}

// SetEnabled flips the master switch everywhere and persists it.
func (s *Session) SetEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	s.settings.Enabled = enabled
	agents := s.snapshotAgents()
	s.mu.Unlock()

	for _, ag := range agents {
		ag.SetEnabled(enabled)
	}
	if s.store != nil {
		return s.store.SetEnabled(ctx, enabled)
	}
	return nil
}

// Toggle flips the master switch and returns the new state.
func (s *Session) Toggle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	next := !s.settings.Enabled
	s.mu.Unlock()
	return next, s.SetEnabled(ctx, next)
}

// Enabled reports the current master switch.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Enabled
}

// Capture asks the page's agent to capture the element matching the CSS
// selector. The payload arrives through the sinks.
func (s *Session) Capture(pageID, selector string) error {
	s.mu.Lock()
	ag, ok := s.agents[pageID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("anyclick: no agent for page %q", pageID)
	}
	ag.CaptureBySelector(selector)
	return nil
}

// Settings returns the current settings snapshot.
func (s *Session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ApplySettings persists a full settings snapshot and pushes it to all
// agents.
func (s *Session) ApplySettings(ctx context.Context, in config.Settings) error {
	if s.store != nil {
		if err := s.store.Apply(ctx, in); err != nil {
			return err
		}
	}
	s.applySettings(in)
	return nil
}

// PageStatus describes one attached page.
type PageStatus struct {
	PageID  string `json:"page_id"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

// Status reports the attached pages.
func (s *Session) Status() []PageStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PageStatus, 0, len(s.agents))
	for _, ag := range s.agents {
		out = append(out, PageStatus{
			PageID:  ag.PageID(),
			URL:     ag.PageURL(),
			Enabled: ag.Enabled(),
		})
	}
	return out
}

// Stop shuts down all agents, the browser and the settings store.
func (s *Session) Stop() {
	s.mu.Lock()
	agents := s.snapshotAgents()
	s.agents = make(map[string]*agent.Agent)
	s.mu.Unlock()

	for _, ag := range agents {
		ag.Stop()
	}
	s.sinkR.Close()
	s.mgr.Close()
	if s.store != nil {
		s.store.Close()
	}
}

func (s *Session) reloadSettings(ctx context.Context) error {
	loaded, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.applySettings(loaded)
	s.logger.Info("anyclick: settings reloaded", "enabled", loaded.Enabled)
	return nil
}

func (s *Session) applySettings(in config.Settings) {
	s.mu.Lock()
	s.settings = in
	agents := s.snapshotAgents()
	s.mu.Unlock()

	sender := s.uploaderFor(in)
	assist := s.assistantFor(in)
	items := s.itemsFor(in)
	theme := menu.ParseTheme(in.Theme)

	for _, ag := range agents {
		ag.SetSender(sender)
		ag.SetAssistant(assist)
		ag.SetItems(items)
		ag.SetTheme(theme)
		ag.SetEnabled(in.Enabled)
	}
}

// uploaderFor builds the upload sender, letting stored settings override
// the file config.
func (s *Session) uploaderFor(in config.Settings) imaging.Sender {
	endpoint := in.UploadEndpoint
	if endpoint == "" {
		endpoint = s.cfg.Upload.Endpoint
	}
	apiKey := in.UploadAPIKey
	if apiKey == "" {
		apiKey = s.cfg.Upload.APIKey
	}
	return imaging.NewUploader(imaging.UploaderConfig{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Timeout:  s.cfg.Upload.Timeout,
		Logger:   s.logger,
	})
}

func (s *Session) assistantFor(in config.Settings) *assistant.Client {
	endpoint := in.AssistantEndpoint
	if endpoint == "" {
		endpoint = s.cfg.Assistant.Endpoint
	}
	prompt := in.AssistantSystemPrompt
	if prompt == "" {
		prompt = s.cfg.Assistant.SystemPrompt
	}
	return assistant.NewClient(assistant.ClientConfig{
		Endpoint:     endpoint,
		SystemPrompt: prompt,
		Timeout:      s.cfg.Assistant.Timeout,
		Logger:       s.logger,
	})
}

func (s *Session) itemsFor(in config.Settings) []menu.Item {
	if in.CustomMenu == "" {
		return nil
	}
	items, err := menu.ParseItems(in.CustomMenu)
	if err != nil {
		s.logger.Warn("anyclick: bad custom menu, using default", "error", err)
		return nil
	}
	return items
}

// snapshotAgents copies the agent list; callers hold s.mu.
func (s *Session) snapshotAgents() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(s.agents))
	for _, ag := range s.agents {
		out = append(out, ag)
	}
	return out
}

func (s *Session) detachAll() {
	s.mu.Lock()
	agents := s.snapshotAgents()
	s.agents = make(map[string]*agent.Agent)
	s.mu.Unlock()

	for _, ag := range agents {
		ag.Stop()
	}
}

func (s *Session) reattachAll(ctx context.Context) {
	for _, page := range s.cfg.Pages {
		if _, err := s.AttachPage(ctx, page.URL, page.ID); err != nil {
			s.logger.Error("anyclick: reattach failed", "url", page.URL, "error", err)
		}
	}
}
