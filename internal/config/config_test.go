package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anyclick.yaml")
	yaml := `
browser:
  stealth: headful
pages:
  - id: app
    url: https://app.example.com
upload:
  endpoint: https://files.example.com/upload
sinks:
  - type: stdout
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Browser.Stealth != "headful" {
		t.Errorf("stealth: %q", cfg.Browser.Stealth)
	}
	if cfg.Browser.RecycleInterval != 4*time.Hour {
		t.Errorf("recycle default: %v", cfg.Browser.RecycleInterval)
	}
	if cfg.Menu.Theme != "light" || cfg.Menu.TouchWindow != 500*time.Millisecond {
		t.Errorf("menu defaults: %+v", cfg.Menu)
	}
	if cfg.Upload.Timeout != 30*time.Second {
		t.Errorf("upload timeout default: %v", cfg.Upload.Timeout)
	}
	if cfg.Control.Addr != "127.0.0.1:8470" {
		t.Errorf("control addr default: %q", cfg.Control.Addr)
	}
	if len(cfg.Pages) != 1 || cfg.Pages[0].URL != "https://app.example.com" {
		t.Errorf("pages: %+v", cfg.Pages)
	}
	if cfg.Sinks[0].Retries != 3 {
		t.Errorf("sink retries default: %d", cfg.Sinks[0].Retries)
	}
}

func TestLoadFile_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("browser: [not a map"), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_DefaultsWhenEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Enabled || got.Theme != "light" {
		t.Errorf("defaults: %+v", got)
	}

	enabled, err := s.Enabled(ctx)
	if err != nil || !enabled {
		t.Errorf("Enabled: %v %v, want true on empty store", enabled, err)
	}
}

func TestStore_ApplyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := Settings{
		Enabled:               false,
		UploadEndpoint:        "https://files.example.com/upload",
		UploadAPIKey:          "sk_live",
		AssistantEndpoint:     "https://ai.example.com/refine",
		AssistantSystemPrompt: "be terse",
		CustomMenu:            `[{"type":"capture","label":"Grab"}]`,
		Theme:                 "dark",
	}
	if err := s.Apply(ctx, in); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != in {
		t.Errorf("round trip:\n got  %+v\n want %+v", got, in)
	}
}

func TestStore_SetEnabled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetEnabled(ctx, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	enabled, err := s.Enabled(ctx)
	if err != nil {
		t.Fatalf("Enabled: %v", err)
	}
	if enabled {
		t.Error("expected disabled")
	}
}

func TestStore_InvalidThemeIgnored(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyTheme, "hotdog"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Theme != "light" {
		t.Errorf("theme: %q, want fallback light", got.Theme)
	}
}

func TestWatcher_FiresOnExternalWrite(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := NewWatcher(s.DB(), WatcherOptions{Interval: 20 * time.Millisecond})

	fired := make(chan struct{}, 1)
	go w.OnChange(ctx, func() error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	})

	// Let the watcher seed its initial version before writing.
	time.Sleep(100 * time.Millisecond)

	// data_version only moves for changes made on other connections, so
	// write through a second handle.
	ext, err := OpenStore(s.Path())
	if err != nil {
		t.Fatalf("open second handle: %v", err)
	}
	defer ext.Close()
	if err := ext.SetEnabled(ctx, false); err != nil {
		t.Fatalf("external write: %v", err)
	}

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("watcher did not fire on external write")
	}
}
