package config

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"
)

// Watcher polls the settings database and runs an action when its
// PRAGMA data_version advances, so sessions react to settings written
// by other processes without a restart.
type Watcher struct {
	db      *sql.DB
	logger  *slog.Logger
	version atomic.Int64

	interval time.Duration
	debounce time.Duration
}

// WatcherOptions tunes the polling loop.
type WatcherOptions struct {
	// Interval is the polling frequency. Default: 1s.
	Interval time.Duration
	// Debounce is the quiet period after a change before the action
	// fires; further changes reset the timer. 0 fires immediately.
	Debounce time.Duration
	Logger   *slog.Logger
}

// NewWatcher creates a Watcher over the store's database.
func NewWatcher(db *sql.DB, opts WatcherOptions) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		db:       db,
		logger:   opts.Logger,
		interval: opts.Interval,
		debounce: opts.Debounce,
	}
}

func (w *Watcher) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	err := w.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}

// OnChange blocks until ctx is cancelled, polling at the configured
// interval. If the action returns an error the version is not advanced
// and the action retries on the next detected change.
func (w *Watcher) OnChange(ctx context.Context, action func() error) {
	if v, err := w.dataVersion(ctx); err != nil {
		w.logger.Warn("config: initial version check failed", "error", err)
	} else {
		w.version.Store(v)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	pending := int64(-1)

	w.logger.Info("config: settings watcher started",
		"interval", w.interval, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.logger.Info("config: settings watcher stopped")
			return

		case <-ticker.C:
			cur, err := w.dataVersion(ctx)
			if err != nil {
				w.logger.Warn("config: version check failed", "error", err)
				continue
			}
			if cur == w.version.Load() || cur == pending {
				continue
			}
			pending = cur
			if w.debounce <= 0 {
				w.fire(action, pending)
				pending = -1
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			if pending >= 0 {
				w.fire(action, pending)
				pending = -1
			}
		}
	}
}

func (w *Watcher) fire(action func() error, ver int64) {
	if err := action(); err != nil {
		w.logger.Warn("config: settings reload failed", "error", err)
		return
	}
	w.version.Store(ver)
	w.logger.Debug("config: settings reloaded", "version", ver)
}
