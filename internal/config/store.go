package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// Schema for the settings table.
const Schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Settings keys persisted in the store.
const (
	KeyEnabled               = "enabled"
	KeyUploadEndpoint        = "upload_endpoint"
	KeyUploadAPIKey          = "upload_api_key"
	KeyAssistantEndpoint     = "assistant_endpoint"
	KeyAssistantSystemPrompt = "assistant_system_prompt"
	KeyCustomMenu            = "custom_menu"
	KeyTheme                 = "theme"
)

// Settings is a point-in-time snapshot of the runtime settings.
type Settings struct {
	Enabled               bool   `json:"enabled"`
	UploadEndpoint        string `json:"upload_endpoint"`
	UploadAPIKey          string `json:"upload_api_key"`
	AssistantEndpoint     string `json:"assistant_endpoint"`
	AssistantSystemPrompt string `json:"assistant_system_prompt"`
	CustomMenu            string `json:"custom_menu"` // JSON item tree, empty = default menu
	Theme                 string `json:"theme"`
}

// Store persists runtime settings in SQLite so external processes can
// flip them and the session reacts via the change watcher.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the settings database with WAL
// and busy-timeout pragmas applied.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("config: open settings db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("config: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("config: apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying handle for the change watcher.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Load reads the full settings snapshot. Missing keys take zero values
// except Enabled and Theme, which default to true and "light".
func (s *Store) Load(ctx context.Context) (Settings, error) {
	out := Settings{Enabled: true, Theme: "light"}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return out, fmt.Errorf("config: load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return out, fmt.Errorf("config: scan setting: %w", err)
		}
		switch k {
		case KeyEnabled:
			out.Enabled = v == "true" || v == "1"
		case KeyUploadEndpoint:
			out.UploadEndpoint = v
		case KeyUploadAPIKey:
			out.UploadAPIKey = v
		case KeyAssistantEndpoint:
			out.AssistantEndpoint = v
		case KeyAssistantSystemPrompt:
			out.AssistantSystemPrompt = v
		case KeyCustomMenu:
			out.CustomMenu = v
		case KeyTheme:
			if v == "light" || v == "dark" {
				out.Theme = v
			}
		}
	}
	return out, rows.Err()
}

// Set writes one key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("config: set %s: %w", key, err)
	}
	return nil
}

// SetEnabled flips the master switch.
func (s *Store) SetEnabled(ctx context.Context, enabled bool) error {
	return s.Set(ctx, KeyEnabled, strconv.FormatBool(enabled))
}

// Enabled reads the master switch. Missing key means enabled.
func (s *Store) Enabled(ctx context.Context) (bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, KeyEnabled).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("config: read enabled: %w", err)
	}
	return v == "true" || v == "1", nil
}

// Apply writes a full snapshot in one transaction.
func (s *Store) Apply(ctx context.Context, in Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("config: begin apply: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	pairs := map[string]string{
		KeyEnabled:               strconv.FormatBool(in.Enabled),
		KeyUploadEndpoint:        in.UploadEndpoint,
		KeyUploadAPIKey:          in.UploadAPIKey,
		KeyAssistantEndpoint:     in.AssistantEndpoint,
		KeyAssistantSystemPrompt: in.AssistantSystemPrompt,
		KeyCustomMenu:            in.CustomMenu,
		KeyTheme:                 in.Theme,
	}
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, k, v, now); err != nil {
			return fmt.Errorf("config: apply %s: %w", k, err)
		}
	}
	return tx.Commit()
}
