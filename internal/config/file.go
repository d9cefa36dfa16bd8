// Package config handles anyclick configuration from YAML files plus a
// SQLite settings store for the keys that change at runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level anyclick configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Pages     []PageConfig    `yaml:"pages"`
	Menu      MenuConfig      `yaml:"menu"`
	Upload    UploadConfig    `yaml:"upload"`
	Assistant AssistantConfig `yaml:"assistant"`
	Sinks     []SinkConfig    `yaml:"sinks"`
	Control   ControlConfig   `yaml:"control"`
	Settings  SettingsConfig  `yaml:"settings"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote          string        `yaml:"remote"`
	MemoryLimit     int64         `yaml:"memory_limit"`
	RecycleInterval time.Duration `yaml:"recycle_interval"`
	Stealth         string        `yaml:"stealth"` // headless | headful
	XvfbDisplay     string        `yaml:"xvfb_display"`
}

// PageConfig defines a page to attach the agent to at startup.
type PageConfig struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// MenuConfig controls menu appearance and gesture tuning.
type MenuConfig struct {
	Theme string `yaml:"theme"` // light | dark

	// TouchWindow suppresses the synthetic contextmenu Chrome fires
	// after a long-press, so touch scrolling does not open the menu.
	TouchWindow time.Duration `yaml:"touch_window"`
}

// UploadConfig targets the image upload endpoint.
type UploadConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AssistantConfig targets the prompt-refinement endpoint.
type AssistantConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// SinkConfig defines an output backend for captures.
type SinkConfig struct {
	Type    string `yaml:"type"` // stdout | webhook
	URL     string `yaml:"url"`  // for webhook
	Token   string `yaml:"token"`
	Retries int    `yaml:"retries"`
}

// ControlConfig exposes the local HTTP control API.
type ControlConfig struct {
	Addr string `yaml:"addr"`
	// TokenHash is a bcrypt hash of the bearer token. Empty disables
	// auth (local development only).
	TokenHash string `yaml:"token_hash"`
}

// SettingsConfig locates the runtime settings database.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Menu.Theme == "" {
		c.Menu.Theme = "light"
	}
	if c.Menu.TouchWindow <= 0 {
		c.Menu.TouchWindow = 500 * time.Millisecond
	}
	if c.Upload.Timeout <= 0 {
		c.Upload.Timeout = 30 * time.Second
	}
	if c.Assistant.Timeout <= 0 {
		c.Assistant.Timeout = 20 * time.Second
	}
	if c.Control.Addr == "" {
		c.Control.Addr = "127.0.0.1:8470"
	}
	for i := range c.Sinks {
		if c.Sinks[i].Retries <= 0 {
			c.Sinks[i].Retries = 3
		}
	}
}
