package anyclick

import "github.com/anyclick/anyclick/internal/config"

// Re-exported configuration types so callers embedding anyclick do not
// import internal packages.
type (
	Config          = config.Config
	BrowserConfig   = config.BrowserConfig
	PageConfig      = config.PageConfig
	MenuConfig      = config.MenuConfig
	UploadConfig    = config.UploadConfig
	AssistantConfig = config.AssistantConfig
	SinkConfig      = config.SinkConfig
	ControlConfig   = config.ControlConfig
	Settings        = config.Settings
)

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}
