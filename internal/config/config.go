package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName is used for config, state and keyring locations
const AppName = "lazychart"

// Config holds all application configuration
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	UI      UIConfig      `mapstructure:"ui"`
	Data    DataConfig    `mapstructure:"data"`
	Backend BackendConfig `mapstructure:"backend"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
}

type GeneralConfig struct {
	QueryFile   string `mapstructure:"query_file"`
	WatchQuery  bool   `mapstructure:"watch_query"`
	ReloadDelay int    `mapstructure:"reload_delay"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
	PanelHeight  int    `mapstructure:"panel_height"`
}

type DataConfig struct {
	PageSize              int  `mapstructure:"page_size"`
	MaxCellDisplayLength  int  `mapstructure:"max_cell_display_length"`
	DiscardStaleResponses bool `mapstructure:"discard_stale_responses"`
}

type BackendConfig struct {
	URL      string `mapstructure:"url"`
	Timeout  int    `mapstructure:"timeout"`
	Username string `mapstructure:"username"`
}

type StorageConfig struct {
	Path              string `mapstructure:"path"`
	HistoryEnabled    bool   `mapstructure:"history_enabled"`
	HistoryMaxEntries int    `mapstructure:"history_max_entries"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	Driver          string `mapstructure:"driver"`
	DSN             string `mapstructure:"dsn"`
	DefaultRowLimit int    `mapstructure:"default_row_limit"`
	SamplesRowLimit int    `mapstructure:"samples_row_limit"`
	AuthToken       string `mapstructure:"auth_token"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			QueryFile:   "query.yaml",
			WatchQuery:  true,
			ReloadDelay: 200,
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: false,
			PanelHeight:  20,
		},
		Data: DataConfig{
			PageSize:              50,
			MaxCellDisplayLength:  40,
			DiscardStaleResponses: true,
		},
		Backend: BackendConfig{
			URL:     "http://localhost:8088",
			Timeout: 30000,
		},
		Storage: StorageConfig{
			HistoryEnabled:    true,
			HistoryMaxEntries: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:            ":8088",
			Driver:          "sqlite3",
			DSN:             "examples.db",
			DefaultRowLimit: 10000,
			SamplesRowLimit: 1000,
		},
	}
}

// Load loads configuration from files. An explicit path takes precedence over
// the search locations.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}

		// 2. Current directory
		v.AddConfigPath(".")

		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LAZYCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := GetDefaults()
	v.SetDefault("general.query_file", d.General.QueryFile)
	v.SetDefault("general.watch_query", d.General.WatchQuery)
	v.SetDefault("general.reload_delay", d.General.ReloadDelay)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.panel_height", d.UI.PanelHeight)
	v.SetDefault("data.page_size", d.Data.PageSize)
	v.SetDefault("data.max_cell_display_length", d.Data.MaxCellDisplayLength)
	v.SetDefault("data.discard_stale_responses", d.Data.DiscardStaleResponses)
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("backend.username", d.Backend.Username)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.history_enabled", d.Storage.HistoryEnabled)
	v.SetDefault("storage.history_max_entries", d.Storage.HistoryMaxEntries)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.driver", d.Server.Driver)
	v.SetDefault("server.dsn", d.Server.DSN)
	v.SetDefault("server.default_row_limit", d.Server.DefaultRowLimit)
	v.SetDefault("server.samples_row_limit", d.Server.SamplesRowLimit)
	v.SetDefault("server.auth_token", d.Server.AuthToken)

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fillPaths resolves state and log locations that were left empty
func (c *Config) fillPaths() error {
	if c.Storage.Path != "" && c.Log.Path != "" {
		return nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("error resolving config directory: %w", err)
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(dir, "state.db")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "lazychart.log")
	}
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
