package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	UI     UIConfig
	Store  StoreConfig
	Log    LogConfig
}

// ServerConfig points at the push server's REST API.
type ServerConfig struct {
	URL            string
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// AuthConfig holds identity provider settings.
type AuthConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Realm     string
	Referrer  string
	TokenEnv  string `mapstructure:"token_env"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	PageSize   int    `mapstructure:"page_size"`
	DateFormat string `mapstructure:"date_format"`
}

// StoreConfig holds sqlite settings.
type StoreConfig struct {
	Path string
}

// LogConfig holds log file settings.
type LogConfig struct {
	Path  string
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix UPSCONSOLE_.
func Load() (Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration into v, which may already carry bound flags.
func LoadWith(v *viper.Viper) (Config, error) {
	home := os.Getenv("HOME")

	v.SetDefault("server.url", "http://localhost:8080/ag-push")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("auth.server_url", "http://localhost:8080/auth")
	v.SetDefault("auth.realm", "aerogear")
	v.SetDefault("auth.referrer", "unified-push-server-js")
	v.SetDefault("auth.token_env", "UPSCONSOLE_TOKEN")
	v.SetDefault("ui.page_size", 8)
	v.SetDefault("ui.date_format", "2006-01-02 15:04")
	v.SetDefault("store.path", filepath.Join(home, ".local", "share", "upsconsole", "upsconsole.db"))
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "upsconsole", "upsconsole.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("UPSCONSOLE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "upsconsole"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("UPSCONSOLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the console cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("config: server.url is required")
	}
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("config: ui.page_size must be positive, got %d", c.UI.PageSize)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("config: server.request_timeout must be positive")
	}
	return nil
}

// Path is the config file Load reads and Save writes.
func Path() string {
	if p := os.Getenv("UPSCONSOLE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "upsconsole", "config.toml")
}

// Save writes the provided config to Path, creating the directory if needed.
// `upsconsole config init` uses it to write out the effective settings.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.request_timeout", cfg.Server.RequestTimeout.String())
	v.Set("auth.server_url", cfg.Auth.ServerURL)
	v.Set("auth.realm", cfg.Auth.Realm)
	v.Set("auth.referrer", cfg.Auth.Referrer)
	v.Set("auth.token_env", cfg.Auth.TokenEnv)
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("store.path", cfg.Store.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
