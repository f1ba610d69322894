// Package config loads the langsync configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Repos     ReposConfig     `toml:"repos"`
	Languages LanguagesConfig `toml:"languages"`
	Log       LogConfig       `toml:"log"`
	Notify    NotifyConfig    `toml:"notify"`
	Auth      AuthConfig      `toml:"auth"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite3 or mysql
	DSN    string `toml:"dsn"`
}

// ReposConfig locates the component checkouts.
type ReposConfig struct {
	Root string `toml:"root"`
}

// LanguagesConfig optionally overrides the built-in language catalog.
type LanguagesConfig struct {
	File string `toml:"file"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// NotifyConfig selects the notification backend.
type NotifyConfig struct {
	Backend string `toml:"backend"` // log, or kafka (kafka also logs)
	Brokers string `toml:"brokers"` // kafka bootstrap.servers
	Topic   string `toml:"topic"`
}

// AuthConfig holds the static role grants.
type AuthConfig struct {
	Superusers  []string            `toml:"superusers"`
	DefaultAdd  bool                `toml:"default_add"`
	Admins      map[string][]string `toml:"admins"`
	Translators map[string][]string `toml:"translators"`
}

// Duration wraps time.Duration for TOML parsing.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	cfg.applyEnvOverrides()

	return &cfg, nil
}

// LoadFromEnv loads the file named by LANGSYNC_CONFIG, trying the usual
// locations when it is unset. With no file anywhere the defaults apply.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("LANGSYNC_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./langsync.toml",
			"./configs/langsync.toml",
			filepath.Join(os.Getenv("HOME"), ".config/langsync/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.expandEnvVars()
	cfg.applyEnvOverrides()
	return cfg
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 60 * time.Second
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 10 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./data/langsync.db"
	}

	if c.Repos.Root == "" {
		c.Repos.Root = "./repos"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Notify.Backend == "" {
		c.Notify.Backend = "log"
	}
	if c.Notify.Topic == "" {
		c.Notify.Topic = "langsync.events"
	}
}

// expandEnvVars expands environment variables in path-like values
func (c *Config) expandEnvVars() {
	c.Database.DSN = os.ExpandEnv(c.Database.DSN)
	c.Repos.Root = os.ExpandEnv(c.Repos.Root)
	c.Languages.File = os.ExpandEnv(c.Languages.File)
	c.Notify.Brokers = os.ExpandEnv(c.Notify.Brokers)
}

// applyEnvOverrides applies the settings deployments set per environment
// rather than in the shared config file.
func (c *Config) applyEnvOverrides() {
	c.Auth.Superusers = GetEnvList("LANGSYNC_SUPERUSERS", c.Auth.Superusers)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
