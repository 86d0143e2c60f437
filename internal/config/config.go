package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Remote kinds
const (
	RemoteHTTP = "http"
	RemoteDir  = "dir"
)

// Config is the tmplstudio configuration file
type Config struct {
	Scope   ScopeConfig   `yaml:"scope"`
	Remote  RemoteConfig  `yaml:"remote"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScopeConfig is the default account/org/project scope
type ScopeConfig struct {
	Account string `yaml:"account"`
	Org     string `yaml:"org,omitempty"`
	Project string `yaml:"project,omitempty"`
}

// RemoteConfig selects and configures the template source
type RemoteConfig struct {
	Kind    string `yaml:"kind"` // http, dir
	BaseURL string `yaml:"baseURL,omitempty"`
	APIKey  string `yaml:"apiKey,omitempty"`
	Timeout string `yaml:"timeout"`
	Dir     string `yaml:"dir,omitempty"`
}

// CacheConfig configures the local edit cache
type CacheConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Scope: ScopeConfig{
			Account: "default",
		},
		Remote: RemoteConfig{
			Kind:    RemoteDir,
			Timeout: "30s",
			Dir:     "templates",
		},
		Cache: CacheConfig{
			Path: filepath.Join(".tmplstudio", "cache.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("TMPLSTUDIO_API_KEY"); key != "" {
		c.Remote.APIKey = key
	}
	if url := os.Getenv("TMPLSTUDIO_BASE_URL"); url != "" {
		c.Remote.BaseURL = url
		c.Remote.Kind = RemoteHTTP
	}
	if path := os.Getenv("TMPLSTUDIO_CACHE"); path != "" {
		c.Cache.Path = path
	}
	if account := os.Getenv("TMPLSTUDIO_ACCOUNT"); account != "" {
		c.Scope.Account = account
	}
	if level := os.Getenv("TMPLSTUDIO_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for values the studio cannot run with
func (c *Config) Validate() error {
	if c.Scope.Account == "" {
		return fmt.Errorf("scope.account is required (set TMPLSTUDIO_ACCOUNT)")
	}
	if c.Scope.Project != "" && c.Scope.Org == "" {
		return fmt.Errorf("scope.project %q requires scope.org", c.Scope.Project)
	}

	switch c.Remote.Kind {
	case RemoteHTTP:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote.baseURL is required for the http remote (set TMPLSTUDIO_BASE_URL)")
		}
	case RemoteDir:
		if c.Remote.Dir == "" {
			return fmt.Errorf("remote.dir is required for the dir remote")
		}
	default:
		return fmt.Errorf("invalid remote kind: %s (valid: %s, %s)", c.Remote.Kind, RemoteHTTP, RemoteDir)
	}

	if _, err := c.Timeout(); err != nil {
		return err
	}

	if !c.Cache.Disabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required unless the cache is disabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	return nil
}

// Timeout parses the remote request timeout
func (c *Config) Timeout() (time.Duration, error) {
	if c.Remote.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid remote.timeout %q: %w", c.Remote.Timeout, err)
	}
	return d, nil
}
