package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the YAML shape of the configuration file.
type Settings struct {
	Version       int    `yaml:"version" json:"version"`
	Upstream      string `yaml:"upstream" json:"upstream"`
	ProxyAddr     string `yaml:"proxy_addr" json:"proxy_addr"`
	DashboardAddr string `yaml:"dashboard_addr" json:"dashboard_addr"`
	Database      string `yaml:"database" json:"database"`
	PageSize      int    `yaml:"page_size" json:"page_size"`

	// ExcludePaths extends (does not replace) the built-in exclusion
	// prefixes.
	ExcludePaths []string `yaml:"exclude_paths,omitempty" json:"exclude_paths,omitempty"`

	// PrincipalHeader names the request header carrying the authenticated
	// username, typically set by an auth proxy in front.
	PrincipalHeader string `yaml:"principal_header,omitempty" json:"principal_header,omitempty"`
}

// Config is the resolved runtime configuration. The exclusion list is fully
// merged here, once, so nothing downstream consults mutable global state.
type Config struct {
	Upstream        string
	ProxyAddr       string
	DashboardAddr   string
	Database        string
	PageSize        int
	RecentLimit     int
	ExcludedPaths   []string
	PrincipalHeader string
}

// Load reads a YAML settings file and produces a runtime Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses YAML data and produces a runtime Config.
func LoadBytes(data []byte) (*Config, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return fromSettings(&s)
}

func fromSettings(s *Settings) (*Config, error) {
	cfg := &Config{
		Upstream:        s.Upstream,
		ProxyAddr:       s.ProxyAddr,
		DashboardAddr:   s.DashboardAddr,
		Database:        s.Database,
		PageSize:        s.PageSize,
		RecentLimit:     DefaultRecentLimit,
		PrincipalHeader: s.PrincipalHeader,
	}

	if cfg.ProxyAddr == "" {
		cfg.ProxyAddr = DefaultProxyAddr
	}
	if cfg.DashboardAddr == "" {
		cfg.DashboardAddr = DefaultDashboardAddr
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabasePath()
	}
	cfg.Database = expandHome(cfg.Database)
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	cfg.ExcludedPaths = append(DefaultExcludedPaths(), s.ExcludePaths...)

	return cfg, nil
}

// DefaultConfig returns a config with defaults for when no config file is
// given.
func DefaultConfig() *Config {
	cfg, _ := fromSettings(&Settings{Version: 1})
	return cfg
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
