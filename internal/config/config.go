package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Search  Search  `yaml:"search"`
	Fetch   Fetch   `yaml:"fetch"`
	Analyze Analyze `yaml:"analyze"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Search struct {
	// FeedTemplate is the search-result feed URL with one %s keyword slot.
	FeedTemplate string `yaml:"feed_template"`
}

type Fetch struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Concurrency    int    `yaml:"concurrency"`
	DelayMS        int    `yaml:"delay_ms"`
	UserAgent      string `yaml:"user_agent"`
}

type Analyze struct {
	TopN int `yaml:"top_n"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for toppost.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "toppost")
}

// DataDir returns the XDG data directory for toppost.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "toppost")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/toppost/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'toppost init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Search: Search{
			FeedTemplate: "https://www.bing.com/search?q=%s&format=rss",
		},
		Fetch: Fetch{
			TimeoutSeconds: 15,
			Concurrency:    2,
			DelayMS:        1000,
			UserAgent:      "toppost/1.0 (blog post analyzer)",
		},
		Analyze: Analyze{TopN: 3},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FetchDelay returns the mandatory inter-request delay as a duration.
func (c *Config) FetchDelay() time.Duration {
	if c.Fetch.DelayMS <= 0 {
		return time.Second
	}
	return time.Duration(c.Fetch.DelayMS) * time.Millisecond
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
