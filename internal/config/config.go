package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Providers   map[string]ProviderConfig `yaml:"providers"`
	Benchmark   BenchmarkConfig           `yaml:"benchmark"`
	Results     ResultsConfig             `yaml:"results"`
	Leaderboard LeaderboardConfig         `yaml:"leaderboard"`
	Server      ServerConfig              `yaml:"server"`
}

// ProviderConfig configures one provider and the models exposed through it.
type ProviderConfig struct {
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url,omitempty"`
	Models  []string `yaml:"models,omitempty"`
	Enabled *bool    `yaml:"enabled,omitempty"` // nil means enabled
}

type BenchmarkConfig struct {
	Concurrency int           `yaml:"concurrency,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty"`
}

type ResultsConfig struct {
	MaxRuns int           `yaml:"max_runs,omitempty"`
	TTL     time.Duration `yaml:"ttl,omitempty"`
}

type LeaderboardConfig struct {
	DBPath   string        `yaml:"db_path,omitempty"`
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DefaultAnthropicModels and DefaultOpenAIModels are registered for a
// provider whose config names no models.
var (
	DefaultAnthropicModels = []string{
		"claude-3-opus-20240229",
		"claude-3-sonnet-20240229",
		"claude-3-haiku-20240307",
		"claude-2.1",
	}
	DefaultOpenAIModels = []string{
		"gpt-4",
		"gpt-4-turbo",
		"gpt-3.5-turbo",
		"gpt-3.5-turbo-16k",
	}
)

// Load reads a yaml config file and overlays provider API keys from the
// environment (ANTHROPIC_API_KEY, OPENAI_API_KEY). A missing file is not
// an error when the path is the default: env-only setups are valid.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	usingDefault := path == ""
	if usingDefault {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err) && usingDefault:
		// Fall through with an empty config.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.Providers["anthropic"]
		p.APIKey = v
		cfg.Providers["anthropic"] = p
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.Providers["openai"]
		p.APIKey = v
		cfg.Providers["openai"] = p
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c == nil {
		return
	}
	if c.Benchmark.Concurrency <= 0 {
		c.Benchmark.Concurrency = 4
	}
	if c.Benchmark.Timeout <= 0 {
		c.Benchmark.Timeout = 60 * time.Second
	}
	if c.Results.MaxRuns <= 0 {
		c.Results.MaxRuns = 256
	}
	if strings.TrimSpace(c.Leaderboard.DBPath) == "" {
		c.Leaderboard.DBPath = "data/leaderboard.db"
	}
	if c.Leaderboard.CacheTTL <= 0 {
		c.Leaderboard.CacheTTL = 5 * time.Minute
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8080"
	}
}

// ProviderEnabled reports whether a provider block is active.
func (p ProviderConfig) ProviderEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}
