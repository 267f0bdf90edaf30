package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultProvider       = "gemini"
	DefaultModel          = "models/gemini-1.5-flash"
	DefaultStrategy       = "tier"
	DefaultMaxTokens      = 1024
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8990
	DefaultBufSize        = 100
	DefaultGeoBaseURL     = "https://nominatim.openstreetmap.org/search"
	DefaultGeoUserAgent   = "Cultura/1.0 (contact@culturalabs.dev)"
	DefaultGeoTimeoutSecs = 10
	DefaultCacheEntries   = 256
	DefaultWebUserID      = "web_user"
)

// DefaultRoster is the fixed ordered list of completion models the service
// may select among. The random selection mode picks uniformly from this list.
var DefaultRoster = []string{
	"models/gemini-1.5-flash",
	"models/gemini-1.5-flash-8b",
	"models/gemini-2.0-flash",
	"models/gemini-2.5-flash",
}

type Config struct {
	Provider ProviderConfig `json:"provider"`
	Models   ModelsConfig   `json:"models"`
	Channels ChannelsConfig `json:"channels"`
	Gateway  GatewayConfig  `json:"gateway"`
	Geo      GeoConfig      `json:"geo"`
	Cache    CacheConfig    `json:"cache"`
}

type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "gemini" (default) or "anthropic"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

type ModelsConfig struct {
	Default   string   `json:"default"`
	Roster    []string `json:"roster,omitempty"`
	Strategy  string   `json:"strategy,omitempty"` // "tier", "random" or "weighted"
	MaxTokens int      `json:"maxTokens,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Web      WebConfig      `json:"web"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom,omitempty"`
	Proxy     string   `json:"proxy,omitempty"`
}

type WebConfig struct {
	Enabled bool `json:"enabled"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type GeoConfig struct {
	BaseURL     string `json:"baseUrl"`
	UserAgent   string `json:"userAgent"`
	TimeoutSecs int    `json:"timeoutSecs"`
}

type CacheConfig struct {
	LocationEntries       int `json:"locationEntries"`
	ClassificationEntries int `json:"classificationEntries"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{Type: DefaultProvider},
		Models: ModelsConfig{
			Default:   DefaultModel,
			Roster:    append([]string(nil), DefaultRoster...),
			Strategy:  DefaultStrategy,
			MaxTokens: DefaultMaxTokens,
		},
		Channels: ChannelsConfig{
			Web: WebConfig{Enabled: true},
		},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Geo: GeoConfig{
			BaseURL:     DefaultGeoBaseURL,
			UserAgent:   DefaultGeoUserAgent,
			TimeoutSecs: DefaultGeoTimeoutSecs,
		},
		Cache: CacheConfig{
			LocationEntries:       DefaultCacheEntries,
			ClassificationEntries: DefaultCacheEntries,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".cultura")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	// A .env in the working directory is honored the same way the original
	// deployment sourced its credentials.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if key := os.Getenv("CULTURA_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" || cfg.Provider.Type == DefaultProvider {
			cfg.Provider.Type = "anthropic"
		}
	}
	if url := os.Getenv("CULTURA_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Models.Default = model
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
		cfg.Channels.Telegram.Enabled = true
	}
	if port := os.Getenv("CULTURA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Gateway.Port = p
		}
	}

	if len(cfg.Models.Roster) == 0 {
		cfg.Models.Roster = append([]string(nil), DefaultRoster...)
	}
	if cfg.Models.Default == "" {
		cfg.Models.Default = cfg.Models.Roster[0]
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = DefaultProvider
	}

	return cfg, nil
}

// Validate checks the startup-fatal conditions. A missing completion API key
// means no request can be served at all.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("completion API key not set: set GEMINI_API_KEY (or CULTURA_API_KEY) or provider.apiKey in %s", ConfigPath())
	}
	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		return fmt.Errorf("telegram channel enabled but no token: set TELEGRAM_BOT_TOKEN or channels.telegram.token")
	}
	return nil
}
