package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CULTURA_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY",
		"CULTURA_BASE_URL", "GEMINI_MODEL", "TELEGRAM_BOT_TOKEN", "CULTURA_PORT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Provider.Type != "gemini" {
		t.Errorf("provider type = %q, want gemini", cfg.Provider.Type)
	}
	if cfg.Models.Default != DefaultModel {
		t.Errorf("default model = %q, want %q", cfg.Models.Default, DefaultModel)
	}
	if len(cfg.Models.Roster) != 4 {
		t.Errorf("roster size = %d, want 4", len(cfg.Models.Roster))
	}
	if cfg.Models.Strategy != "tier" {
		t.Errorf("strategy = %q, want tier", cfg.Models.Strategy)
	}
	if cfg.Gateway.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Gateway.Port, DefaultPort)
	}
	if !cfg.Channels.Web.Enabled {
		t.Error("web channel should be enabled by default")
	}
	if cfg.Channels.Telegram.Enabled {
		t.Error("telegram channel should be disabled by default")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "models/gemini-2.0-flash")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("CULTURA_PORT", "9001")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("api key = %q, want test-key", cfg.Provider.APIKey)
	}
	if cfg.Models.Default != "models/gemini-2.0-flash" {
		t.Errorf("default model = %q", cfg.Models.Default)
	}
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.Token != "tg-token" {
		t.Errorf("telegram not enabled from env: %+v", cfg.Channels.Telegram)
	}
	if cfg.Gateway.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Gateway.Port)
	}
}

func TestLoadConfigAnthropicKeySwitchesProvider(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Provider.Type != "anthropic" {
		t.Errorf("provider type = %q, want anthropic", cfg.Provider.Type)
	}
	if cfg.Provider.APIKey != "sk-ant-test" {
		t.Errorf("api key = %q", cfg.Provider.APIKey)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.Provider.APIKey = "file-key"
	cfg.Gateway.Port = 7777
	data, _ := json.Marshal(cfg)
	if err := os.MkdirAll(filepath.Join(home, ".cultura"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".cultura", "config.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Provider.APIKey != "file-key" {
		t.Errorf("api key = %q, want file-key", loaded.Provider.APIKey)
	}
	if loaded.Gateway.Port != 7777 {
		t.Errorf("port = %d, want 7777", loaded.Gateway.Port)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing API key")
	}

	cfg.Provider.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Channels.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for telegram without token")
	}

	cfg.Channels.Telegram.Token = "tok"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
