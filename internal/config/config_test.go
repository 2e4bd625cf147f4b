package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
			t.Fatalf("Failed to read config: %v", err)
		}
	}
	return v
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.CacheDuration != 24*time.Hour {
		t.Errorf("CacheDuration = %s, want 24h", cfg.CacheDuration)
	}
	if cfg.SchemaVersion != "1.1" {
		t.Errorf("SchemaVersion = %q, want 1.1", cfg.SchemaVersion)
	}
}

func TestLoadFromViper(t *testing.T) {
	v := newViper(t, `
endpoint: https://voices.example.com
cache_duration: 2h
fetch_timeout: 5s
min_refresh_interval: 1m
storage:
  backend: NATS
  nats:
    url: nats://nats:4222
    bucket: voices
server:
  addr: ":8080"
  locale_prefix: de-
log:
  level: debug
`)

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatalf("LoadFromViper failed: %v", err)
	}

	if cfg.Endpoint != "https://voices.example.com" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.CacheDuration != 2*time.Hour {
		t.Errorf("CacheDuration = %s", cfg.CacheDuration)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %s", cfg.FetchTimeout)
	}
	if cfg.MinRefreshInterval != time.Minute {
		t.Errorf("MinRefreshInterval = %s", cfg.MinRefreshInterval)
	}
	if cfg.Storage.Backend != "nats" {
		t.Errorf("Storage.Backend = %q, want normalized nats", cfg.Storage.Backend)
	}
	if cfg.Storage.NATS.Bucket != "voices" {
		t.Errorf("Storage.NATS.Bucket = %q", cfg.Storage.NATS.Bucket)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.LocalePrefix != "de-" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.VoiceType != "Neural" {
		t.Errorf("Server.VoiceType = %q, want default Neural", cfg.Server.VoiceType)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}

	so := cfg.StorageOptions()
	if so.Backend != "nats" || so.NATSURL != "nats://nats:4222" {
		t.Errorf("StorageOptions = %+v", so)
	}
	if f := cfg.Filter(); f.LocalePrefix != "de-" || f.VoiceType != "Neural" {
		t.Errorf("Filter = %+v", f)
	}
}

func TestLoadFromViperEnv(t *testing.T) {
	t.Setenv("PROSODIFY_STORAGE_BACKEND", "memory")
	t.Setenv("PROSODIFY_CACHE_DURATION", "90m")
	t.Setenv("AZURE_SPEECH_KEY", "secret")
	t.Setenv("AZURE_SPEECH_REGION", "westeurope")

	cfg, err := LoadFromViper(newViper(t, ""))
	if err != nil {
		t.Fatalf("LoadFromViper failed: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.CacheDuration != 90*time.Minute {
		t.Errorf("CacheDuration = %s, want 90m", cfg.CacheDuration)
	}
	if cfg.Server.Azure.Key != "secret" || cfg.Server.Azure.Region != "westeurope" {
		t.Errorf("Server.Azure = %+v", cfg.Server.Azure)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }},
		{"zero cache duration", func(c *Config) { c.CacheDuration = 0 }},
		{"empty schema version", func(c *Config) { c.SchemaVersion = "" }},
		{"negative fetch timeout", func(c *Config) { c.FetchTimeout = -time.Second }},
		{"negative refresh interval", func(c *Config) { c.MinRefreshInterval = -time.Second }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"compression too high", func(c *Config) { c.Storage.CompressionLevel = 23 }},
		{"nats without url", func(c *Config) {
			c.Storage.Backend = "nats"
			c.Storage.NATS.URL = ""
		}},
		{"negative server ttl", func(c *Config) { c.Server.CacheTTL = -time.Second }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidateExpandsHome(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := DefaultConfig()
	cfg.Storage.Dir = "~/voices"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if want := filepath.Join(home, "voices"); cfg.Storage.Dir != want {
		t.Errorf("Storage.Dir = %q, want %q", cfg.Storage.Dir, want)
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prosodify.yml")
	if err := os.WriteFile(path, []byte("cache_duration: 1h\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	changed := make(chan Config, 4)
	Watch(v, log.New(io.Discard), func(c Config) { changed <- c })

	if err := os.WriteFile(path, []byte("cache_duration: 3h\n"), 0o600); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.CacheDuration == 3*time.Hour {
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for config reload")
		}
	}
}
