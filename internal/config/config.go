// Package config loads prosodify settings from a config file, the
// environment and flags through viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"github.com/prosodify/prosodify/internal/azure"
	"github.com/prosodify/prosodify/internal/storage"
	"github.com/prosodify/prosodify/internal/voicecache"
	"github.com/prosodify/prosodify/internal/voicesource"
)

// Config contains every prosodify setting.
type Config struct {
	// Voices API
	Endpoint   string `yaml:"endpoint"`
	VoicesPath string `yaml:"voices_path"`
	StylesPath string `yaml:"styles_path"`

	// Voice cache
	CacheDuration      time.Duration `yaml:"cache_duration"`
	SchemaVersion      string        `yaml:"schema_version"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	MinRefreshInterval time.Duration `yaml:"min_refresh_interval"`

	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects where the voice cache persists its snapshot.
type StorageConfig struct {
	Backend          string     `yaml:"backend"`
	Dir              string     `yaml:"dir"`
	CompressionLevel int        `yaml:"compression_level"`
	NATS             NATSConfig `yaml:"nats"`
}

// NATSConfig configures the NATS storage backend.
type NATSConfig struct {
	URL    string `yaml:"url"`
	Bucket string `yaml:"bucket"`
}

// ServerConfig configures prosodify serve.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	LocalePrefix string        `yaml:"locale_prefix"`
	VoiceType    string        `yaml:"voice_type"`
	Azure        AzureConfig   `yaml:"azure"`
}

// AzureConfig holds the Azure Speech credentials.
type AzureConfig struct {
	Key    string `yaml:"key"`
	Region string `yaml:"region"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

var validBackends = []string{
	storage.BackendDisk,
	storage.BackendMemory,
	storage.BackendNATS,
	storage.BackendNone,
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Endpoint:           "http://localhost:3000",
		VoicesPath:         voicesource.DefaultVoicesPath,
		StylesPath:         voicesource.DefaultStylesPath,
		CacheDuration:      voicecache.DefaultCacheDuration,
		SchemaVersion:      voicecache.DefaultVersion,
		FetchTimeout:       voicecache.DefaultFetchTimeout,
		MinRefreshInterval: 0,
		Storage: StorageConfig{
			Backend:          storage.BackendDisk,
			CompressionLevel: 3,
			NATS: NATSConfig{
				URL:    "nats://127.0.0.1:4222",
				Bucket: "prosodify",
			},
		},
		Server: ServerConfig{
			Addr:         ":3000",
			CacheTTL:     time.Hour,
			LocalePrefix: azure.DefaultFilter.LocalePrefix,
			VoiceType:    azure.DefaultFilter.VoiceType,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks the configuration and normalizes case-insensitive values.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.CacheDuration <= 0 {
		return fmt.Errorf("cache_duration must be positive, got %s", c.CacheDuration)
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("schema_version must not be empty")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative, got %s", c.FetchTimeout)
	}
	if c.MinRefreshInterval < 0 {
		return fmt.Errorf("min_refresh_interval must not be negative, got %s", c.MinRefreshInterval)
	}

	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if !slices.Contains(validBackends, c.Storage.Backend) {
		return fmt.Errorf("invalid storage backend '%s': must be one of %v", c.Storage.Backend, validBackends)
	}
	if c.Storage.CompressionLevel < 0 || c.Storage.CompressionLevel > 22 {
		return fmt.Errorf("compression_level must be between 0 and 22, got %d", c.Storage.CompressionLevel)
	}
	if c.Storage.Backend == storage.BackendNATS {
		if c.Storage.NATS.URL == "" || c.Storage.NATS.Bucket == "" {
			return fmt.Errorf("nats storage needs storage.nats.url and storage.nats.bucket")
		}
	}
	if c.Storage.Dir != "" {
		dir, err := homedir.Expand(c.Storage.Dir)
		if err != nil {
			return fmt.Errorf("invalid storage dir: %w", err)
		}
		c.Storage.Dir = dir
	}

	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("server.cache_ttl must not be negative, got %s", c.Server.CacheTTL)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.Log.Level, err)
	}
	return nil
}

// StorageOptions returns the settings storage.Open expects.
func (c Config) StorageOptions() storage.Config {
	return storage.Config{
		Backend:          c.Storage.Backend,
		Dir:              c.Storage.Dir,
		CompressionLevel: c.Storage.CompressionLevel,
		NATSURL:          c.Storage.NATS.URL,
		NATSBucket:       c.Storage.NATS.Bucket,
	}
}

// Filter returns the voice filter prosodify serve applies.
func (c Config) Filter() azure.Filter {
	return azure.Filter{
		LocalePrefix: c.Server.LocalePrefix,
		VoiceType:    c.Server.VoiceType,
	}
}
