package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PROSODIFY_ENDPOINT.
const EnvPrefix = "PROSODIFY"

// SetDefaults registers the built-in settings with v and binds the
// environment.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("voices_path", d.VoicesPath)
	v.SetDefault("styles_path", d.StylesPath)
	v.SetDefault("cache_duration", d.CacheDuration)
	v.SetDefault("schema_version", d.SchemaVersion)
	v.SetDefault("fetch_timeout", d.FetchTimeout)
	v.SetDefault("min_refresh_interval", d.MinRefreshInterval)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.compression_level", d.Storage.CompressionLevel)
	v.SetDefault("storage.nats.url", d.Storage.NATS.URL)
	v.SetDefault("storage.nats.bucket", d.Storage.NATS.Bucket)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cache_ttl", d.Server.CacheTTL)
	v.SetDefault("server.locale_prefix", d.Server.LocalePrefix)
	v.SetDefault("server.voice_type", d.Server.VoiceType)

	v.SetDefault("log.level", d.Log.Level)

	BindEnv(v)
}

// BindEnv makes PROSODIFY_* variables override their keys, and binds the
// Azure variables the voices route has always read.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.azure.key", EnvPrefix+"_SERVER_AZURE_KEY", "AZURE_SPEECH_KEY")
	_ = v.BindEnv("server.azure.region", EnvPrefix+"_SERVER_AZURE_REGION", "AZURE_SPEECH_REGION")
}

// LoadFromViper reads a validated Config from v. Keys v does not know keep
// their defaults.
func LoadFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("endpoint") {
		cfg.Endpoint = v.GetString("endpoint")
	}
	if v.IsSet("voices_path") {
		cfg.VoicesPath = v.GetString("voices_path")
	}
	if v.IsSet("styles_path") {
		cfg.StylesPath = v.GetString("styles_path")
	}
	if v.IsSet("cache_duration") {
		cfg.CacheDuration = v.GetDuration("cache_duration")
	}
	if v.IsSet("schema_version") {
		cfg.SchemaVersion = v.GetString("schema_version")
	}
	if v.IsSet("fetch_timeout") {
		cfg.FetchTimeout = v.GetDuration("fetch_timeout")
	}
	if v.IsSet("min_refresh_interval") {
		cfg.MinRefreshInterval = v.GetDuration("min_refresh_interval")
	}

	cfg.Storage = loadStorageConfig(v, cfg.Storage)
	cfg.Server = loadServerConfig(v, cfg.Server)

	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadStorageConfig(v *viper.Viper, cfg StorageConfig) StorageConfig {
	if v.IsSet("storage.backend") {
		cfg.Backend = v.GetString("storage.backend")
	}
	if v.IsSet("storage.dir") {
		cfg.Dir = v.GetString("storage.dir")
	}
	if v.IsSet("storage.compression_level") {
		cfg.CompressionLevel = v.GetInt("storage.compression_level")
	}
	if v.IsSet("storage.nats.url") {
		cfg.NATS.URL = v.GetString("storage.nats.url")
	}
	if v.IsSet("storage.nats.bucket") {
		cfg.NATS.Bucket = v.GetString("storage.nats.bucket")
	}
	return cfg
}

func loadServerConfig(v *viper.Viper, cfg ServerConfig) ServerConfig {
	if v.IsSet("server.addr") {
		cfg.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.cache_ttl") {
		cfg.CacheTTL = v.GetDuration("server.cache_ttl")
	}
	if v.IsSet("server.locale_prefix") {
		cfg.LocalePrefix = v.GetString("server.locale_prefix")
	}
	if v.IsSet("server.voice_type") {
		cfg.VoiceType = v.GetString("server.voice_type")
	}
	if v.IsSet("server.azure.key") {
		cfg.Azure.Key = v.GetString("server.azure.key")
	}
	if v.IsSet("server.azure.region") {
		cfg.Azure.Region = v.GetString("server.azure.region")
	}
	return cfg
}

// Watch reloads the configuration whenever the config file changes and
// passes each valid result to fn. Invalid edits are logged and skipped.
func Watch(v *viper.Viper, logger *log.Logger, fn func(Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := LoadFromViper(v)
		if err != nil {
			logger.Warn("Ignoring config change", "file", e.Name, "err", err)
			return
		}
		logger.Info("Config reloaded", "file", e.Name)
		fn(cfg)
	})
	v.WatchConfig()
}
