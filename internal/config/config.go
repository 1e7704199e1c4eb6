// Package config loads service configuration from defaults overlaid
// with environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envKeys maps the environment variables the service honors to their
// configuration paths. Anything else in the environment is ignored.
var envKeys = map[string]string{
	"ADDON_PORT":                   "addon.port",
	"WS_PORT":                      "addon.ws_port",
	"EVENTS_JSON_URL":              "feed.url",
	"IMAGE_MAP_PATH":               "images.map_path",
	"IMAGE_GENERATOR_BASE_URL":     "images.generator_base_url",
	"SOURCE_TIMEZONE_OFFSET_HOURS": "timezone.source_offset_hours",
	"TIMEZONE_OFFSET_HOURS":        "timezone.dest_offset_hours",
	"RESOLVE_WORKERS":              "resolver.workers",
	"PROVIDER_TIMEOUT":             "resolver.provider_timeout",
	"ENABLE_LIVE_MONITOR":          "monitor.enabled",
	"LIVE_POLL_INTERVAL":           "monitor.poll_interval",
	"REDIS_URL":                    "redis.url",
}

// Config holds the full service configuration.
type Config struct {
	Addon    AddonConfig    `koanf:"addon"`
	Feed     FeedConfig     `koanf:"feed"`
	Images   ImagesConfig   `koanf:"images"`
	Timezone TimezoneConfig `koanf:"timezone"`
	Resolver ResolverConfig `koanf:"resolver"`
	Monitor  MonitorConfig  `koanf:"monitor"`
	Redis    RedisConfig    `koanf:"redis"`
}

// AddonConfig holds the HTTP and websocket listen ports.
type AddonConfig struct {
	Port   string `koanf:"port"`
	WSPort string `koanf:"ws_port"`
}

// FeedConfig holds the upstream event feed location.
type FeedConfig struct {
	URL string `koanf:"url"`
}

// ImagesConfig holds the artwork lookup settings.
type ImagesConfig struct {
	MapPath          string `koanf:"map_path"`
	GeneratorBaseURL string `koanf:"generator_base_url"`
}

// TimezoneConfig holds the fixed hour offsets applied when
// normalizing event times.
type TimezoneConfig struct {
	SourceOffsetHours int `koanf:"source_offset_hours"`
	DestOffsetHours   int `koanf:"dest_offset_hours"`
}

// ResolverConfig holds the stream resolution settings.
type ResolverConfig struct {
	Workers         int           `koanf:"workers"`
	ProviderTimeout time.Duration `koanf:"provider_timeout"`
}

// MonitorConfig holds the live polling settings.
type MonitorConfig struct {
	Enabled      bool          `koanf:"enabled"`
	PollInterval time.Duration `koanf:"poll_interval"`
}

// RedisConfig holds the optional Redis connection. An empty URL
// disables publishing.
type RedisConfig struct {
	URL string `koanf:"url"`
}

func defaults() Config {
	return Config{
		Addon: AddonConfig{
			Port:   "7777",
			WSPort: "7778",
		},
		Feed: FeedConfig{
			URL: "https://streamtpglobal.com/eventos.json",
		},
		Images: ImagesConfig{
			MapPath: "poster_data.json",
		},
		Timezone: TimezoneConfig{
			SourceOffsetHours: -8,
			DestOffsetHours:   12,
		},
		Resolver: ResolverConfig{
			Workers:         4,
			ProviderTimeout: 20 * time.Second,
		},
		Monitor: MonitorConfig{
			Enabled:      true,
			PollInterval: 30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults plus the environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Addon.Port == "" {
		return fmt.Errorf("addon port must not be empty")
	}
	if c.Addon.WSPort == "" {
		return fmt.Errorf("websocket port must not be empty")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url must not be empty")
	}
	if c.Images.MapPath == "" {
		return fmt.Errorf("image map path must not be empty")
	}
	if c.Timezone.SourceOffsetHours < -14 || c.Timezone.SourceOffsetHours > 14 {
		return fmt.Errorf("source timezone offset %d out of range [-14, 14]", c.Timezone.SourceOffsetHours)
	}
	if c.Timezone.DestOffsetHours < -14 || c.Timezone.DestOffsetHours > 14 {
		return fmt.Errorf("destination timezone offset %d out of range [-14, 14]", c.Timezone.DestOffsetHours)
	}
	if c.Resolver.Workers < 1 {
		return fmt.Errorf("resolver workers must be at least 1, got %d", c.Resolver.Workers)
	}
	if c.Resolver.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.Resolver.ProviderTimeout)
	}
	if c.Monitor.Enabled && c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Monitor.PollInterval)
	}
	return nil
}
