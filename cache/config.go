package cache

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"

	"github.com/RiyadMehdi7/churnvision-cache/logger"
)

// DefaultTTL is used when Set is called without an explicit TTL and no
// other default has been configured.
const DefaultTTL = 5 * time.Minute

// DefaultMaxSize is the default capacity in live entries.
const DefaultMaxSize = 100

// DefaultRefreshInterval is the default background refresh tick period.
const DefaultRefreshInterval = time.Minute

// Config controls cache behavior. Zero fields are replaced with package
// defaults at construction.
type Config struct {
	// DefaultTTL is used when Set omits an explicit TTL.
	DefaultTTL time.Duration

	// MaxSize is the maximum number of live entries, checked at insert
	// time. A full cache of eviction-exempt entries may transiently
	// exceed it by one.
	MaxSize int

	// EnablePersistence gates all snapshot saves and the startup load.
	EnablePersistence bool

	// BackgroundRefreshInterval is the refresh scheduler tick period.
	BackgroundRefreshInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.BackgroundRefreshInterval <= 0 {
		c.BackgroundRefreshInterval = DefaultRefreshInterval
	}
	return c
}

// DefaultConfig returns the configuration used when New is given a zero Config.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

// ConfigUpdate is a partial Config; nil fields are left unchanged by
// Cache.UpdateConfig.
type ConfigUpdate struct {
	DefaultTTL                *time.Duration
	MaxSize                   *int
	EnablePersistence         *bool
	BackgroundRefreshInterval *time.Duration
}

type fileConfig struct {
	DefaultTTL                string `yaml:"default_ttl"`
	MaxSize                   int    `yaml:"max_size"`
	EnablePersistence         bool   `yaml:"enable_persistence"`
	BackgroundRefreshInterval string `yaml:"background_refresh_interval"`
}

// LoadConfigFile reads a YAML config file. Durations accept human-friendly
// forms like "90s", "5m" or "1h30m".
func LoadConfigFile(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "cache: read config file")
	}
	var fc fileConfig
	if err := yaml.Unmarshal(buf, &fc); err != nil {
		return Config{}, errors.Wrap(err, "cache: parse config file")
	}
	cfg := Config{MaxSize: fc.MaxSize, EnablePersistence: fc.EnablePersistence}
	if fc.DefaultTTL != "" {
		d, err := str2duration.ParseDuration(fc.DefaultTTL)
		if err != nil {
			return Config{}, errors.Wrapf(err, "cache: invalid default_ttl %q", fc.DefaultTTL)
		}
		cfg.DefaultTTL = d
	}
	if fc.BackgroundRefreshInterval != "" {
		d, err := str2duration.ParseDuration(fc.BackgroundRefreshInterval)
		if err != nil {
			return Config{}, errors.Wrapf(err, "cache: invalid background_refresh_interval %q", fc.BackgroundRefreshInterval)
		}
		cfg.BackgroundRefreshInterval = d
	}
	return cfg.withDefaults(), nil
}

// ConfigFromEnv builds a Config from CHURNVISION_CACHE_* environment
// variables. Unset or malformed values fall back to defaults.
func ConfigFromEnv() Config {
	var cfg Config
	if v := os.Getenv("CHURNVISION_CACHE_TTL"); v != "" {
		if d, err := str2duration.ParseDuration(v); err == nil {
			cfg.DefaultTTL = d
		}
	}
	if v := os.Getenv("CHURNVISION_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSize = n
		}
	}
	if v := os.Getenv("CHURNVISION_CACHE_PERSIST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EnablePersistence = b
		}
	}
	if v := os.Getenv("CHURNVISION_CACHE_REFRESH_INTERVAL"); v != "" {
		if d, err := str2duration.ParseDuration(v); err == nil {
			cfg.BackgroundRefreshInterval = d
		}
	}
	return cfg.withDefaults()
}

type options struct {
	log     logger.Logger
	clock   Clock
	adapter Adapter
}

// Option configures a Cache at construction.
type Option func(*options)

// WithLogger sets the logger used for eviction, refresh and persistence
// diagnostics. Defaults to a console logger at the env-configured level.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock injects the time source. Defaults to the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithAdapter sets the persistence adapter. Snapshots are only taken when
// the adapter is set and Config.EnablePersistence is true.
func WithAdapter(a Adapter) Option {
	return func(o *options) { o.adapter = a }
}
