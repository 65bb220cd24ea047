// Package config loads the datapath's tunables using viper, YAML-backed
// with environment variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"icc.tech/msgcore/internal/corelog"
)

// Config is the root configuration for a msgcored worker process.
type Config struct {
	Core CoreConfig     `mapstructure:"core"`
	Log  corelog.Config `mapstructure:"log"`
}

// CoreConfig holds the worker's pool sizing and timeout tunables.
type CoreConfig struct {
	MBufCap          int   `mapstructure:"mbuf_cap"`
	MBufExtraCap     int   `mapstructure:"mbuf_extra_cap"`
	MaxAllocMsgs     int   `mapstructure:"max_alloc_msgs"`
	AllowedAllocMsgs int   `mapstructure:"allowed_alloc_msgs"`
	MaxAllocMbufs    int   `mapstructure:"max_alloc_mbufs"`
	IOVMaxCap        int   `mapstructure:"iov_max_cap"`
	ServerTimeoutMS  int64 `mapstructure:"server_timeout_ms"`
}

// Default returns the configuration a worker boots with when no file
// is supplied, e.g. for `msgcored validate` smoke runs.
func Default() *Config {
	return &Config{
		Core: CoreConfig{
			MBufCap:          16 * 1024,
			MBufExtraCap:     4 * 1024,
			MaxAllocMsgs:     4096,
			AllowedAllocMsgs: 2048,
			MaxAllocMbufs:    4096,
			IOVMaxCap:        128,
			ServerTimeoutMS:  30000,
		},
		Log: *corelog.DefaultConfig(),
	}
}

// Load reads configuration from path, applying defaults for any key
// left unset and allowing MSGCORE_-prefixed environment variables to
// override individual fields (e.g. MSGCORE_CORE_IOV_MAX_CAP).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("msgcore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("core.mbuf_cap", d.Core.MBufCap)
	v.SetDefault("core.mbuf_extra_cap", d.Core.MBufExtraCap)
	v.SetDefault("core.max_alloc_msgs", d.Core.MaxAllocMsgs)
	v.SetDefault("core.allowed_alloc_msgs", d.Core.AllowedAllocMsgs)
	v.SetDefault("core.max_alloc_mbufs", d.Core.MaxAllocMbufs)
	v.SetDefault("core.iov_max_cap", d.Core.IOVMaxCap)
	v.SetDefault("core.server_timeout_ms", d.Core.ServerTimeoutMS)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pattern", d.Log.Pattern)
	v.SetDefault("log.time", d.Log.Time)
	v.SetDefault("log.appender", d.Log.Appender)
}

// Validate rejects tunables that would make the pools or timeout
// index meaningless rather than letting them surface as a panic deep
// in internal/core.
func (c *Config) Validate() error {
	if c.Core.MBufCap <= 0 {
		return fmt.Errorf("core.mbuf_cap must be positive, got %d", c.Core.MBufCap)
	}
	if c.Core.MaxAllocMsgs <= 0 {
		return fmt.Errorf("core.max_alloc_msgs must be positive, got %d", c.Core.MaxAllocMsgs)
	}
	if c.Core.AllowedAllocMsgs <= 0 || c.Core.AllowedAllocMsgs > c.Core.MaxAllocMsgs {
		return fmt.Errorf("core.allowed_alloc_msgs must be in (0, max_alloc_msgs], got %d", c.Core.AllowedAllocMsgs)
	}
	if c.Core.MaxAllocMbufs <= 0 {
		return fmt.Errorf("core.max_alloc_mbufs must be positive, got %d", c.Core.MaxAllocMbufs)
	}
	if c.Core.ServerTimeoutMS <= 0 {
		return fmt.Errorf("core.server_timeout_ms must be positive, got %d", c.Core.ServerTimeoutMS)
	}
	return nil
}
