package locks

import (
	"fmt"
	"os"
	"time"
)

// Config holds Redis lock backend parameters. Durations are strings in
// time.ParseDuration format.
type Config struct {
	URL            string `toml:"url"`
	Prefix         string `toml:"prefix"`
	TTL            string `toml:"ttl"`
	AcquireTimeout string `toml:"acquire_timeout"`
	RetryInterval  string `toml:"retry_interval"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL            string
	Prefix         string
	TTL            string
	AcquireTimeout string
	RetryInterval  string
}

// TTLDuration returns TTL as a time.Duration.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// AcquireTimeoutDuration returns AcquireTimeout as a time.Duration.
func (c *Config) AcquireTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.AcquireTimeout)
	return d
}

// RetryIntervalDuration returns RetryInterval as a time.Duration.
func (c *Config) RetryIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.AcquireTimeout != "" {
		c.AcquireTimeout = overlay.AcquireTimeout
	}
	if overlay.RetryInterval != "" {
		c.RetryInterval = overlay.RetryInterval
	}
}

func (c *Config) loadDefaults() {
	if c.URL == "" {
		c.URL = "redis://localhost:6379/0"
	}
	if c.Prefix == "" {
		c.Prefix = "lock:"
	}
	if c.TTL == "" {
		c.TTL = "30s"
	}
	if c.AcquireTimeout == "" {
		c.AcquireTimeout = "2s"
	}
	if c.RetryInterval == "" {
		c.RetryInterval = "50ms"
	}
}

func (c *Config) loadEnv(env *Env) {
	fields := []struct {
		name string
		dst  *string
	}{
		{env.URL, &c.URL},
		{env.Prefix, &c.Prefix},
		{env.TTL, &c.TTL},
		{env.AcquireTimeout, &c.AcquireTimeout},
		{env.RetryInterval, &c.RetryInterval},
	}

	for _, f := range fields {
		if f.name != "" {
			if v := os.Getenv(f.name); v != "" {
				*f.dst = v
			}
		}
	}
}

func (c *Config) validate() error {
	for _, d := range []struct {
		name  string
		value string
	}{
		{"ttl", c.TTL},
		{"acquire_timeout", c.AcquireTimeout},
		{"retry_interval", c.RetryInterval},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}

	if c.TTLDuration() <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.RetryIntervalDuration() <= 0 {
		return fmt.Errorf("retry_interval must be positive")
	}
	return nil
}
