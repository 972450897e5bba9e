package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/casefold/tabular/internal/detect"
)

// Environment variable names for engine policy overrides.
const (
	EnvEngineConfidenceThreshold  = "TABULAR_ENGINE_CONFIDENCE_THRESHOLD"
	EnvEngineAlwaysReviewCritical = "TABULAR_ENGINE_ALWAYS_REVIEW_CRITICAL"
	EnvEngineRebuildWorkers       = "TABULAR_ENGINE_REBUILD_WORKERS"
)

// EngineConfig holds conflict-detection and queue-rebuild policy.
// The confidence threshold and critical-column override are deliberately
// configuration, not constants; reviewing teams disagree on both.
type EngineConfig struct {
	ConfidenceThreshold  float64 `toml:"confidence_threshold"`
	AlwaysReviewCritical *bool   `toml:"always_review_critical"`
	RebuildWorkers       int     `toml:"rebuild_workers"`
}

// Detector returns the detect.Config this engine policy describes.
func (c *EngineConfig) Detector() detect.Config {
	return detect.Config{
		ConfidenceThreshold:  c.ConfidenceThreshold,
		AlwaysReviewCritical: c.AlwaysReviewCritical == nil || *c.AlwaysReviewCritical,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.AlwaysReviewCritical != nil {
		c.AlwaysReviewCritical = overlay.AlwaysReviewCritical
	}
	if overlay.RebuildWorkers != 0 {
		c.RebuildWorkers = overlay.RebuildWorkers
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.80
	}
	if c.RebuildWorkers == 0 {
		c.RebuildWorkers = 8
	}
}

func (c *EngineConfig) loadEnv() {
	if v := os.Getenv(EnvEngineConfidenceThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConfidenceThreshold = f
		}
	}
	if v := os.Getenv(EnvEngineAlwaysReviewCritical); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AlwaysReviewCritical = &b
		}
	}
	if v := os.Getenv(EnvEngineRebuildWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RebuildWorkers = n
		}
	}
}

func (c *EngineConfig) validate() error {
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in (0, 1]")
	}
	if c.RebuildWorkers < 1 {
		return fmt.Errorf("rebuild_workers must be positive")
	}
	return nil
}
