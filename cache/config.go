package cache

import "fmt"

// Config holds cache configuration.
type Config struct {
	// PageSize is the atlas page texture size (width = height).
	// Must be a power of 2. Default: 1024
	PageSize int

	// MaxPages limits the number of atlas pages. Requests that cannot
	// fit after eviction fail with ErrAtlasFull. Default: 8
	MaxPages int

	// Padding between atlas entries to prevent sampling bleed.
	// Default: 1
	Padding int

	// RampSize is the width of gradient ramp textures. Default: 256
	RampSize int

	// DefragThreshold is the freed-to-total area ratio above which
	// EvictUnused repacks an atlas page. Default: 0.4
	DefragThreshold float64
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:        1024,
		MaxPages:        8,
		Padding:         1,
		RampSize:        256,
		DefragThreshold: 0.4,
	}
}

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cache: invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PageSize < 64 {
		return &ConfigError{Field: "PageSize", Reason: "must be at least 64"}
	}
	if c.PageSize > 8192 {
		return &ConfigError{Field: "PageSize", Reason: "must be at most 8192"}
	}
	if c.PageSize&(c.PageSize-1) != 0 {
		return &ConfigError{Field: "PageSize", Reason: "must be power of 2"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{Field: "MaxPages", Reason: "must be at least 1"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.RampSize < 2 {
		return &ConfigError{Field: "RampSize", Reason: "must be at least 2"}
	}
	if c.DefragThreshold <= 0 || c.DefragThreshold > 1 {
		return &ConfigError{Field: "DefragThreshold", Reason: "must be in (0, 1]"}
	}
	return nil
}
