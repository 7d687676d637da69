package directive

import (
	"sort"
	"strconv"
	"time"
)

// Config is the per-invocation configuration assembled from directives.
type Config struct {
	// Features holds optional features switched on with #enable.
	Features map[string]bool
	// VM maps a sandbox setting to the raw arguments of its #vmconf line.
	VM map[string][]string
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{
		Features: make(map[string]bool),
		VM:       make(map[string][]string),
	}
}

// Enabled reports whether feature was switched on.
func (c *Config) Enabled(feature string) bool {
	return c.Features[feature]
}

// FeatureNames returns the enabled features in sorted order.
func (c *Config) FeatureNames() []string {
	names := make([]string, 0, len(c.Features))
	for name, on := range c.Features {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Timeout returns the duration requested by "#vmconf timeout <ms>".
// A missing, unparsable or non-positive value yields fallback.
func (c *Config) Timeout(fallback time.Duration) time.Duration {
	args := c.VM["timeout"]
	if len(args) == 0 {
		return fallback
	}
	ms, err := strconv.ParseFloat(args[0], 64)
	if err != nil || !(ms > 0) {
		return fallback
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// Empty reports whether no directive touched the configuration.
func (c *Config) Empty() bool {
	return len(c.Features) == 0 && len(c.VM) == 0
}
