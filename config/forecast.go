package config

import "fmt"

// ForecastConfig tunes the simulation defaults.
type ForecastConfig struct {
	// Simulations is the default Monte Carlo iteration count.
	Simulations int `json:"simulations"`
	// ConfidenceLevels are the reported percentile levels.
	ConfidenceLevels []float64 `json:"confidence_levels"`
	// CacheTTLSeconds bounds how long gap and forecast results are reused.
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ForecastConfig) SetDefaults() {
	if c.Simulations == 0 {
		c.Simulations = 500
	}
	if len(c.ConfidenceLevels) == 0 {
		c.ConfidenceLevels = []float64{50, 75, 85, 95}
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 300
	}
}

// Validate checks mandatory fields.
func (c ForecastConfig) Validate() error {
	if c.Simulations < 1 {
		return fmt.Errorf("simulations must be at least 1")
	}
	for _, lv := range c.ConfidenceLevels {
		if lv < 0 || lv > 100 {
			return fmt.Errorf("confidence level %v out of [0,100]", lv)
		}
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache_ttl_seconds must not be negative")
	}
	return nil
}
