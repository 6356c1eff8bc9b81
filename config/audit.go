package config

import "fmt"

// AuditConfig defines settings for forecast-run audit storage.
type AuditConfig struct {
	// Backend selects the run store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the run store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" && c.Backend != "none" {
		c.Path = "forecast_runs.jsonl"
	}
}

// Validate checks mandatory fields.
func (c AuditConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("audit path is required")
		}
	case "none":
	default:
		return fmt.Errorf("unknown audit backend %s", c.Backend)
	}
	return nil
}
