// Package config loads the engine configuration from a YAML or JSON file
// with PF_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/wiltonn/productfolio-sub002/core/metrics"
)

type Config struct {
	Plan     PlanConfig     `json:"plan"`
	Forecast ForecastConfig `json:"forecast"`
	Audit    AuditConfig    `json:"audit"`
	Metrics  metrics.Config `json:"metrics"`
}

// PlanConfig locates the planning dataset.
type PlanConfig struct {
	// Path is the plan fixture file, YAML or JSON.
	Path string `json:"path"`
}

func (c PlanConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("plan path is required")
	}
	return nil
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("PF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Forecast.SetDefaults()
	cfg.Audit.SetDefaults()
	if err := cfg.Plan.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Forecast.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
