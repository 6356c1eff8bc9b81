package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	data := `plan:
  path: "plan.yaml"
forecast:
  simulations: 1000
audit:
  backend: "sqlite"
  path: "runs.db"
metrics:
  sinks:
    - type: "nop"
`
	cfg, err := Load(writeConfig(t, data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Plan.Path != "plan.yaml" {
		t.Fatalf("plan path %q", cfg.Plan.Path)
	}
	if cfg.Forecast.Simulations != 1000 {
		t.Fatalf("simulations %d", cfg.Forecast.Simulations)
	}
	if len(cfg.Forecast.ConfidenceLevels) != 4 || cfg.Forecast.ConfidenceLevels[0] != 50 {
		t.Fatalf("default levels %+v", cfg.Forecast.ConfidenceLevels)
	}
	if cfg.Forecast.CacheTTLSeconds != 300 {
		t.Fatalf("default ttl %d", cfg.Forecast.CacheTTLSeconds)
	}
	if cfg.Audit.Backend != "sqlite" || cfg.Audit.Path != "runs.db" {
		t.Fatalf("audit %+v", cfg.Audit)
	}
	if len(cfg.Metrics.Sinks) != 1 || cfg.Metrics.Sinks[0].Type != "nop" {
		t.Fatalf("metrics %+v", cfg.Metrics)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	if err := os.Setenv("PF_FORECAST__SIMULATIONS", "2000"); err != nil {
		t.Fatalf("setenv: %v", err)
	}
	defer func() { _ = os.Unsetenv("PF_FORECAST__SIMULATIONS") }()

	cfg, err := Load(writeConfig(t, "plan:\n  path: \"plan.yaml\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Forecast.Simulations != 2000 {
		t.Fatalf("env override ignored, simulations %d", cfg.Forecast.Simulations)
	}
}

func TestLoadRequiresPlanPath(t *testing.T) {
	if _, err := Load(writeConfig(t, "forecast:\n  simulations: 10\n")); err == nil {
		t.Fatalf("expected error for missing plan path")
	}
}

func TestLoadRejectsBadAuditBackend(t *testing.T) {
	data := "plan:\n  path: \"plan.yaml\"\naudit:\n  backend: \"mysql\"\n"
	if _, err := Load(writeConfig(t, data)); err == nil {
		t.Fatalf("expected error for unknown audit backend")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
