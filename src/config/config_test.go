package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig("")
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.Features.EWMSpan != 7 {
		t.Errorf("EWMSpan = %d, want 7", cfg.Features.EWMSpan)
	}
	if got := cfg.Models.Quantiles(); got[0] != "q5" || got[1] != "q50" || got[2] != "q90" {
		t.Errorf("Quantiles = %v", got)
	}
	if cfg.Features.CopperWeight != 0.6 || cfg.Features.ZincWeight != 0.4 {
		t.Errorf("weights = %v/%v", cfg.Features.CopperWeight, cfg.Features.ZincWeight)
	}
}

func TestNewConfigYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", `
name: test-predictor
port: 9000
models:
  dir: /tmp/models
features:
  history_years: 3
`)
	envPath := writeFile(t, dir, ".env", "COPPER_PRICE_DEF=750000\n")

	t.Setenv("HISTORICAL_DATA_LMT", "2")
	t.Setenv("DB_URL", "postgres://user:pw@localhost/auctions")
	// godotenv does not override variables already present
	t.Setenv("COPPER_PRICE_DEF", "")
	os.Unsetenv("COPPER_PRICE_DEF")

	cfg, err := NewConfig(yamlPath, envPath)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Name != "test-predictor" || cfg.Port != 9000 {
		t.Errorf("yaml values not applied: %s %d", cfg.Name, cfg.Port)
	}
	if cfg.Features.HistoryYears != 2 {
		t.Errorf("HistoryYears = %d, want env override 2", cfg.Features.HistoryYears)
	}
	if cfg.Features.CopperFallbackPrice != 750000 {
		t.Errorf("CopperFallbackPrice = %v, want 750000", cfg.Features.CopperFallbackPrice)
	}
	if cfg.Storage.DBType != "postgres" || cfg.Storage.DBConnectionString == "" {
		t.Errorf("DB_URL not mapped to postgres: %+v", cfg.Storage)
	}
}

func TestNewConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad port", yaml: "port: 70000\n"},
		{name: "bad db type", yaml: "storage:\n  db_type: mysql\n"},
		{name: "live without api", yaml: "data_source:\n  mode: live\n"},
		{name: "bad env number", env: map[string]string{"PORT": "eighty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, t.TempDir(), "config.yaml", tt.yaml)
			}
			if _, err := NewConfig(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig("")
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	cfg.Name = "saved"
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := NewConfig(path)
	if err != nil {
		t.Fatalf("NewConfig(saved): %v", err)
	}
	if loaded.Name != "saved" {
		t.Errorf("Name = %q, want saved", loaded.Name)
	}
}
