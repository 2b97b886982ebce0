package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  name: edrs
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("default driver = %s", cfg.Database.Driver)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("default model = %s", cfg.OpenAI.Model)
	}
	if cfg.Analysis.ConfidenceThreshold != 0.7 {
		t.Errorf("default threshold = %v", cfg.Analysis.ConfidenceThreshold)
	}
	if cfg.Analysis.Workers != 2 || cfg.Analysis.QueueSize != 100 {
		t.Errorf("default worker pool = %d/%d", cfg.Analysis.Workers, cfg.Analysis.QueueSize)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("default storage backend = %s", cfg.Storage.Backend)
	}
	if cfg.Analysis.Temperature == nil || *cfg.Analysis.Temperature != 0.2 {
		t.Errorf("default temperature = %v", cfg.Analysis.Temperature)
	}
}

func TestExplicitZeroTemperature(t *testing.T) {
	path := writeConfig(t, `
analysis:
  temperature: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Analysis.Temperature == nil || *cfg.Analysis.Temperature != 0 {
		t.Errorf("explicit zero temperature overwritten: %v", cfg.Analysis.Temperature)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("PORT", "9090")

	path := writeConfig(t, `
openai:
  apiKey: from-file
database:
  password: from-file
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("env api key not applied: %s", cfg.OpenAI.APIKey)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("env db password not applied")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("env port not applied: %d", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDSNHelpers(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: edrs
  password: pw
  name: edrs
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	pg := cfg.PostgresDSN()
	if !strings.Contains(pg, "host=db.internal") || !strings.Contains(pg, "sslmode=disable") {
		t.Errorf("postgres dsn = %s", pg)
	}
	my := cfg.MySQLDSN()
	if !strings.Contains(my, "edrs:pw@tcp(db.internal:5432)/edrs") || !strings.Contains(my, "parseTime=true") {
		t.Errorf("mysql dsn = %s", my)
	}
}
