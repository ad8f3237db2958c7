package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogLevel, EnvLogFormat, EnvDB, EnvThreshold} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d := Default()
	if *cfg != *d {
		t.Errorf("Load = %+v, want defaults %+v", cfg, d)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vellum.yaml")
	data := `
compiler:
  word_wrap: false
  multi_level: true
dictionary:
  entities: entities.yaml
store:
  path: lemmas.db
patch:
  threshold: 0
log:
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Compiler.WordWrap || !cfg.Compiler.MultiLevel || !cfg.Compiler.AutoLineNumbers {
		t.Errorf("Compiler = %+v", cfg.Compiler)
	}
	if cfg.Dictionary.Entities != "entities.yaml" || cfg.Store.Path != "lemmas.db" {
		t.Errorf("paths = %+v %+v", cfg.Dictionary, cfg.Store)
	}
	if cfg.Patch.Threshold != 1000 {
		t.Errorf("Threshold = %d, want default 1000", cfg.Patch.Threshold)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("compiler: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on invalid YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvDB, "/tmp/v.db")
	t.Setenv(EnvThreshold, "50")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Store.Path != "/tmp/v.db" || cfg.Patch.Threshold != 50 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}

	t.Setenv(EnvThreshold, "lots")
	cfg, _ = Load("")
	if cfg.Patch.Threshold != 1000 {
		t.Errorf("invalid threshold should be ignored, got %d", cfg.Patch.Threshold)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvDB)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("VELLUM_DB=from-dotenv.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv(EnvDB); got != "from-dotenv.db" {
		t.Errorf("%s = %q", EnvDB, got)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Compiler.WrapPages = true
	cfg.Validation.SchemaCacheSize = 4

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *back != *cfg {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}
}
