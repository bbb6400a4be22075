package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SPECTRA_CONFIG", "SPECTRA_PORT", "SPECTRA_ALLOWED_ORIGINS", "SPECTRA_MAX_UPLOAD_BYTES",
		"SPECTRA_REQUEST_TIMEOUT", "SPECTRA_GRACEFUL_TIMEOUT", "SPECTRA_DB_PATH", "SPECTRA_RECORD_RUNS",
		"LOG_LEVEL", "LOG_FORMAT", "OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "OPENROUTER_MODEL",
		"SPECTRA_ANALYSIS_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.RequestTimeout != 2*time.Minute {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Storage.DBPath != "spectra.sqlite3" || !cfg.Storage.RecordRuns {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Analysis.Enabled() {
		t.Error("analysis should be disabled without a key")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "spectra.yaml")
	yamlData := `
server:
  port: 9090
  allowedOrigins: ["http://localhost:3000"]
  requestTimeout: 30s
storage:
  dbPath: /var/lib/spectra/db.sqlite3
logging:
  level: debug
analysis:
  model: test/model
`
	if err := os.WriteFile(path, []byte(yamlData), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("SPECTRA_PORT", "7070")
	t.Setenv("OPENROUTER_API_KEY", "secret")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("env should override file port, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxUploadBytes != 32<<20 {
		t.Errorf("missing keys should keep defaults, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Storage.DBPath != "/var/lib/spectra/db.sqlite3" {
		t.Errorf("unexpected db path: %s", cfg.Storage.DBPath)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if !cfg.Analysis.Enabled() || cfg.Analysis.Model != "test/model" {
		t.Errorf("unexpected analysis config: %+v", cfg.Analysis)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("server: [not a map"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected a parse error")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	os.WriteFile(invalid, []byte("server:\n  port: 70000\n"), 0o644)
	if _, err := Load(invalid); err == nil {
		t.Error("expected a validation error for the port")
	}
}

func TestParseOrigins(t *testing.T) {
	if got := ParseOrigins("*"); len(got) != 1 || got[0] != "*" {
		t.Errorf("unexpected wildcard origins: %v", got)
	}
	got := ParseOrigins(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("unexpected origins: %v", got)
	}
}
