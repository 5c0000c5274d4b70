package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "HEADFIX_API_KEY", "SETTINGS_BACKEND", "WORKER_COUNT", "JOB_TTL", "CLASS_PREFIX"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8091" {
		t.Errorf("expected default port 8091, got %q", cfg.Port)
	}
	if cfg.SettingsBackend != BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.SettingsBackend)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.JobTTL)
	}
	if cfg.ClassPrefix != "hs-" {
		t.Errorf("expected hs- prefix, got %q", cfg.ClassPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("FORCE_SINGLE_H1", "true")
	t.Setenv("JOB_TTL", "5m")
	t.Setenv("MAX_UPLOAD_BYTES", "nope")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("non-positive worker count should fall back to 4, got %d", cfg.WorkerCount)
	}
	if !cfg.ForceSingleH1 {
		t.Error("expected ForceSingleH1")
	}
	if cfg.JobTTL != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %v", cfg.JobTTL)
	}
	if cfg.MaxUploadBytes != 10485760 {
		t.Errorf("unparseable upload limit should fall back, got %d", cfg.MaxUploadBytes)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CLASS_PREFIX=lvl-\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("CLASS_PREFIX")
	t.Cleanup(func() { os.Unsetenv("CLASS_PREFIX") })

	if got := Load().ClassPrefix; got != "lvl-" {
		t.Errorf("expected prefix from .env, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{SettingsBackend: BackendMemory}, false},
		{"sqlite", Config{SettingsBackend: BackendSQLite, SettingsPath: "x.db"}, false},
		{"sqlite no path", Config{SettingsBackend: BackendSQLite}, true},
		{"pathstore", Config{SettingsBackend: BackendPathstore, PathstoreURL: "http://ps"}, false},
		{"pathstore no url", Config{SettingsBackend: BackendPathstore}, true},
		{"unknown", Config{SettingsBackend: "redis"}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err=%v wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}
