package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adaptiq.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvDB, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	t.Setenv(EnvDB, "")
	path := writeConfig(t, `
log:
  level: debug
predictor:
  shift: 0.1
evaluate:
  rounds: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want text", cfg.Log.Format)
	}
	if cfg.Predictor.Shift != 0.1 {
		t.Errorf("Predictor.Shift = %v, want 0.1", cfg.Predictor.Shift)
	}
	if cfg.Evaluate.Rounds != 3 {
		t.Errorf("Evaluate.Rounds = %d, want 3", cfg.Evaluate.Rounds)
	}
	if want := DefaultConfig().Evaluate.Workers; cfg.Evaluate.Workers != want {
		t.Errorf("Evaluate.Workers = %d, want default %d", cfg.Evaluate.Workers, want)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "db_path: /from/file.db\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDB, "/from/env.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("DBPath = %q, want /from/env.db", cfg.DBPath)
	}
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv(EnvDB, "")
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "estimator:\n  bogus: 1\n"},
		{"inverted bracket", "estimator:\n  lower: 5\n  upper: 1\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"zero rounds", "evaluate:\n  rounds: 0\n"},
		{"shift too large", "predictor:\n  shift: 0.7\n"},
		{"bad calibration", "calibration:\n  tolerance: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewEstimatorUsesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Estimator.Upper = 6
	est := cfg.NewEstimator(0.3)
	if est.Upper != 6 || est.Default != 0.3 {
		t.Errorf("estimator upper/default = %v/%v, want 6/0.3", est.Upper, est.Default)
	}
	if got := cfg.NewPredictor().Shift; got != 0.05 {
		t.Errorf("predictor shift = %v, want 0.05", got)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("warn record missing: %s", out)
	}

	if _, err := NewLogger(&buf, LogConfig{Level: "nope"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
