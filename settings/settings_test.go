package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("Default settings should be valid: %v", err)
	}
	if s.Addr != DefaultAddr {
		t.Errorf("Expected addr %s, got %s", DefaultAddr, s.Addr)
	}
	retention, err := s.Retention()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if retention != 24*time.Hour {
		t.Errorf("Expected 24h retention, got %s", retention)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.ScenarioDir != DefaultScenarioDir {
		t.Errorf("Expected default scenario dir, got %s", s.ScenarioDir)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rover.hcl")
	src := `
addr          = "0.0.0.0:9090"
log_level     = "debug"
run_retention = "48h"

ngrok {
  enabled = true
  domain  = "rovers.example.com"
}
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if s.Addr != "0.0.0.0:9090" {
		t.Errorf("Expected addr from file, got %s", s.Addr)
	}
	if s.LogLevel != "debug" {
		t.Errorf("Expected debug level, got %s", s.LogLevel)
	}
	if s.RunsDir != DefaultRunsDir {
		t.Errorf("Expected default runs dir to survive, got %s", s.RunsDir)
	}
	if s.Ngrok == nil || !s.Ngrok.Enabled || s.Ngrok.Domain != "rovers.example.com" {
		t.Errorf("Unexpected ngrok settings: %+v", s.Ngrok)
	}
	if d, _ := s.Retention(); d != 48*time.Hour {
		t.Errorf("Expected 48h retention, got %s", d)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.hcl")); err == nil {
		t.Error("Expected error for missing settings file")
	}
}

func TestParse_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"bad level", `log_level = "loud"`, "unknown log level"},
		{"bad format", `log_format = "xml"`, "log_format"},
		{"bad retention", `run_retention = "soon"`, "run_retention"},
		{"negative retention", `run_retention = "-1h"`, "positive"},
		{"syntax error", `addr = `, "failed to parse"},
		{"unknown attribute", `colour = "red"`, "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("rover.hcl", []byte(tt.src))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
