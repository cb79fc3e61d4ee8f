// Package settings loads server settings from an optional HCL file.
//
// Example rover.hcl:
//
//	addr          = "0.0.0.0:9090"
//	scenario_dir  = "scenarios"
//	runs_dir      = "runs"
//	log_level     = "debug"
//	log_format    = "json"
//	run_retention = "48h"
//
//	ngrok {
//	  enabled = true
//	  domain  = "rovers.example.ngrok.app"
//	}
//
// Values missing from the file keep their defaults. Command-line flags and
// environment variables are applied on top by the caller.
package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/wricardo/mcp-training/marsrover/logging"
)

const (
	DefaultAddr         = "localhost:8080"
	DefaultScenarioDir  = "scenarios"
	DefaultRunsDir      = "runs"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultRunRetention = "24h"
)

// Settings holds everything needed to start the CLI and the server
type Settings struct {
	Addr         string         `hcl:"addr,optional"`
	ScenarioDir  string         `hcl:"scenario_dir,optional"`
	RunsDir      string         `hcl:"runs_dir,optional"`
	LogLevel     string         `hcl:"log_level,optional"`
	LogFormat    string         `hcl:"log_format,optional"`
	RunRetention string         `hcl:"run_retention,optional"`
	Ngrok        *NgrokSettings `hcl:"ngrok,block"`
}

// NgrokSettings configures the optional public tunnel
type NgrokSettings struct {
	Enabled   bool   `hcl:"enabled,optional"`
	Domain    string `hcl:"domain,optional"`
	AuthToken string `hcl:"authtoken,optional"`
}

// Default returns the built-in settings
func Default() *Settings {
	return &Settings{
		Addr:         DefaultAddr,
		ScenarioDir:  DefaultScenarioDir,
		RunsDir:      DefaultRunsDir,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		RunRetention: DefaultRunRetention,
		Ngrok:        &NgrokSettings{},
	}
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		return Default(), nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file %s: %w", path, err)
	}
	return Parse(path, src)
}

// Parse decodes HCL source on top of the defaults. filename is only used for
// diagnostics.
func Parse(filename string, src []byte) (*Settings, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse settings %s: %w", filename, diags)
	}

	var file Settings
	diags = gohcl.DecodeBody(hclFile.Body, nil, &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode settings %s: %w", filename, diags)
	}

	s := Default()
	s.merge(&file)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings are usable
func (s *Settings) Validate() error {
	if s.Addr == "" {
		return errors.New("settings: addr cannot be empty")
	}
	if s.ScenarioDir == "" {
		return errors.New("settings: scenario_dir cannot be empty")
	}
	if s.RunsDir == "" {
		return errors.New("settings: runs_dir cannot be empty")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("settings: log_format must be text or json, got %q", s.LogFormat)
	}
	if _, err := s.Retention(); err != nil {
		return err
	}
	return nil
}

// Retention returns how long completed runs are kept in memory
func (s *Settings) Retention() (time.Duration, error) {
	d, err := time.ParseDuration(s.RunRetention)
	if err != nil {
		return 0, fmt.Errorf("settings: invalid run_retention %q: %w", s.RunRetention, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("settings: run_retention must be positive, got %s", d)
	}
	return d, nil
}

// merge copies every non-empty value of other into s
func (s *Settings) merge(other *Settings) {
	if other.Addr != "" {
		s.Addr = other.Addr
	}
	if other.ScenarioDir != "" {
		s.ScenarioDir = other.ScenarioDir
	}
	if other.RunsDir != "" {
		s.RunsDir = other.RunsDir
	}
	if other.LogLevel != "" {
		s.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		s.LogFormat = other.LogFormat
	}
	if other.RunRetention != "" {
		s.RunRetention = other.RunRetention
	}
	if other.Ngrok != nil {
		if s.Ngrok == nil {
			s.Ngrok = &NgrokSettings{}
		}
		s.Ngrok.Enabled = other.Ngrok.Enabled
		if other.Ngrok.Domain != "" {
			s.Ngrok.Domain = other.Ngrok.Domain
		}
		if other.Ngrok.AuthToken != "" {
			s.Ngrok.AuthToken = other.Ngrok.AuthToken
		}
	}
}
