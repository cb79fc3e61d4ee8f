// Command rover simulates rovers exploring a rectangular plateau.
//
// It supports four commands:
//  1. "run" – simulates an instruction file and prints one line per rover
//  2. "validate" – checks instruction files and reports errors and warnings
//  3. "serve" – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  4. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Global flags (or ROVER_* environment variables, or an HCL settings file)
// control the listen address, storage directories, logging, and optional
// ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/marsrover/logging"
	"github.com/wricardo/mcp-training/marsrover/rover/engine"
	"github.com/wricardo/mcp-training/marsrover/settings"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mars Rover Simulator"
)

// Exit codes
const (
	exitOK = iota
	exitFailure
	exitInvalidInput
)

// errValidationFailed is returned by "validate" when any file is invalid
var errValidationFailed = errors.New("some instruction files have errors")

// app carries what every command needs once the global flags are resolved
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	envErr   error
	settings *settings.Settings
	logger   *slog.Logger
}

// main loads .env, builds the command tree and maps errors to exit codes.
func main() {
	// Load .env file if it exists (reported once the logger is configured)
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, envErr: envErr}
	cmd := a.command()

	err := cmd.Run(ctx, os.Args)
	stop()
	os.Exit(exitCode(a.stderr, err))
}

// exitCode reports err and picks the process exit status
func exitCode(w io.Writer, err error) int {
	switch {
	case err == nil:
		return exitOK
	case engine.IsInputError(err):
		fmt.Fprintf(w, "invalid input: %v\n", err)
		return exitInvalidInput
	case errors.Is(err, errValidationFailed):
		return exitFailure
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return exitFailure
}

// command builds the CLI. Settings are resolved by the root Before hook so
// every subcommand sees the same configuration.
func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "rover",
		Usage:     AppName,
		Version:   Version,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, a.configure(cmd)
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "HCL settings file",
				Sources: cli.EnvVars("ROVER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "HTTP listen address",
				Value:   settings.DefaultAddr,
				Sources: cli.EnvVars("ROVER_ADDR"),
			},
			&cli.StringFlag{
				Name:    "scenario-dir",
				Usage:   "Directory containing stored scenarios",
				Value:   settings.DefaultScenarioDir,
				Sources: cli.EnvVars("ROVER_SCENARIO_DIR", "CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "runs-dir",
				Usage:   "Directory where completed runs are persisted",
				Value:   settings.DefaultRunsDir,
				Sources: cli.EnvVars("ROVER_RUNS_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   settings.DefaultLogLevel,
				Sources: cli.EnvVars("ROVER_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   settings.DefaultLogFormat,
				Sources: cli.EnvVars("ROVER_LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "run-retention",
				Usage:   "How long completed runs stay in memory",
				Value:   settings.DefaultRunRetention,
				Sources: cli.EnvVars("ROVER_RUN_RETENTION"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Simulate an instruction file (or stdin) and print the final positions",
				ArgsUsage: "[file|-]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scenario",
						Usage: "Run a stored scenario instead of a file",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print every executed command to stderr",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full run report as JSON",
					},
				},
				Action: a.runAction,
			},
			{
				Name:      "validate",
				Usage:     "Check instruction files; directories contribute their *.txt files",
				ArgsUsage: "[path...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
				Action: a.validateAction,
			},
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  a.serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "External API to proxy to when reachable (defaults to --addr)",
						Sources: cli.EnvVars("ROVER_API_URL"),
					},
				},
				Action: a.mcpAction,
			},
		},
	}
}

// configure loads the settings file, applies explicitly set flags on top and
// builds the logger. Logs go to stderr so stdout stays machine-readable.
func (a *app) configure(cmd *cli.Command) error {
	s, err := settings.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"addr", &s.Addr},
		{"scenario-dir", &s.ScenarioDir},
		{"runs-dir", &s.RunsDir},
		{"log-level", &s.LogLevel},
		{"log-format", &s.LogFormat},
		{"run-retention", &s.RunRetention},
		{"ngrok-auth", &s.Ngrok.AuthToken},
		{"ngrok-domain", &s.Ngrok.Domain},
	}
	for _, o := range overrides {
		if cmd.IsSet(o.flag) {
			*o.dst = cmd.String(o.flag)
		}
	}
	if cmd.IsSet("ngrok") {
		s.Ngrok.Enabled = cmd.Bool("ngrok")
	}

	if err := s.Validate(); err != nil {
		return err
	}

	a.settings = s
	a.logger = logging.New(s.LogLevel, s.LogFormat, a.stderr)
	slog.SetDefault(a.logger)

	if a.envErr == nil {
		a.logger.Debug("loaded environment variables from .env file")
	} else if !os.IsNotExist(a.envErr) {
		a.logger.Warn("error loading .env file", "error", a.envErr)
	}
	return nil
}
