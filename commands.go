package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/marsrover/logging"
	"github.com/wricardo/mcp-training/marsrover/rover/archive"
	"github.com/wricardo/mcp-training/marsrover/rover/engine"
	"github.com/wricardo/mcp-training/marsrover/rover/scenario"
	"github.com/wricardo/mcp-training/marsrover/rover/service"
	"github.com/wricardo/mcp-training/marsrover/validate"
)

// runAction simulates one instruction set. The output is one "<x> <y> <O>"
// line per rover, in input order.
func (a *app) runAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 1 {
		return fmt.Errorf("run takes at most one file, got %d", cmd.NArg())
	}

	scenarioID := cmd.String("scenario")
	if scenarioID != "" && cmd.NArg() > 0 {
		return fmt.Errorf("use either a file or --scenario, not both")
	}

	// Files and stdin never need the scenario directory
	var scenarios service.ScenarioStore = scenario.NewBuiltinStore()
	if scenarioID != "" {
		m, err := scenario.NewManager(a.settings.ScenarioDir)
		if err != nil {
			return fmt.Errorf("failed to create scenario manager: %w", err)
		}
		scenarios = m
	}
	missions := service.NewMissionService(archive.NewManager(a.logger), scenarios)

	req := service.SimulationRequest{
		ScenarioID: scenarioID,
		Trace:      cmd.Bool("trace"),
	}
	if scenarioID == "" {
		var err error
		req.Lines, err = a.readInput(cmd.Args().First())
		if err != nil {
			return err
		}
		if len(req.Lines) == 0 {
			// An empty request would fall back to the default scenario
			return &engine.InputError{Err: engine.ErrIncompleteInput}
		}
	}

	run, err := missions.Simulate(logging.WithLogger(ctx, a.logger), req)
	if err != nil {
		return err
	}

	if req.Trace {
		writeTrace(a.stderr, run)
	}

	if cmd.Bool("json") {
		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(run)
	}

	for _, line := range run.Output {
		fmt.Fprintln(a.stdout, line)
	}
	return nil
}

// readInput reads the instruction lines from path, or from stdin for "" and "-"
func (a *app) readInput(path string) ([]string, error) {
	if path == "" || path == "-" {
		return engine.ReadLines(a.stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open instructions: %w", err)
	}
	defer f.Close()

	return engine.ReadLines(f)
}

// writeTrace prints every executed command of a traced run
func writeTrace(w io.Writer, run *service.Run) {
	for _, rover := range run.Rovers {
		fmt.Fprintf(w, "rover %d: %s + %s\n", rover.Index, rover.Start.String(), rover.Commands)
		for _, step := range rover.Steps {
			fmt.Fprintf(w, "  [%d] %s %s -> %s facing %s: %s\n",
				step.Index, step.Command, step.From, step.To, step.Orientation, step.Outcome)
		}
		fmt.Fprintf(w, "  = %s (moves %d, rotations %d, blocked %d)\n",
			rover.Output, rover.Moves, rover.Rotations, rover.Blocked)
	}
}

// validateAction checks files and directories, defaulting to the scenario
// directory
func (a *app) validateAction(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		paths = []string{a.settings.ScenarioDir}
	}

	results, err := validate.Paths(paths...)
	if err != nil {
		return err
	}

	for _, result := range results {
		a.logger.Debug("validated instruction file",
			"file", result.File,
			"valid", result.Valid,
			"warnings", len(result.Warnings))
	}

	var allValid bool
	if cmd.Bool("json") {
		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
		allValid = validate.AllValid(results)
	} else {
		allValid = validate.Report(a.stdout, results)
	}

	if !allValid {
		return errValidationFailed
	}
	return nil
}
