package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/marsrover/logging"
	"github.com/wricardo/mcp-training/marsrover/rover/engine"
)

// missionServiceImpl implements the MissionService interface
type missionServiceImpl struct {
	runs      RunStore
	scenarios ScenarioStore
	now       func() time.Time
}

// NewMissionService creates a new mission service instance
func NewMissionService(runs RunStore, scenarios ScenarioStore) MissionService {
	return &missionServiceImpl{
		runs:      runs,
		scenarios: scenarios,
		now:       time.Now,
	}
}

// Simulate validates the requested input, runs it on a fresh simulator and
// archives the result
func (s *missionServiceImpl) Simulate(ctx context.Context, req SimulationRequest) (*Run, error) {
	if len(req.Lines) > 0 && req.ScenarioID != "" {
		return nil, ErrConflictingInput
	}
	if len(req.Lines) > MaxInputLines {
		return nil, fmt.Errorf("%w: %d lines, maximum is %d", ErrInputTooLarge, len(req.Lines), MaxInputLines)
	}

	lines, scenarioID, err := s.resolveInput(req)
	if err != nil {
		return nil, err
	}

	// Plans are mutated by the simulator, so every run parses its own copy
	in, err := engine.ParseInstructions(lines)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	rec := newRecorder(len(in.Plans), req.Trace)
	reports := make([]RoverReport, len(in.Plans))
	for i, plan := range in.Plans {
		reports[i] = RoverReport{
			Index:    i + 1,
			Start:    *plan.Rover,
			Commands: plan.Script(),
		}
	}

	started := s.now()
	sim := engine.NewSimulator(in.Boundary, rec, engine.ObserverFunc(func(step engine.Step) {
		if step.Outcome.Blocked() {
			logger.Debug("move blocked",
				"rover", step.Rover,
				"command", step.Index,
				"from", step.From.String(),
				"to", step.To.String(),
				"reason", step.Outcome.String())
		}
	}))
	finals := sim.Run(in.Plans)

	output := make([]string, len(finals))
	for i, rover := range finals {
		output[i] = rover.String()
		reports[i].Final = *rover
		reports[i].Output = output[i]
		rec.fill(&reports[i])
	}

	run := &Run{
		ScenarioID: scenarioID,
		Input:      append([]string(nil), lines...),
		Boundary:   in.Boundary,
		Rovers:     reports,
		Output:     output,
		CreatedAt:  started,
		Duration:   s.now().Sub(started),
	}

	run, err = s.runs.Create(run)
	if err != nil {
		return nil, fmt.Errorf("failed to archive run: %w", err)
	}

	logger.Info("simulation completed",
		"run_id", run.ID,
		"scenario", scenarioID,
		"rovers", len(reports),
		"blocked", run.BlockedMoves())

	return run, nil
}

// resolveInput returns the lines to simulate and the scenario they came from
func (s *missionServiceImpl) resolveInput(req SimulationRequest) ([]string, string, error) {
	if len(req.Lines) > 0 {
		return req.Lines, "", nil
	}

	if req.ScenarioID == "" {
		def := s.scenarios.GetDefault()
		return def.Lines, def.ID, nil
	}

	sc, err := s.scenarios.LoadScenario(req.ScenarioID)
	if err != nil {
		if errors.Is(err, ErrScenarioNotFound) {
			return nil, "", s.scenarioNotFound(req.ScenarioID)
		}
		return nil, "", fmt.Errorf("failed to load scenario %s: %w", req.ScenarioID, err)
	}
	return sc.Lines, sc.ID, nil
}

// scenarioNotFound lists the available scenarios to help the caller
func (s *missionServiceImpl) scenarioNotFound(id string) error {
	infos, err := s.scenarios.ListScenarios()
	if err != nil || len(infos) == 0 {
		return fmt.Errorf("%w: '%s'. Use /api/scenarios to list available scenarios", ErrScenarioNotFound, id)
	}

	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ScenarioID)
	}
	return fmt.Errorf("%w: '%s'. Available scenarios: %v", ErrScenarioNotFound, id, ids)
}

// GetRun returns an archived run
func (s *missionServiceImpl) GetRun(ctx context.Context, runID string) (*Run, error) {
	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns the archived runs, newest first
func (s *missionServiceImpl) ListRuns(ctx context.Context) ([]*Run, error) {
	return s.runs.List(), nil
}

// DeleteRun removes a run from the archive
func (s *missionServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	if err := s.runs.Delete(runID); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	logging.FromContext(ctx).Info("run deleted", "run_id", runID)
	return nil
}

// ListScenarios returns the stored scenarios
func (s *missionServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.scenarios.ListScenarios()
}

// LoadScenario returns a stored scenario
func (s *missionServiceImpl) LoadScenario(ctx context.Context, scenarioID string) (*Scenario, error) {
	sc, err := s.scenarios.LoadScenario(scenarioID)
	if err != nil {
		if errors.Is(err, ErrScenarioNotFound) {
			return nil, s.scenarioNotFound(scenarioID)
		}
		return nil, err
	}
	return sc, nil
}

// SaveScenario validates and stores an instruction set under scenarioID
func (s *missionServiceImpl) SaveScenario(ctx context.Context, scenarioID string, lines []string) (*ScenarioInfo, error) {
	if len(lines) > MaxInputLines {
		return nil, fmt.Errorf("%w: %d lines, maximum is %d", ErrInputTooLarge, len(lines), MaxInputLines)
	}

	sc, err := s.scenarios.SaveScenario(scenarioID, lines)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("scenario saved", "scenario", sc.ID, "rovers", sc.Rovers)
	return &ScenarioInfo{
		Filename:   sc.ID + ".txt",
		ScenarioID: sc.ID,
		Boundary:   sc.Boundary,
		Rovers:     sc.Rovers,
	}, nil
}

// recorder counts outcomes per rover and optionally keeps every step
type recorder struct {
	moves     []int
	rotations []int
	blocked   []int
	steps     [][]engine.Step
	trace     bool
}

func newRecorder(rovers int, trace bool) *recorder {
	r := &recorder{
		moves:     make([]int, rovers),
		rotations: make([]int, rovers),
		blocked:   make([]int, rovers),
		trace:     trace,
	}
	if trace {
		r.steps = make([][]engine.Step, rovers)
	}
	return r
}

func (r *recorder) OnStep(step engine.Step) {
	i := step.Rover - 1
	switch {
	case step.Outcome == engine.Rotated:
		r.rotations[i]++
	case step.Outcome.Blocked():
		r.blocked[i]++
	default:
		r.moves[i]++
	}
	if r.trace {
		r.steps[i] = append(r.steps[i], step)
	}
}

func (r *recorder) fill(report *RoverReport) {
	i := report.Index - 1
	report.Moves = r.moves[i]
	report.Rotations = r.rotations[i]
	report.Blocked = r.blocked[i]
	if r.trace {
		report.Steps = r.steps[i]
		if report.Steps == nil {
			report.Steps = []engine.Step{}
		}
	}
}
