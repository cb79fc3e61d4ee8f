package service

import (
	"context"
	"errors"
)

var (
	ErrRunNotFound         = errors.New("run not found")
	ErrScenarioNotFound    = errors.New("scenario not found")
	ErrInvalidScenarioName = errors.New("invalid scenario name")
	ErrConflictingInput    = errors.New("provide either lines or a scenario, not both")
	ErrInputTooLarge       = errors.New("input too large")
)

// MaxInputLines bounds the size of a single simulation request
const MaxInputLines = 20001

// MissionService defines all simulation-related operations
type MissionService interface {
	// Simulations
	Simulate(ctx context.Context, req SimulationRequest) (*Run, error)

	// Run archive
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)
	DeleteRun(ctx context.Context, runID string) error

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	LoadScenario(ctx context.Context, scenarioID string) (*Scenario, error)
	SaveScenario(ctx context.Context, scenarioID string, lines []string) (*ScenarioInfo, error)
}

// RunStore defines storage operations for completed runs
type RunStore interface {
	Create(run *Run) (*Run, error)
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
}

// ScenarioStore handles named instruction files
type ScenarioStore interface {
	LoadScenario(id string) (*Scenario, error)
	ListScenarios() ([]*ScenarioInfo, error)
	GetDefault() *Scenario
	SaveScenario(id string, lines []string) (*Scenario, error)
}
