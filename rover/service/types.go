package service

import (
	"time"

	"github.com/wricardo/mcp-training/marsrover/rover/engine"
)

// SimulationRequest selects the input of a simulation. When both Lines and
// ScenarioID are empty the default scenario is used.
type SimulationRequest struct {
	Lines      []string `json:"lines,omitempty"`
	ScenarioID string   `json:"scenario_id,omitempty"`
	Trace      bool     `json:"trace,omitempty"`
}

// Run is a completed simulation
type Run struct {
	ID         string          `json:"id"`
	ScenarioID string          `json:"scenario_id,omitempty"`
	Input      []string        `json:"input"`
	Boundary   engine.Position `json:"boundary"`
	Rovers     []RoverReport   `json:"rovers"`
	Output     []string        `json:"output"`
	CreatedAt  time.Time       `json:"created_at"`
	Duration   time.Duration   `json:"duration_ns"`
}

// BlockedMoves returns the number of rejected moves across all rovers
func (r *Run) BlockedMoves() int {
	total := 0
	for _, rover := range r.Rovers {
		total += rover.Blocked
	}
	return total
}

// RoverReport summarizes one rover's block
type RoverReport struct {
	Index     int           `json:"index"` // 1-based, input order
	Start     engine.Rover  `json:"start"`
	Commands  string        `json:"commands"`
	Final     engine.Rover  `json:"final"`
	Output    string        `json:"output"` // "<x> <y> <O>"
	Moves     int           `json:"moves"`
	Rotations int           `json:"rotations"`
	Blocked   int           `json:"blocked"`
	Steps     []engine.Step `json:"steps,omitempty"`
}

// Scenario is a named, validated instruction file
type Scenario struct {
	ID       string          `json:"id"`
	Lines    []string        `json:"lines"`
	Boundary engine.Position `json:"boundary"`
	Rovers   int             `json:"rovers"`
}

// ScenarioInfo provides information about a stored scenario
type ScenarioInfo struct {
	Filename   string          `json:"filename"`
	ScenarioID string          `json:"scenario_id"` // The identifier to use for simulations
	Boundary   engine.Position `json:"boundary"`
	Rovers     int             `json:"rovers"`
}
