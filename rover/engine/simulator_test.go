package engine

import (
	"testing"
)

func renderRovers(rovers []*Rover) []string {
	out := make([]string, len(rovers))
	for i, r := range rovers {
		out[i] = r.String()
	}
	return out
}

func assertRovers(t *testing.T, rovers []*Rover, expected ...string) {
	t.Helper()
	got := renderRovers(rovers)
	if len(got) != len(expected) {
		t.Fatalf("Expected %d rovers, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Rover %d: expected %q, got %q", i+1, expected[i], got[i])
		}
	}
}

func TestExecute_CanonicalScenario(t *testing.T) {
	rovers, err := Execute(canonicalInput())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertRovers(t, rovers, "1 3 N", "5 1 E")
}

func TestExecute_PropagatesValidationError(t *testing.T) {
	rovers, err := Execute([]string{"5 E", "1 2 N", "M"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if rovers != nil {
		t.Errorf("Expected no rovers on error, got %v", rovers)
	}
}

func TestSimulate_EmptyCommandsLeaveRoverUnchanged(t *testing.T) {
	for _, start := range []string{"0 0 N", "3 4 E", "5 5 S", "2 1 W"} {
		rovers, err := Execute([]string{"5 5", start, ""})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		assertRovers(t, rovers, start)
	}
}

func TestSimulate_RotationsOnly(t *testing.T) {
	rovers, err := Execute([]string{"5 5", "2 2 N", "RRRRLLLLRL"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertRovers(t, rovers, "2 2 N")
}

func TestSimulate_BoundaryRejectionContinues(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{"south edge then turn", []string{"5 5", "0 0 S", "MLM"}, "1 0 E"},
		{"west edge", []string{"5 5", "0 3 W", "MMM"}, "0 3 W"},
		{"north edge", []string{"5 5", "2 5 N", "MRM"}, "3 5 E"},
		{"east edge", []string{"5 5", "5 2 E", "MMLM"}, "5 3 N"},
		{"single cell grid", []string{"0 0", "0 0 N", "MRMRMRM"}, "0 0 W"},
		{"upper corner is inclusive", []string{"3 2", "0 0 N", "MMRMMM"}, "3 2 E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rovers, err := Execute(tt.lines)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			assertRovers(t, rovers, tt.expected)
		})
	}
}

func TestSimulate_CollisionWithFinishedRover(t *testing.T) {
	// Rover 1 stays at 1 1; rover 2 drives south into it and stops one cell short
	rovers, err := Execute([]string{"5 5", "1 1 N", "", "1 3 S", "MMM"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertRovers(t, rovers, "1 1 N", "1 2 S")
}

func TestSimulate_CollisionKeepsOrientationAndContinues(t *testing.T) {
	rovers, err := Execute([]string{"5 5", "2 2 E", "M", "1 3 E", "MMRMM"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Rover 1 ends at 3 2; rover 2 reaches 3 3, turns south, is blocked twice
	assertRovers(t, rovers, "3 2 E", "3 3 S")
}

func TestSimulate_UnfinishedRoversDoNotBlock(t *testing.T) {
	// Rover 1 drives through rover 2's starting cell before rover 2 has run
	rovers, err := Execute([]string{"5 5", "0 0 E", "MMM", "1 0 N", ""})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertRovers(t, rovers, "3 0 E", "1 0 N")
}

func TestSimulate_OwnStartDoesNotBlock(t *testing.T) {
	rovers, err := Execute([]string{"5 5", "1 1 N", "MRRM"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertRovers(t, rovers, "1 1 S")
}

func TestSimulate_CoincidingStartPositions(t *testing.T) {
	// Same starting cell is legal input; processing order decides the outcome
	rovers, err := Execute([]string{"5 5", "2 2 N", "", "2 2 E", "M"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertRovers(t, rovers, "2 2 N", "3 2 E")

	rovers, err = Execute([]string{"5 5", "2 2 N", "", "2 2 E", ""})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertRovers(t, rovers, "2 2 N", "2 2 E")
}

func TestSimulator_OccupiedInCompletionOrder(t *testing.T) {
	in, err := ParseInstructions(canonicalInput())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sim := NewSimulator(in.Boundary)
	if len(sim.Occupied()) != 0 {
		t.Fatalf("Expected empty occupied set, got %v", sim.Occupied())
	}

	sim.Run(in.Plans)

	occupied := sim.Occupied()
	expected := []Position{{X: 1, Y: 3}, {X: 5, Y: 1}}
	if len(occupied) != len(expected) {
		t.Fatalf("Expected %d occupied cells, got %d", len(expected), len(occupied))
	}
	for i := range expected {
		if occupied[i] != expected[i] {
			t.Errorf("Occupied %d: expected %v, got %v", i, expected[i], occupied[i])
		}
	}

	// Returned slice is a copy
	occupied[0] = Position{X: 9, Y: 9}
	if !sim.IsOccupied(Position{X: 1, Y: 3}) {
		t.Error("Mutating Occupied() result changed the simulator")
	}
}

func TestSimulator_ExecuteOutcomes(t *testing.T) {
	sim := NewSimulator(Position{X: 2, Y: 2})
	blocker := NewRover(Position{X: 1, Y: 1}, North)
	sim.Drive(1, RoverPlan{Rover: blocker})

	rover := NewRover(Position{X: 0, Y: 1}, East)

	if got := sim.Execute(rover, Move); got != BlockedByRover {
		t.Errorf("Expected BlockedByRover, got %v", got)
	}
	if rover.Position != (Position{X: 0, Y: 1}) || rover.Orientation != East {
		t.Errorf("Blocked move changed the rover: %v", rover)
	}

	if got := sim.Execute(rover, RotateRight); got != Rotated {
		t.Errorf("Expected Rotated, got %v", got)
	}
	if rover.Orientation != South {
		t.Errorf("Expected South, got %v", rover.Orientation)
	}

	if got := sim.Execute(rover, Move); got != Moved {
		t.Errorf("Expected Moved, got %v", got)
	}
	if got := sim.Execute(rover, Move); got != BlockedByBoundary {
		t.Errorf("Expected BlockedByBoundary, got %v", got)
	}
	if rover.Position != (Position{X: 0, Y: 0}) {
		t.Errorf("Expected rover at 0 0, got %v", rover.Position)
	}
}

func TestSimulator_OccupancyCheckedBeforeBoundary(t *testing.T) {
	sim := NewSimulator(Position{X: 1, Y: 1})
	// A rover that starts off-grid and never moves still occupies its cell
	sim.Drive(1, RoverPlan{Rover: NewRover(Position{X: 2, Y: 1}, North)})

	if got := sim.Check(Position{X: 2, Y: 1}); got != BlockedByRover {
		t.Errorf("Expected BlockedByRover, got %v", got)
	}
	if got := sim.Check(Position{X: 2, Y: 0}); got != BlockedByBoundary {
		t.Errorf("Expected BlockedByBoundary, got %v", got)
	}
	if got := sim.Check(Position{X: 1, Y: 0}); got != Moved {
		t.Errorf("Expected Moved, got %v", got)
	}
}

func TestSimulate_ObserverSeesEveryStep(t *testing.T) {
	in, err := ParseInstructions([]string{"5 5", "0 0 S", "MLM", "1 1 S", "M"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var steps []Step
	rovers := Simulate(in, ObserverFunc(func(s Step) {
		steps = append(steps, s)
	}))
	assertRovers(t, rovers, "1 0 E", "1 1 S")

	expected := []struct {
		rover   int
		index   int
		command Command
		outcome Outcome
		to      Position
	}{
		{1, 0, Move, BlockedByBoundary, Position{X: 0, Y: -1}},
		{1, 1, RotateLeft, Rotated, Position{X: 0, Y: 0}},
		{1, 2, Move, Moved, Position{X: 1, Y: 0}},
		{2, 0, Move, BlockedByRover, Position{X: 1, Y: 0}},
	}

	if len(steps) != len(expected) {
		t.Fatalf("Expected %d steps, got %d", len(expected), len(steps))
	}
	for i, want := range expected {
		got := steps[i]
		if got.Rover != want.rover || got.Index != want.index || got.Command != want.command ||
			got.Outcome != want.outcome || got.To != want.to {
			t.Errorf("Step %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestSimulate_ObserversDoNotChangeResult(t *testing.T) {
	without, err := Execute(canonicalInput())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	count := 0
	with, err := Execute(canonicalInput(), ObserverFunc(func(Step) { count++ }), ObserverFunc(func(Step) {}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if count != len("LMLMLMLMM")+len("MMRMMRMRRM") {
		t.Errorf("Expected one step per command, got %d", count)
	}

	a, b := renderRovers(without), renderRovers(with)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Observer changed rover %d: %q vs %q", i+1, a[i], b[i])
		}
	}
}

func TestOutcomeText(t *testing.T) {
	for _, o := range []Outcome{Rotated, Moved, BlockedByRover, BlockedByBoundary} {
		text, err := o.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText failed: %v", err)
		}
		var decoded Outcome
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) failed: %v", text, err)
		}
		if decoded != o {
			t.Errorf("Expected %v, got %v", o, decoded)
		}
	}

	if !BlockedByRover.Blocked() || !BlockedByBoundary.Blocked() || Moved.Blocked() || Rotated.Blocked() {
		t.Error("Blocked() classification is wrong")
	}
}
