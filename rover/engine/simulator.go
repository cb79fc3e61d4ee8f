package engine

import "fmt"

// Outcome is the result of executing a single command
type Outcome int

const (
	Rotated Outcome = iota
	Moved
	BlockedByRover
	BlockedByBoundary
)

func (o Outcome) String() string {
	switch o {
	case Rotated:
		return "rotated"
	case Moved:
		return "moved"
	case BlockedByRover:
		return "blocked_rover"
	case BlockedByBoundary:
		return "blocked_boundary"
	}
	return "unknown"
}

// MarshalText encodes the outcome as its string code
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome string code
func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range []Outcome{Rotated, Moved, BlockedByRover, BlockedByBoundary} {
		if candidate.String() == string(text) {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid outcome %q", text)
}

// Blocked reports whether a move was rejected
func (o Outcome) Blocked() bool {
	return o == BlockedByRover || o == BlockedByBoundary
}

// Step records one executed command
type Step struct {
	Rover       int         `json:"rover"` // 1-based block index
	Index       int         `json:"index"` // 0-based command index within the block
	Command     Command     `json:"command"`
	From        Position    `json:"from"`
	To          Position    `json:"to"` // attempted cell for moves, current cell for rotations
	Orientation Orientation `json:"orientation"`
	Outcome     Outcome     `json:"outcome"`
}

// Observer receives every executed command. Observers never influence the
// simulation result.
type Observer interface {
	OnStep(step Step)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(step Step)

// OnStep calls f(step)
func (f ObserverFunc) OnStep(step Step) {
	f(step)
}

// Simulator replays rover plans against a fixed boundary and the set of
// cells where finished rovers stopped. A Simulator is not safe for
// concurrent use.
type Simulator struct {
	boundary  Position
	occupied  []Position
	observers []Observer
}

// NewSimulator creates a simulator with an empty occupied set
func NewSimulator(boundary Position, observers ...Observer) *Simulator {
	return &Simulator{
		boundary:  boundary,
		occupied:  []Position{},
		observers: observers,
	}
}

// Occupied returns the final positions of finished rovers, in completion order
func (s *Simulator) Occupied() []Position {
	out := make([]Position, len(s.occupied))
	copy(out, s.occupied)
	return out
}

// IsOccupied reports whether a finished rover stopped at pos
func (s *Simulator) IsOccupied(pos Position) bool {
	for _, p := range s.occupied {
		if p == pos {
			return true
		}
	}
	return false
}

// Check classifies a target cell: Moved when it can be entered, otherwise the
// reason it is blocked. Occupancy is checked before the boundary.
func (s *Simulator) Check(pos Position) Outcome {
	if s.IsOccupied(pos) {
		return BlockedByRover
	}
	if !pos.Within(s.boundary) {
		return BlockedByBoundary
	}
	return Moved
}

// Execute applies one command to the rover. A blocked move leaves the rover
// unchanged.
func (s *Simulator) Execute(rover *Rover, cmd Command) Outcome {
	switch cmd {
	case RotateLeft, RotateRight:
		rover.Rotate(cmd)
		return Rotated
	case Move:
		next := rover.NextPosition()
		outcome := s.Check(next)
		if outcome == Moved {
			rover.Position = next
		}
		return outcome
	}
	return Rotated
}

// Drive replays a whole plan and then records the rover's final cell as
// occupied. index is the 1-based block number reported to observers.
func (s *Simulator) Drive(index int, plan RoverPlan) *Rover {
	rover := plan.Rover
	for i, cmd := range plan.Commands {
		from := rover.Position
		outcome := s.Execute(rover, cmd)

		to := rover.Position
		if outcome.Blocked() {
			to = rover.NextPosition()
		}
		s.notify(Step{
			Rover:       index,
			Index:       i,
			Command:     cmd,
			From:        from,
			To:          to,
			Orientation: rover.Orientation,
			Outcome:     outcome,
		})
	}

	s.occupied = append(s.occupied, rover.Position)
	return rover
}

// Run drives every plan in input order and returns the rovers in that order
func (s *Simulator) Run(plans []RoverPlan) []*Rover {
	rovers := make([]*Rover, 0, len(plans))
	for i, plan := range plans {
		rovers = append(rovers, s.Drive(i+1, plan))
	}
	return rovers
}

// Simulate runs a validated instruction set on a fresh simulator
func Simulate(in *Instructions, observers ...Observer) []*Rover {
	return NewSimulator(in.Boundary, observers...).Run(in.Plans)
}

// Execute parses raw input lines and simulates them
func Execute(lines []string, observers ...Observer) ([]*Rover, error) {
	in, err := ParseInstructions(lines)
	if err != nil {
		return nil, err
	}
	return Simulate(in, observers...), nil
}

func (s *Simulator) notify(step Step) {
	for _, o := range s.observers {
		o.OnStep(step)
	}
}
