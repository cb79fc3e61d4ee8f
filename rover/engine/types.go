package engine

import (
	"fmt"
	"strings"
)

// Position represents x,y grid coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the position as "<x> <y>"
func (p Position) String() string {
	return fmt.Sprintf("%d %d", p.X, p.Y)
}

// Within reports whether p lies inside the grid spanning [0,0] to top inclusive
func (p Position) Within(top Position) bool {
	return p.X >= 0 && p.X <= top.X && p.Y >= 0 && p.Y <= top.Y
}

// Orientation is the heading of a rover
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

// compass holds the cyclic order used by rotations: N -> E -> S -> W -> N.
var compass = [4]Orientation{North, East, South, West}

var orientationSymbols = [4]string{"N", "E", "S", "W"}

// ParseOrientation converts a single-letter token into an Orientation
func ParseOrientation(s string) (Orientation, bool) {
	for i, symbol := range orientationSymbols {
		if s == symbol {
			return compass[i], true
		}
	}
	return North, false
}

func (o Orientation) String() string {
	if o < North || o > West {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationSymbols[o]
}

// MarshalText encodes the orientation as its compass letter
func (o Orientation) MarshalText() ([]byte, error) {
	if o < North || o > West {
		return nil, fmt.Errorf("invalid orientation %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText decodes a compass letter
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, ok := ParseOrientation(strings.TrimSpace(string(text)))
	if !ok {
		return fmt.Errorf("invalid orientation %q", text)
	}
	*o = parsed
	return nil
}

// Command is a single rover directive
type Command int

const (
	Move Command = iota
	RotateLeft
	RotateRight
)

// ParseCommand converts a command character into a Command
func ParseCommand(s string) (Command, bool) {
	switch s {
	case "M":
		return Move, true
	case "L":
		return RotateLeft, true
	case "R":
		return RotateRight, true
	}
	return Move, false
}

func (c Command) String() string {
	switch c {
	case Move:
		return "M"
	case RotateLeft:
		return "L"
	case RotateRight:
		return "R"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// MarshalText encodes the command as its single character
func (c Command) MarshalText() ([]byte, error) {
	switch c {
	case Move, RotateLeft, RotateRight:
		return []byte(c.String()), nil
	}
	return nil, fmt.Errorf("invalid command %d", int(c))
}

// UnmarshalText decodes a single command character
func (c *Command) UnmarshalText(text []byte) error {
	parsed, ok := ParseCommand(string(text))
	if !ok {
		return fmt.Errorf("invalid command %q", text)
	}
	*c = parsed
	return nil
}

// FormatCommands renders commands back into their compact string form
func FormatCommands(commands []Command) string {
	var b strings.Builder
	b.Grow(len(commands))
	for _, c := range commands {
		b.WriteString(c.String())
	}
	return b.String()
}

// Rover is a vehicle on the grid. It is updated in place while its commands
// are replayed.
type Rover struct {
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// NewRover creates a rover at the given position and heading
func NewRover(pos Position, orientation Orientation) *Rover {
	return &Rover{Position: pos, Orientation: orientation}
}

// String renders the rover as "<x> <y> <O>"
func (r *Rover) String() string {
	return fmt.Sprintf("%s %s", r.Position, r.Orientation)
}

// RoverPlan is one input block: a rover and the commands it must execute
type RoverPlan struct {
	Rover    *Rover    `json:"rover"`
	Commands []Command `json:"commands"`
}

// Script returns the plan's commands as a string
func (p RoverPlan) Script() string {
	return FormatCommands(p.Commands)
}

// Instructions is a validated instruction set
type Instructions struct {
	Boundary Position    `json:"boundary"`
	Plans    []RoverPlan `json:"plans"`
}
