package engine

import (
	"encoding/json"
	"testing"
)

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		input    string
		expected Orientation
		ok       bool
	}{
		{"N", North, true},
		{"E", East, true},
		{"S", South, true},
		{"W", West, true},
		{"n", North, false},
		{"A", North, false},
		{"", North, false},
		{"NE", North, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseOrientation(tt.input)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v for %q, got %v", tt.ok, tt.input, ok)
			}
			if ok && got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestOrientationRotationIsCyclic(t *testing.T) {
	expectedRight := map[Orientation]Orientation{
		North: East,
		East:  South,
		South: West,
		West:  North,
	}

	for o, want := range expectedRight {
		if got := o.Right(); got != want {
			t.Errorf("%v.Right() = %v, expected %v", o, got, want)
		}
		if got := want.Left(); got != o {
			t.Errorf("%v.Left() = %v, expected %v", want, got, o)
		}
	}
}

func TestOrientationRotationGroupOfOrderFour(t *testing.T) {
	for _, o := range compass {
		right := o
		left := o
		for i := 0; i < 4; i++ {
			right = right.Right()
			left = left.Left()
		}
		if right != o {
			t.Errorf("four right turns from %v ended at %v", o, right)
		}
		if left != o {
			t.Errorf("four left turns from %v ended at %v", o, left)
		}
		if o.Right().Left() != o || o.Left().Right() != o {
			t.Errorf("left is not the inverse of right for %v", o)
		}

		// Mixed turns summing to a multiple of four
		mixed := o.Right().Right().Left().Right().Right().Right()
		if mixed != o {
			t.Errorf("mixed rotation from %v ended at %v", o, mixed)
		}
	}
}

func TestOrientationDelta(t *testing.T) {
	tests := []struct {
		orientation Orientation
		dx, dy      int
	}{
		{North, 0, 1},
		{East, 1, 0},
		{South, 0, -1},
		{West, -1, 0},
	}

	for _, tt := range tests {
		dx, dy := tt.orientation.Delta()
		if dx != tt.dx || dy != tt.dy {
			t.Errorf("%v.Delta() = (%d,%d), expected (%d,%d)", tt.orientation, dx, dy, tt.dx, tt.dy)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected Command
		ok       bool
	}{
		{"M", Move, true},
		{"L", RotateLeft, true},
		{"R", RotateRight, true},
		{"m", Move, false},
		{"1", Move, false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand(tt.input)
		if ok != tt.ok || (ok && got != tt.expected) {
			t.Errorf("ParseCommand(%q) = (%v, %v), expected (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestFormatCommands(t *testing.T) {
	commands := []Command{RotateLeft, Move, RotateRight, Move}
	if got := FormatCommands(commands); got != "LMRM" {
		t.Errorf("Expected LMRM, got %s", got)
	}
	if got := FormatCommands(nil); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestRoverString(t *testing.T) {
	rover := NewRover(Position{X: 1, Y: 3}, North)
	if got := rover.String(); got != "1 3 N" {
		t.Errorf("Expected '1 3 N', got %q", got)
	}
}

func TestRoverNextPositionDoesNotMutate(t *testing.T) {
	rover := NewRover(Position{X: 2, Y: 2}, West)
	next := rover.NextPosition()

	if next != (Position{X: 1, Y: 2}) {
		t.Errorf("Expected (1,2), got %v", next)
	}
	if rover.Position != (Position{X: 2, Y: 2}) {
		t.Errorf("NextPosition changed the rover to %v", rover.Position)
	}
}

func TestPositionWithin(t *testing.T) {
	top := Position{X: 5, Y: 5}
	tests := []struct {
		name     string
		pos      Position
		expected bool
	}{
		{"origin", Position{0, 0}, true},
		{"corner", Position{5, 5}, true},
		{"inside", Position{3, 2}, true},
		{"negative x", Position{-1, 0}, false},
		{"negative y", Position{0, -1}, false},
		{"past x", Position{6, 5}, false},
		{"past y", Position{5, 6}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.Within(top); got != tt.expected {
				t.Errorf("Within(%v) = %v, expected %v", tt.pos, got, tt.expected)
			}
		})
	}
}

func TestRoverJSON(t *testing.T) {
	rover := NewRover(Position{X: 5, Y: 1}, East)

	data, err := json.Marshal(rover)
	if err != nil {
		t.Fatalf("Failed to marshal rover: %v", err)
	}

	expected := `{"position":{"x":5,"y":1},"orientation":"E"}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}

	var decoded Rover
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal rover: %v", err)
	}
	if decoded != *rover {
		t.Errorf("Expected %v, got %v", rover, decoded)
	}

	if err := json.Unmarshal([]byte(`{"orientation":"Q"}`), &decoded); err == nil {
		t.Error("Expected error for unknown orientation")
	}
}
