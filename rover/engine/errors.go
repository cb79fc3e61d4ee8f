package engine

import (
	"errors"
	"fmt"
)

var (
	ErrIncompleteInput      = errors.New("incomplete input")
	ErrInvalidBoundary      = errors.New("invalid boundary")
	ErrInvalidRoverPosition = errors.New("invalid rover position")
	ErrMissingCommands      = errors.New("missing commands")
	ErrInvalidCommand       = errors.New("invalid command")
)

// InputError describes why an instruction set was rejected.
// Rover is the 1-based block index, or 0 when the error is not tied to a rover.
// Line is the 1-based input line, or 0 when no single line is at fault.
type InputError struct {
	Err   error
	Rover int
	Line  int
	Text  string
}

func (e *InputError) Error() string {
	switch {
	case e.Rover > 0 && e.Line > 0:
		return fmt.Sprintf("rover %d: %v at line %d: %q", e.Rover, e.Err, e.Line, e.Text)
	case e.Rover > 0:
		return fmt.Sprintf("rover %d: %v", e.Rover, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%v at line %d: %q", e.Err, e.Line, e.Text)
	}
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// RoverIndex extracts the 1-based rover index from a validation error
func RoverIndex(err error) (int, bool) {
	var inputErr *InputError
	if errors.As(err, &inputErr) && inputErr.Rover > 0 {
		return inputErr.Rover, true
	}
	return 0, false
}

// ErrorCode maps a validation error to a stable machine-readable code.
// It returns an empty string for errors that did not come from the parser.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteInput):
		return "incomplete_input"
	case errors.Is(err, ErrInvalidBoundary):
		return "invalid_boundary"
	case errors.Is(err, ErrInvalidRoverPosition):
		return "invalid_rover_position"
	case errors.Is(err, ErrMissingCommands):
		return "missing_commands"
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command"
	}
	return ""
}

// IsInputError reports whether err is a validation failure of the input itself
func IsInputError(err error) bool {
	return ErrorCode(err) != ""
}
