package engine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var commandLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Command", Pattern: `[LMR]`},
})

// commandScript is the grammar of a command line: any run of L, M and R.
type commandScript struct {
	Commands []string `parser:"@Command*"`
}

var commandParser = participle.MustBuild[commandScript](participle.Lexer(commandLexer))

// ParseInstructions validates raw input lines and builds the instruction set.
// Each line is trimmed before it is tokenized, so trailing line terminators are
// accepted. The first offending line aborts parsing.
func ParseInstructions(lines []string) (*Instructions, error) {
	if len(lines) < 2 {
		return nil, &InputError{Err: ErrIncompleteInput}
	}

	boundary, ok := parseCoordinates(lines[0])
	if !ok {
		return nil, &InputError{Err: ErrInvalidBoundary, Line: 1, Text: strings.TrimSpace(lines[0])}
	}

	in := &Instructions{Boundary: boundary}

	// Rover blocks are (position line, command line) pairs after the header
	for i := 1; i < len(lines); i += 2 {
		index := (i + 1) / 2

		rover, ok := ParseRover(lines[i])
		if !ok {
			return nil, &InputError{Err: ErrInvalidRoverPosition, Rover: index, Line: i + 1, Text: strings.TrimSpace(lines[i])}
		}

		if i+1 >= len(lines) {
			return nil, &InputError{Err: ErrMissingCommands, Rover: index}
		}

		commands, err := ParseCommands(lines[i+1])
		if err != nil {
			return nil, &InputError{Err: ErrInvalidCommand, Rover: index, Line: i + 2, Text: strings.TrimSpace(lines[i+1])}
		}

		in.Plans = append(in.Plans, RoverPlan{Rover: rover, Commands: commands})
	}

	return in, nil
}

// ParseBoundary parses a "<x> <y>" header line
func ParseBoundary(line string) (Position, error) {
	pos, ok := parseCoordinates(line)
	if !ok {
		return Position{}, &InputError{Err: ErrInvalidBoundary, Text: strings.TrimSpace(line)}
	}
	return pos, nil
}

// ParseRover parses a "<x> <y> <O>" position line
func ParseRover(line string) (*Rover, bool) {
	tokens := strings.Split(strings.TrimSpace(line), " ")
	if len(tokens) != 3 {
		return nil, false
	}

	x, okX := parseNonNegative(tokens[0])
	y, okY := parseNonNegative(tokens[1])
	orientation, okO := ParseOrientation(tokens[2])
	if !okX || !okY || !okO {
		return nil, false
	}

	return NewRover(Position{X: x, Y: y}, orientation), true
}

// ParseCommands tokenizes a command line. An empty line yields no commands.
func ParseCommands(line string) ([]Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return []Command{}, nil
	}

	script, err := commandParser.ParseString("commands", line)
	if err != nil {
		return nil, fmt.Errorf("parse commands: %w", err)
	}

	commands := make([]Command, 0, len(script.Commands))
	for _, token := range script.Commands {
		cmd, ok := ParseCommand(token)
		if !ok {
			return nil, fmt.Errorf("unknown command %q", token)
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// ReadLines splits input into lines, keeping line terminators. A final line
// without a terminator is kept; no empty line is synthesized after a
// trailing newline.
func ReadLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// SplitLines is ReadLines for in-memory text
func SplitLines(text string) []string {
	lines, _ := ReadLines(strings.NewReader(text))
	return lines
}

// parseCoordinates parses exactly two non-negative integers separated by a space
func parseCoordinates(line string) (Position, bool) {
	tokens := strings.Split(strings.TrimSpace(line), " ")
	if len(tokens) != 2 {
		return Position{}, false
	}

	x, okX := parseNonNegative(tokens[0])
	y, okY := parseNonNegative(tokens[1])
	if !okX || !okY {
		return Position{}, false
	}
	return Position{X: x, Y: y}, true
}

// parseNonNegative accepts only ASCII digit strings that fit in an int
func parseNonNegative(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}
