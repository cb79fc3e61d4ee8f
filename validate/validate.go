// Package validate checks instruction files before they are simulated or
// stored as scenarios. Besides the parser's hard errors it reports
// warnings for inputs that are legal but probably not what the author meant:
//   - a rover starting outside the grid
//   - two rovers starting on the same cell
//   - a rover starting on the cell where an earlier rover stopped
//
// Valid files also get a short summary from a dry run: grid size, rover
// count and the number of blocked moves.
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/marsrover/rover/engine"
)

// Ext is the extension of instruction files picked up from directories
const Ext = ".txt"

// Result captures the outcome of validating a single file.
type Result struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Info     []string `json:"info,omitempty"`
	Output   []string `json:"output,omitempty"`
}

// File loads and validates a single instruction file.
func File(path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{
			File:   filepath.Base(path),
			Errors: []string{fmt.Sprintf("Failed to read file: %v", err)},
		}
	}
	defer f.Close()

	lines, err := engine.ReadLines(f)
	if err != nil {
		return Result{
			File:   filepath.Base(path),
			Errors: []string{fmt.Sprintf("Failed to read file: %v", err)},
		}
	}

	return Lines(filepath.Base(path), lines)
}

// Lines validates an instruction set that is already in memory.
func Lines(name string, lines []string) Result {
	result := Result{File: name, Valid: true}

	in, err := engine.ParseInstructions(lines)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	starts := make([]engine.Position, len(in.Plans))
	for i, plan := range in.Plans {
		starts[i] = plan.Rover.Position
	}
	result.Warnings = startWarnings(in.Boundary, starts)

	// Dry run; the parsed plans are not used afterwards
	blocked := 0
	finals := engine.Simulate(in, engine.ObserverFunc(func(step engine.Step) {
		if step.Outcome.Blocked() {
			blocked++
		}
	}))

	// ends maps a final position to the first rover that stopped there
	ends := make(map[engine.Position]int, len(finals))
	for i, rover := range finals {
		index := i + 1
		result.Output = append(result.Output, rover.String())

		if earlier, ok := ends[starts[i]]; ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Rover %d starts on the cell where rover %d stopped (%s)", index, earlier, starts[i]))
		}
		if _, ok := ends[rover.Position]; !ok {
			ends[rover.Position] = index
		}
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Grid: %dx%d", in.Boundary.X+1, in.Boundary.Y+1),
		fmt.Sprintf("✓ Rovers: %d", len(in.Plans)),
		fmt.Sprintf("✓ Blocked moves: %d", blocked),
	)

	return result
}

// startWarnings inspects starting positions before anything moves
func startWarnings(boundary engine.Position, starts []engine.Position) []string {
	var warnings []string
	seen := make(map[engine.Position]int, len(starts))

	for i, pos := range starts {
		index := i + 1

		if !pos.Within(boundary) {
			warnings = append(warnings, fmt.Sprintf("Rover %d starts outside the grid at %s", index, pos))
		}

		if first, ok := seen[pos]; ok {
			warnings = append(warnings, fmt.Sprintf("Rover %d starts on the same cell as rover %d (%s)", index, first, pos))
		} else {
			seen[pos] = index
		}
	}

	return warnings
}

// Paths validates every file named in paths. Directories contribute their
// *.txt files in name order.
func Paths(paths ...string) ([]Result, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(path, "*"+Ext))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", path, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// AllValid reports whether every result is valid
func AllValid(results []Result) bool {
	for _, result := range results {
		if !result.Valid {
			return false
		}
	}
	return true
}

// Report prints a concise report and returns true if every result is valid.
func Report(w io.Writer, results []Result) bool {
	allValid := AllValid(results)
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}

		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No instruction files found")
	case allValid:
		fmt.Fprintln(w, "✅ All instruction files are valid!")
	default:
		fmt.Fprintln(w, "❌ Some instruction files have errors")
	}
	return allValid
}
