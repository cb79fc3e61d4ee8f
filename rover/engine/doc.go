// Package engine provides the core simulation logic for the rover fleet.
//
// The engine package implements:
//   - Parsing and validation of line-oriented rover instructions
//   - Rotation and forward motion on a bounded grid
//   - Boundary and collision checks for every attempted move
//   - Sequential replay of each rover's command string
//
// Input Format:
//
//	5 5          <- inclusive upper-right corner of the grid
//	1 2 N        <- rover 1 start position and orientation
//	LMLMLMLMM    <- rover 1 commands (L, R rotate; M moves forward)
//	3 3 E        <- rover 2 start
//	MMRMMRMRRM   <- rover 2 commands
//
// Usage:
//
//	in, err := engine.ParseInstructions(lines)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, rover := range engine.Simulate(in) {
//		fmt.Println(rover)
//	}
//
// Rules:
//
// Rovers run strictly one after another, in input order. A move that would
// leave the grid, or enter a cell where an already finished rover stopped, is
// ignored and the rover keeps going with its next command. Rovers that have
// not finished yet do not block anyone.
package engine
