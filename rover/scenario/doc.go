// Package scenario manages named rover instruction files.
//
// Scenarios are plain text files in the simulator input format, stored as
// <dir>/<name>.txt:
//
//	5 5
//	1 2 N
//	LMLMLMLMM
//	3 3 E
//	MMRMMRMRRM
//
// Every file is validated through the engine parser before it is cached or
// listed. Invalid files are skipped by ListScenarios and rejected by
// LoadScenario with ErrInvalidScenario.
//
// The default scenario is default.txt when present, otherwise the first valid
// file in the directory, otherwise a built-in two-rover scenario.
//
// Usage:
//
//	manager, err := scenario.NewManager("scenarios")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sc, err := manager.LoadScenario("crowded")
//	infos, err := manager.ListScenarios()
//	_, err = manager.SaveScenario("corner", []string{"1 1", "0 0 N", "MRM"})
package scenario
