// Package service provides the business logic layer for the rover simulator.
//
// The service package implements:
//   - Simulation requests from raw lines or from stored scenarios
//   - Per-rover reports with move, rotation and blocked-move counts
//   - Optional step traces for every executed command
//   - Archiving of completed runs
//
// Core Interfaces:
//
// MissionService is the main service interface used by the transports.
// RunStore keeps completed runs; ScenarioStore loads and saves named
// instruction files.
//
// Architecture:
//
// The service layer sits between the transport layer (CLI/HTTP/WebSocket/MCP)
// and the simulation engine. Every simulation parses its input afresh and runs
// on its own engine.Simulator, so runs never share rover state.
//
// Usage:
//
//	runs := archive.NewManager(logger)
//	scenarios, err := scenario.NewManager("scenarios")
//	if err != nil {
//		log.Fatal(err)
//	}
//	missions := service.NewMissionService(runs, scenarios)
//
//	run, err := missions.Simulate(ctx, service.SimulationRequest{
//		Lines: []string{"5 5", "1 2 N", "LMLMLMLMM"},
//	})
package service
