// Package mcp exposes the rover simulator to AI agents over the Model Context
// Protocol.
//
// The client holds no simulation state. Every tool call is proxied to the
// REST API and the JSON response is rendered as text.
//
// MCP Tools:
//   - simulate: Simulate newline-separated instructions
//   - run_scenario: Simulate a stored scenario
//   - list_scenarios: List stored scenarios
//   - get_scenario: Show a stored scenario
//   - save_scenario: Validate and store a scenario
//   - list_runs: List archived runs
//   - get_run: Show an archived run
//   - delete_run: Delete an archived run
//   - rover_instructions: Input format and movement rules
//
// Both simulation tools accept "trace" to list every executed command with
// its outcome.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", version)
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
