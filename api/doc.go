// Package api provides the HTTP REST API of the rover simulator.
//
// Endpoints:
//
// Simulations:
//   - POST /api/simulations - Simulate lines, raw input text or a scenario
//   - GET /api/runs - List archived runs (?scenario=<id>&limit=<n>)
//   - GET /api/runs/{id} - Get one run
//   - DELETE /api/runs/{id} - Delete a run
//
// Scenarios:
//   - GET /api/scenarios - List stored scenarios
//   - POST /api/scenarios - Validate and store a scenario
//   - GET /api/scenarios/{name} - Get a scenario's lines
//   - POST /api/scenarios/{name}/run - Simulate a stored scenario
//
// Other:
//   - GET /health - Liveness probe
//   - GET /ws?scenario=<id|*> - Live feed of completed runs
//
// Request Format:
//
//	POST /api/simulations
//	{
//	  "lines": ["5 5", "1 2 N", "LMLMLMLMM"], // or
//	  "input": "5 5\n1 2 N\nLMLMLMLMM\n",      // or
//	  "scenario_id": "crowded",
//	  "trace": true                            // keep every step
//	}
//
// Successful simulations return 201 with the archived run and are broadcast
// on the live feed.
//
// Error Handling:
//
// Errors are returned as JSON. Rejected instruction sets use 422 with a
// stable code and the offending rover's 1-based index:
//
//	{
//	  "error": "rover 2: invalid command at line 5: \"MMX\"",
//	  "code": "invalid_command",
//	  "rover": 2
//	}
//
// Unknown runs and scenarios return 404, malformed requests 400.
package api
