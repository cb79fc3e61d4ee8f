package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/marsrover/rover/engine"
	"github.com/wricardo/mcp-training/marsrover/rover/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL, version string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer(version)
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Mars Rover Simulator",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mars Rover Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Rovers move on a rectangular grid. Each rover executes all of its commands
before the next one starts, and a rover never moves into a cell outside the
grid or a cell where an earlier rover stopped. Blocked moves are skipped.

AVAILABLE TOOLS:
- simulate: Run an instruction set given as text
- run_scenario: Run a stored scenario
- list_scenarios / get_scenario / save_scenario: Manage stored scenarios
- list_runs / get_run / delete_run: Browse archived runs
- rover_instructions: Input format and movement rules`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	traceProperty := map[string]interface{}{
		"type":        "boolean",
		"description": "Include every executed command in the result (optional)",
	}

	// Simulations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulate",
		Description: "Simulate an instruction set: a grid line, then a position line and a command line per rover",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"input": map[string]interface{}{
					"type":        "string",
					"description": "Newline-separated instructions, e.g. \"5 5\\n1 2 N\\nLMLMLMLMM\"",
				},
				"trace": traceProperty,
			},
			Required: []string{"input"},
		},
	}, c.handleSimulate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_scenario",
		Description: "Simulate a stored scenario",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario to run; see list_scenarios",
				},
				"trace": traceProperty,
			},
			Required: []string{"scenario_id"},
		},
	}, c.handleRunScenario)

	// Scenarios
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List stored scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_scenario",
		Description: "Show the instructions of a stored scenario",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario ID",
				},
			},
			Required: []string{"scenario_id"},
		},
	}, c.handleGetScenario)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_scenario",
		Description: "Validate and store an instruction set as a named scenario",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Scenario name (letters, digits, '-' and '_')",
				},
				"input": map[string]interface{}{
					"type":        "string",
					"description": "Newline-separated instructions",
				},
			},
			Required: []string{"name", "input"},
		},
	}, c.handleSaveScenario)

	// Run archive
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List archived runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this scenario (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of runs (optional)",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Show an archived run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_run",
		Description: "Delete an archived run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleDeleteRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rover_instructions",
		Description: "Explain the input format and movement rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRoverInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
			Rover int    `json:"rover"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		switch {
		case errResp.Error == "":
			return fmt.Errorf("API error: %d", resp.StatusCode)
		case errResp.Rover > 0:
			return fmt.Errorf("%s (code %s, rover %d)", errResp.Error, errResp.Code, errResp.Rover)
		case errResp.Code != "":
			return fmt.Errorf("%s (code %s)", errResp.Error, errResp.Code)
		}
		return fmt.Errorf("%s", errResp.Error)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// Tool handlers

func (c *Client) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	input, _ := args["input"].(string)
	trace, _ := args["trace"].(bool)

	if strings.TrimSpace(input) == "" {
		return mcp.NewToolResultError("input is required"), nil
	}

	body := map[string]interface{}{
		"input": input,
		"trace": trace,
	}

	var run service.Run
	if err := c.apiCall(ctx, "POST", "/api/simulations", body, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleRunScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)
	trace, _ := args["trace"].(bool)

	if scenarioID == "" {
		return mcp.NewToolResultError("scenario_id is required"), nil
	}

	var run service.Run
	path := fmt.Sprintf("/api/scenarios/%s/run", url.PathEscape(scenarioID))
	if err := c.apiCall(ctx, "POST", path, map[string]bool{"trace": trace}, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scenarios (%d):\n\n", len(scenarios))
	for _, sc := range scenarios {
		fmt.Fprintf(&b, "- %s (grid %s, %d rovers)\n", sc.ScenarioID, formatGrid(sc.Boundary), sc.Rovers)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarioID, _ := arguments(request)["scenario_id"].(string)

	var sc service.Scenario
	if err := c.apiCall(ctx, "GET", "/api/scenarios/"+url.PathEscape(scenarioID), nil, &sc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Scenario %s (grid %s, %d rovers):\n\n%s\n",
		sc.ID, formatGrid(sc.Boundary), sc.Rovers, strings.Join(sc.Lines, "\n"))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSaveScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, _ := args["name"].(string)
	input, _ := args["input"].(string)

	body := map[string]string{
		"name":  name,
		"input": input,
	}

	var info service.ScenarioInfo
	if err := c.apiCall(ctx, "POST", "/api/scenarios", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Saved scenario %s (grid %s, %d rovers)\n", info.ScenarioID, formatGrid(info.Boundary), info.Rovers)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	query := url.Values{}
	if scenarioID, _ := args["scenario_id"].(string); scenarioID != "" {
		query.Set("scenario", scenarioID)
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", int(limit)))
	}

	path := "/api/runs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count int           `json:"count"`
		Total int           `json:"total"`
		Runs  []service.Run `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d of %d):\n\n", response.Count, response.Total)
	for _, run := range response.Runs {
		scenario := run.ScenarioID
		if scenario == "" {
			scenario = "(inline input)"
		}
		fmt.Fprintf(&b, "- %s %s at %s: %s\n",
			run.ID, scenario, run.CreatedAt.Format("15:04:05"), strings.Join(run.Output, " | "))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)

	var run service.Run
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(runID), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleDeleteRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)

	if err := c.apiCall(ctx, "DELETE", "/api/runs/"+url.PathEscape(runID), nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted run %s\n", runID)), nil
}

func (c *Client) handleRoverInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `MARS ROVER SIMULATOR

INPUT FORMAT:
  Line 1:   "<X> <Y>"        upper-right corner of the grid; lower-left is 0 0
  Then, per rover, two lines:
            "<x> <y> <O>"    start position and orientation (N, E, S or W)
            "<commands>"     L, R and M only; may be empty

  Example:
    5 5
    1 2 N
    LMLMLMLMM
    3 3 E
    MMRMMRMRRM

COMMANDS:
  L  rotate 90 degrees left  (N -> W -> S -> E -> N)
  R  rotate 90 degrees right (N -> E -> S -> W -> N)
  M  move one cell forward   (N: y+1, E: x+1, S: y-1, W: x-1)

RULES:
  - Rovers run one at a time, in input order.
  - A move is skipped when the target cell is outside the grid or is where
    an earlier rover stopped. The rover keeps executing its remaining
    commands.
  - Rovers that have not run yet do not block anybody.
  - The output is one "<x> <y> <O>" line per rover, in input order.

ERRORS:
  The whole input is rejected on the first malformed line:
  invalid_boundary, invalid_rover_position, missing_commands,
  invalid_command, incomplete_input. Rover errors carry the 1-based rover
  index.

EXPECTED OUTPUT FOR THE EXAMPLE:
  1 3 N
  5 1 E`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatGrid(boundary engine.Position) string {
	return fmt.Sprintf("%dx%d", boundary.X+1, boundary.Y+1)
}

func formatRun(run *service.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s", run.ID)
	if run.ScenarioID != "" {
		fmt.Fprintf(&b, " (scenario %s)", run.ScenarioID)
	}
	fmt.Fprintf(&b, "\nGrid: 0 0 to %s\n\nOutput:\n", run.Boundary)
	for _, line := range run.Output {
		fmt.Fprintf(&b, "%s\n", line)
	}

	b.WriteString("\nRovers:\n")
	for _, rover := range run.Rovers {
		commands := rover.Commands
		if commands == "" {
			commands = "(none)"
		}
		fmt.Fprintf(&b, "  #%d %s + %s -> %s (moves %d, rotations %d, blocked %d)\n",
			rover.Index, rover.Start.String(), commands, rover.Output, rover.Moves, rover.Rotations, rover.Blocked)

		for _, step := range rover.Steps {
			fmt.Fprintf(&b, "     [%d] %s %s -> %s facing %s: %s\n",
				step.Index, step.Command, step.From, step.To, step.Orientation, step.Outcome)
		}
	}

	return b.String()
}
