package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Sixteen cards lie face down on a 4x4 grid, hiding eight pairs numbered 1-8.
Tap two cards per turn. Equal numbers stay matched, different numbers flip
back. Find all eight pairs.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage games
- game_state: the board, the current selection and counters
- tap: turn over the card at grid x,y (or at view point px,py)
- peek: briefly reveal every face-down card
- set_padding: change the spacing between cards
- advance: move the animation clock forward, or settle it
- reset_game: reshuffle the board
- list_configs: available presets
- game_instructions: full rules

Cards animate. A mismatched pair only flips back once its animation has
finished, so call advance with settle=true when a tap is ignored.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, e.g. default, compact, relaxed, instant (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the board: which cards are face down, face up or matched, plus the current selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tap",
		Description: "Turn over a card. Pass grid coordinates x,y (0-3) or view coordinates px,py.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the card (0-3)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the card (0-3)",
				},
				"px": map[string]interface{}{
					"type":        "number",
					"description": "Horizontal view coordinate, used when x,y are omitted",
				},
				"py": map[string]interface{}{
					"type":        "number",
					"description": "Vertical view coordinate, used when x,y are omitted",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you are tapping this card",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "peek",
		Description: "Briefly reveal every face-down card, then hide them again",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handlePeek)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_padding",
		Description: "Change the spacing between cards; card centers and view size are recomputed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"padding": map[string]interface{}{
					"type":        "number",
					"description": fmt.Sprintf("New padding in points (0-%d)", engine.MaxPadding),
				},
			},
			Required: []string{"session_id", "padding"},
		},
	}, c.handleSetPadding)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance",
		Description: "Move the animation clock forward so pending flips finish",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"ms": map[string]interface{}{
					"type":        "integer",
					"description": "Milliseconds to advance",
				},
				"settle": map[string]interface{}{
					"type":        "boolean",
					"description": "Finish every pending animation",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAdvance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reshuffle the cards and start over",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
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
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// number reads a JSON number argument
func number(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return fmt.Sprintf("/api/sessions/%s%s", sessionID, suffix)
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		matched := 0
		if s.GameState != nil {
			matched = s.GameState.MatchedCount
		}
		fmt.Fprintf(&result, "- %s (Config: %s, Pairs: %d/%d, Created: %s)\n",
			s.ID, s.ConfigName, matched, engine.PairCount, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleTap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	// Intent serves as rubber duck debugging and is not sent
	body := map[string]interface{}{}
	x, hasX := number(args, "x")
	y, hasY := number(args, "y")
	px, hasPX := number(args, "px")
	py, hasPY := number(args, "py")
	switch {
	case hasX && hasY:
		body["x"], body["y"] = int(x), int(y)
	case hasPX && hasPY:
		body["px"], body["py"] = px, py
	default:
		return mcp.NewToolResultError("tap needs x and y, or px and py"), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/tap"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handlePeek(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/peek"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleSetPadding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	padding, ok := number(args, "padding")
	if !ok {
		return mcp.NewToolResultError("padding must be a number"), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/padding"), map[string]float64{"padding": padding}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	settle, _ := args["settle"].(bool)
	ms, _ := number(args, "ms")

	body := map[string]interface{}{"ms": int64(ms), "settle": settle}
	if !settle && ms <= 0 {
		body["settle"] = true
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/advance"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&result, "• %s (%s)\n  %s\n  Cards: %gx%g, Padding: %g, View: %gx%g\n\n",
			config.ConfigID, config.Name, config.Description,
			config.CardWidth, config.CardHeight, config.Padding, config.ViewWidth, config.ViewHeight)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🃏 Memory Match Game - Complete Instructions

GAME OBJECTIVE:
Find all eight pairs of numbered cards hidden on a 4x4 grid.

BOARD:
• Columns are x (0-3, left to right), rows are y (0-3, top to bottom)
• ?? - face-down card
• [n] - face-up card showing number n
• ~n - face-down card briefly revealed by a peek
• -- - matched card, removed from play

TURNS:
1. Tap a face-down card. It turns face up and becomes your selection.
2. Tap a second face-down card.
   • Same number: both cards are matched and fade out.
   • Different number: both flip back face down once the reveal finishes.
3. Taps on face-up, matched or still-animating cards are ignored.

ANIMATION TIMING:
Cards take time to flip. Until a mismatched pair has flipped back, those two
cards ignore taps. Use advance with settle=true to finish every pending
animation immediately, or advance with ms to step the clock.

PEEK:
peek flips every face-down card up for a moment and back down again. Cards
being peeked at cannot be tapped until the peek finishes.

LAYOUT:
Cards are laid out with configurable padding. set_padding recomputes every
card center and the view size ((4 × card width) + (5 × padding) wide). The
px,py form of tap hit-tests a point in view coordinates; a point between
cards taps nothing.

STRATEGY TIPS:
• Remember every number you have seen; a mismatch still tells you two cards
• Use a peek early to memorize as much of the board as you can
• Settle animations before reading the board so nothing is mid-flip

MOVEMENT COMMANDS:
• tap {session_id, x, y}
• tap {session_id, px, py}
• peek {session_id}
• advance {session_id, settle: true}

VICTORY CONDITIONS:
All eight pairs matched. The board reports complete and the result message
tells you how many taps it took.

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nPending effects: %d\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.PendingEffects,
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Pairs: %d/%d | Taps: %d | Peeks: %d | Padding: %g | View: %gx%g\n\n",
		state.MatchedCount, engine.PairCount, state.TapCount, state.PeekCount,
		state.Padding, state.ViewWidth, state.ViewHeight)

	result.WriteString(formatBoard(state))

	if state.Selection != nil {
		fmt.Fprintf(&result, "\nSelected: (%d,%d)", state.Selection.X, state.Selection.Y)
	}
	if state.Complete {
		result.WriteString("\n🎉 ALL PAIRS FOUND!")
	}

	return result.String()
}

// formatBoard renders the grid with rows as y and columns as x
func formatBoard(state *engine.GameState) string {
	var cells [engine.GridSize][engine.GridSize]*engine.CellView
	for i := range state.Cells {
		cell := &state.Cells[i]
		if engine.InBounds(cell.X, cell.Y) {
			cells[cell.X][cell.Y] = cell
		}
	}

	var b strings.Builder
	b.WriteString("     x=0  x=1  x=2  x=3\n")
	for y := 0; y < engine.GridSize; y++ {
		fmt.Fprintf(&b, "y=%d ", y)
		for x := 0; x < engine.GridSize; x++ {
			fmt.Fprintf(&b, " %-4s", cellLabel(cells[x][y]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellLabel(cell *engine.CellView) string {
	if cell == nil {
		return "."
	}
	switch {
	case cell.State == engine.Matched:
		return "--"
	case cell.State == engine.FaceUp:
		return fmt.Sprintf("[%d]", cell.Value)
	case cell.Peeking && cell.Value > 0:
		return fmt.Sprintf("~%d", cell.Value)
	default:
		return "??"
	}
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	b.WriteString(result.Message)
	b.WriteString("\n")

	if result.Pending > 0 {
		fmt.Fprintf(&b, "Animations pending: %d (advance with settle=true to finish them)\n", result.Pending)
	}
	for _, event := range result.Events {
		if event.Type == "complete" {
			fmt.Fprintf(&b, "🏁 %s\n", event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}
