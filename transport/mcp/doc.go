// Package mcp exposes the memory game to AI agents over the Model Context
// Protocol.
//
// The client holds no game state. Every tool call is proxied to the REST API
// of a running server, so agents and browsers share the same sessions.
//
// MCP Tools:
//   - create_session, get_session, list_sessions: session management
//   - game_state: board with rows as y and columns as x
//   - tap: grid (x, y) or view point (px, py)
//   - peek: briefly reveal every face-down card
//   - set_padding: change spacing between cards
//   - advance: step or settle the animation clock
//   - reset_game: reshuffle
//   - list_configs: presets
//   - game_instructions: rules and tips
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
