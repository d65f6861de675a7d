// Package api serves the memory game over HTTP.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "compact"} optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Board, selection, view size and counters
//   - POST /api/sessions/{id}/tap - {"x": 1, "y": 2} grid tap or {"px": 60, "py": 80} view tap
//   - POST /api/sessions/{id}/peek - Briefly reveal every face-down card
//   - POST /api/sessions/{id}/padding - {"padding": 12}
//   - POST /api/sessions/{id}/reset - Reshuffle
//   - POST /api/sessions/{id}/advance - {"ms": 500} or {"settle": true}
//
// Configuration:
//   - GET /api/configs - List presets
//   - POST /api/configs - Save a preset
//   - GET /api/configs/{name} - Get a preset
//
// WebSocket:
//   - GET /ws?session={id} - Stream updates for one session
//
// Every operation response is a service.ActionResult: the game state after the
// call, the effects the presenter recorded and the number still pending.
//
// Errors are JSON objects with an error field. Unknown sessions and presets
// answer 404, malformed bodies and out-of-range padding answer 400.
//
// Every response carries an X-Request-ID header, echoing the request's when
// one was sent.
package api
