// Package websocket streams session updates to browser clients.
//
// A central Hub owns every connection. Clients subscribe to one session by
// connecting to /ws?session=<id> and receive JSON messages:
//
//	{"session_id": "ab12", "event": "state_update", "action": "tap", "game_state": {...}, "events": [...]}
//	{"session_id": "ab12", "event": "effects", "action": "tap", "effects": [...]}
//
// The effects message carries the presentation log (reveal, hide, remove and
// interaction entries with their virtual timestamps) so a renderer can play
// the same flips the engine waited on.
//
// The Hub implements service.EventSink, so wiring it is one option:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	svc := service.NewGameService(sessions, configs, service.WithEventSink(hub))
//
// Publish never blocks the game service. When the broadcast queue is full the
// message is dropped and logged, and a client whose send buffer is full is
// disconnected.
package websocket
