// Package service provides the business logic layer for the memory match game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration management and loading
//   - Tap, peek, padding and reset handling
//   - Driving each session's animation timeline from wall-clock time
//   - Session lifecycle management and auto-save
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
// EventSink receives an Update after every operation that changed a session.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP/NATS)
// and the game engine. Each session owns an engine and an animation.Timeline
// that acts as the engine's presenter. Before any operation runs, the timeline
// is advanced by the wall-clock time elapsed since the session was last
// touched, so flip-backs and fades finish between requests the same way they
// would on screen.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	// Create a new session
//	sessionInfo, err := gameService.CreateSession(ctx, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Flip two cards
//	result, err := gameService.Tap(ctx, sessionInfo.ID, 0, 0)
//	result, err = gameService.Tap(ctx, sessionInfo.ID, 1, 0)
//
// Concurrency:
//
// The engine and timeline are single-threaded. The service serializes every
// operation behind one mutex, so transports may call it from any goroutine.
package service
