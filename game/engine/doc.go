// Package engine provides the core game logic for the Memory Match Game.
//
// The engine package implements the game mechanics including:
//   - Shuffling the sixteen cards (eight pairs) onto a 4x4 board
//   - Coordinate math between grid cells, card values and on-screen centers
//   - The two-card tap state machine (select, match, mismatch)
//   - The peek cheat that briefly reveals every face-down card
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Cell holds the per-card state, GameState is the
// client-facing view of the board, and GameConfig defines card geometry and
// animation timing loaded from JSON files.
//
// Presentation:
//
// The engine never animates anything itself. Every visual change is issued to
// a Presenter, and Reveal, Hide and Remove return a *Completion that the
// presenter resolves once the effect has finished. Work that must happen after
// an effect (flipping a mismatched pair back, re-enabling input) is chained on
// those completions with Then.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithPresenter(p))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := gameEngine.Tap(0, 3)
//	state := gameEngine.GetState()
//
// Concurrency:
//
// A GameEngine is not safe for concurrent use. Taps, peeks and completion
// callbacks must be delivered from a single goroutine or under a lock held by
// the caller.
package engine
