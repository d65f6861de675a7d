// Package session provides session management for the memory match game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiration
//   - Persistence to JSON files or a SQLite database
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Sessions are service.Session values: an engine, its animation timeline and
// metadata like creation time and last access time.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive. Caller-supplied IDs may only contain letters, digits,
// dashes and underscores.
//
// Persistence:
//
// FilePersistence writes one JSON document per session; SQLitePersistence
// stores the same document in a sessions table. Both store a settled
// snapshot of the board. Cards that were mid flip-back or mid peek come back
// face down, and effects that were in flight are not replayed.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("data/sessions.db", configMgr)
//	manager := session.NewManagerWithPersistence(store)
//
//	// Create a new session
//	sess, err := manager.Create("", "default", configMgr.GetDefault())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing session
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// CleanupExpiredSessions evicts idle sessions from memory; they reload from
// storage on the next Get. PurgePersisted removes old records for backends
// that support it.
package session
