// Package animation provides a virtual-clock presenter for the match engine.
//
// A Timeline records every instruction the engine issues (reveal, hide,
// remove, interaction toggles) as an Effect with a start and due time taken
// from the configured durations. Nothing advances on its own: callers move the
// clock with Advance or finish everything with Settle, and each effect whose
// due time has passed resolves its completion, in due-time order. Effects
// scheduled by those completions are resolved in the same call when they are
// already due.
//
// The server advances a session's timeline by the wall-clock time elapsed
// between requests, so remote clients see cards flip back at the same pace a
// native UI would animate them.
package animation
