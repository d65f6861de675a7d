package animation

import (
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Kind identifies the instruction an effect carries out
type Kind string

const (
	KindReveal      Kind = "reveal"
	KindHide        Kind = "hide"
	KindRemove      Kind = "remove"
	KindInteraction Kind = "interaction"
)

// Phase marks whether a log entry is the start or the end of an effect
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
	PhaseSet   Phase = "set"
)

// Effect is one entry in the instruction log
type Effect struct {
	Seq     int          `json:"seq"`
	Kind    Kind         `json:"kind"`
	Phase   Phase        `json:"phase"`
	X       int          `json:"x"`
	Y       int          `json:"y"`
	Value   int          `json:"value,omitempty"`
	Cause   engine.Cause `json:"cause,omitempty"`
	Enabled *bool        `json:"enabled,omitempty"`
	AtMS    int64        `json:"at_ms"`
	DueMS   int64        `json:"due_ms,omitempty"`
}

type scheduled struct {
	effect Effect
	due    time.Duration
	done   *engine.Completion
}

// Timeline implements engine.Presenter over a virtual clock. It is not safe
// for concurrent use.
type Timeline struct {
	durations engine.AnimationConfig
	now       time.Duration
	seq       int
	pending   []*scheduled
	log       []Effect
}

// NewTimeline creates a timeline with the given effect durations
func NewTimeline(durations engine.AnimationConfig) *Timeline {
	return &Timeline{durations: durations}
}

// Reveal schedules a flip to the card face
func (t *Timeline) Reveal(pos engine.Position, value int, cause engine.Cause) *engine.Completion {
	d := t.durations.RevealMS
	if cause == engine.CausePeek {
		d = t.durations.PeekMS
	}
	return t.schedule(Effect{Kind: KindReveal, X: pos.X, Y: pos.Y, Value: value, Cause: cause}, d)
}

// Hide schedules a flip to the back face
func (t *Timeline) Hide(pos engine.Position, cause engine.Cause) *engine.Completion {
	d := t.durations.HideMS
	if cause == engine.CausePeek {
		d = t.durations.PeekMS
	}
	return t.schedule(Effect{Kind: KindHide, X: pos.X, Y: pos.Y, Cause: cause}, d)
}

// Remove schedules a fade-out of a matched card
func (t *Timeline) Remove(pos engine.Position) *engine.Completion {
	return t.schedule(Effect{Kind: KindRemove, X: pos.X, Y: pos.Y}, t.durations.FadeMS)
}

// SetInteractionEnabled logs an input toggle; it takes effect immediately
func (t *Timeline) SetInteractionEnabled(pos engine.Position, enabled bool) {
	t.seq++
	t.log = append(t.log, Effect{
		Seq:     t.seq,
		Kind:    KindInteraction,
		Phase:   PhaseSet,
		X:       pos.X,
		Y:       pos.Y,
		Enabled: &enabled,
		AtMS:    t.now.Milliseconds(),
	})
}

func (t *Timeline) schedule(effect Effect, ms int) *engine.Completion {
	t.seq++
	due := t.now + time.Duration(ms)*time.Millisecond
	effect.Seq = t.seq
	effect.Phase = PhaseStart
	effect.AtMS = t.now.Milliseconds()
	effect.DueMS = due.Milliseconds()

	s := &scheduled{effect: effect, due: due, done: engine.NewCompletion()}
	t.pending = append(t.pending, s)
	t.log = append(t.log, effect)
	return s.done
}

// Advance moves the clock forward by d and resolves every effect that falls
// due, including effects scheduled along the way. It returns the number of
// effects resolved.
func (t *Timeline) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	return t.runUntil(t.now + d)
}

// Settle resolves every pending effect, moving the clock as far as needed
func (t *Timeline) Settle() int {
	resolved := 0
	for len(t.pending) > 0 {
		resolved += t.runUntil(t.nextDue())
	}
	return resolved
}

func (t *Timeline) runUntil(target time.Duration) int {
	resolved := 0
	for {
		i := t.nextIndex(target)
		if i < 0 {
			break
		}
		s := t.pending[i]
		t.pending = append(t.pending[:i], t.pending[i+1:]...)
		if s.due > t.now {
			t.now = s.due
		}

		end := s.effect
		end.Phase = PhaseEnd
		end.AtMS = t.now.Milliseconds()
		end.DueMS = 0
		t.log = append(t.log, end)

		s.done.Resolve()
		resolved++
	}
	if target > t.now {
		t.now = target
	}
	return resolved
}

// nextIndex returns the earliest pending effect due by target, or -1
func (t *Timeline) nextIndex(target time.Duration) int {
	best := -1
	for i, s := range t.pending {
		if s.due > target {
			continue
		}
		if best < 0 || s.due < t.pending[best].due ||
			(s.due == t.pending[best].due && s.effect.Seq < t.pending[best].effect.Seq) {
			best = i
		}
	}
	return best
}

func (t *Timeline) nextDue() time.Duration {
	next := t.pending[0].due
	for _, s := range t.pending[1:] {
		if s.due < next {
			next = s.due
		}
	}
	return next
}

// Now returns the virtual clock
func (t *Timeline) Now() time.Duration {
	return t.now
}

// Pending returns the number of effects still in flight
func (t *Timeline) Pending() int {
	return len(t.pending)
}

// Drain returns the log entries recorded since the last drain
func (t *Timeline) Drain() []Effect {
	out := t.log
	t.log = nil
	return out
}
