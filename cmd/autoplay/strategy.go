package main

import "github.com/wricardo/mcp-training/memorygame/game/engine"

// MemoryStrategy remembers every card face it has seen and taps known pairs
// before exploring unseen cards.
type MemoryStrategy struct {
	seen map[engine.Position]int
}

func NewMemoryStrategy() *MemoryStrategy {
	return &MemoryStrategy{seen: make(map[engine.Position]int)}
}

// Reset forgets every card, for a reshuffled board
func (s *MemoryStrategy) Reset() {
	clear(s.seen)
}

// Known returns the number of unmatched cards whose value is remembered
func (s *MemoryStrategy) Known() int {
	return len(s.seen)
}

// Observe records every visible face and forgets matched cards
func (s *MemoryStrategy) Observe(state *engine.GameState) {
	if state == nil {
		return
	}
	for _, cell := range state.Cells {
		pos := engine.Position{X: cell.X, Y: cell.Y}
		switch {
		case cell.State == engine.Matched:
			delete(s.seen, pos)
		case cell.Value > 0:
			s.seen[pos] = cell.Value
		}
	}
}

// Remember records a value learned outside a state snapshot
func (s *MemoryStrategy) Remember(pos engine.Position, value int) {
	if value > 0 {
		s.seen[pos] = value
	}
}

// NextTap picks the next card to tap on a settled board. It returns false
// when no card can be tapped.
func (s *MemoryStrategy) NextTap(state *engine.GameState) (engine.Position, bool) {
	open := tappable(state)
	if len(open) == 0 {
		return engine.Position{}, false
	}

	if sel := state.Selection; sel != nil {
		if value, ok := s.seen[*sel]; ok {
			for _, pos := range open {
				if pos != *sel && s.seen[pos] == value {
					return pos, true
				}
			}
		}
		return s.explore(open, *sel), true
	}

	if a, _, ok := s.knownPair(open); ok {
		return a, true
	}
	return s.explore(open, engine.Position{X: -1, Y: -1}), true
}

// knownPair finds two tappable cards remembered with the same value
func (s *MemoryStrategy) knownPair(open []engine.Position) (engine.Position, engine.Position, bool) {
	first := make(map[int]engine.Position)
	for _, pos := range open {
		value, ok := s.seen[pos]
		if !ok {
			continue
		}
		if other, dup := first[value]; dup {
			return other, pos, true
		}
		first[value] = pos
	}
	return engine.Position{}, engine.Position{}, false
}

// explore prefers an unseen card, falling back to any tappable one
func (s *MemoryStrategy) explore(open []engine.Position, skip engine.Position) engine.Position {
	fallback := open[0]
	for _, pos := range open {
		if pos == skip {
			continue
		}
		if _, ok := s.seen[pos]; !ok {
			return pos
		}
		fallback = pos
	}
	return fallback
}

// tappable lists face-down cards accepting input, in board order
func tappable(state *engine.GameState) []engine.Position {
	var out []engine.Position
	for _, cell := range state.Cells {
		if cell.State == engine.FaceDown && cell.InteractionEnabled {
			out = append(out, engine.Position{X: cell.X, Y: cell.Y})
		}
	}
	return out
}
