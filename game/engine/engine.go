package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
)

var (
	ErrInvalidPadding  = errors.New("invalid padding")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsComplete() bool
	MatchedCount() int

	// Input
	Tap(x, y int) TapResult
	TapAt(p Point) TapResult
	Peek() int

	// Board queries
	CardNumberAt(x, y int) int
	CenterOfCardAt(x, y int) Point
	CellAtPoint(p Point) (Position, bool)
	GetCell(x, y int) Cell
	Selection() (Position, bool)

	// Layout
	SetPadding(padding float64) error
	Padding() float64
	ViewSize() (float64, float64)

	// Configuration
	GetConfig() *GameConfig

	// Persistence
	Snapshot() *Snapshot
	Restore(snapshot *Snapshot) error
}

// Option customizes a GameEngine at construction time
type Option func(*GameEngine)

// WithPresenter sets the presenter that receives visual instructions
func WithPresenter(p Presenter) Option {
	return func(e *GameEngine) {
		if p != nil {
			e.presenter = p
		}
	}
}

// WithRand sets the random source used for shuffling
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// GameEngine implements the Engine interface
type GameEngine struct {
	config    *GameConfig
	presenter Presenter
	rng       *rand.Rand

	numbers  []int
	board    [GridSize][GridSize]*Cell
	selected *Cell
	layout   Layout

	// generation is bumped on every reshuffle so continuations issued for an
	// older board are dropped.
	generation int
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:    config,
		presenter: ImmediatePresenter{},
		layout: Layout{
			CardWidth:  config.CardWidth,
			CardHeight: config.CardHeight,
			Padding:    config.Padding,
		},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.deal(Shuffle(e.rng))
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the default configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("engine: default config is invalid: %v", err))
	}
	return e
}

// deal lays numbers out on a fresh board
func (e *GameEngine) deal(numbers []int) {
	e.numbers = numbers
	e.selected = nil
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			e.board[x][y] = &Cell{
				X:                  x,
				Y:                  y,
				Value:              numbers[deckIndex(x, y)],
				State:              FaceDown,
				InteractionEnabled: true,
				Center:             e.layout.CenterOf(x, y),
			}
		}
	}
}

// GetState returns the client-facing view of the board
func (e *GameEngine) GetState() *GameState {
	w, h := e.layout.ViewSize()
	state := &GameState{
		Cells:        make([]CellView, 0, CardCount),
		MatchedCount: e.MatchedCount(),
		Complete:     e.IsComplete(),
		Padding:      e.layout.Padding,
		ViewWidth:    w,
		ViewHeight:   h,
		ConfigName:   e.config.Name,
		Generation:   e.generation,
	}
	e.forEachCell(func(c *Cell) {
		view := CellView{
			X:                  c.X,
			Y:                  c.Y,
			State:              c.State,
			Image:              e.backFace(),
			InteractionEnabled: c.InteractionEnabled,
			Peeking:            c.Peeking,
			Center:             c.Center,
		}
		if c.Visible() {
			view.Value = c.Value
			view.Image = strconv.Itoa(c.Value)
		}
		state.Cells = append(state.Cells, view)
	})
	if pos, ok := e.Selection(); ok {
		state.Selection = &pos
	}
	return state
}

// Reset reshuffles the deck onto a new board and clears the selection
func (e *GameEngine) Reset() *GameState {
	e.generation++
	e.deal(Shuffle(e.rng))
	return e.GetState()
}

// MatchedCount returns the number of cards that have been matched
func (e *GameEngine) MatchedCount() int {
	count := 0
	e.forEachCell(func(c *Cell) {
		if c.State == Matched {
			count++
		}
	})
	return count
}

// IsComplete reports whether every pair has been matched
func (e *GameEngine) IsComplete() bool {
	return e.MatchedCount() == CardCount
}

// Tap flips the card at x,y and resolves a pair when it is the second pick.
// Taps outside the board, on face-up or matched cards, or on cards with
// interaction disabled are ignored.
func (e *GameEngine) Tap(x, y int) TapResult {
	result := TapResult{Outcome: TapIgnored, Position: Position{X: x, Y: y}}
	if !InBounds(x, y) {
		return result
	}
	cell := e.board[x][y]
	if cell.State != FaceDown || !cell.InteractionEnabled {
		return result
	}

	gen := e.generation
	cell.State = FaceUp
	e.setInteraction(cell, false)
	revealed := e.presenter.Reveal(cell.Position(), cell.Value, CauseTap)
	result.Value = cell.Value

	prev := e.selected
	if prev == nil {
		e.selected = cell
		result.Outcome = TapSelected
		return result
	}

	e.selected = nil
	partner := prev.Position()
	result.Partner = &partner

	if prev.Value == cell.Value {
		prev.State = Matched
		cell.State = Matched
		revealed.Then(func() {
			if e.stale(gen) {
				return
			}
			e.presenter.Remove(prev.Position())
			e.presenter.Remove(cell.Position())
		})
		result.Outcome = TapMatched
		return result
	}

	revealed.Then(func() {
		if e.stale(gen) {
			return
		}
		e.flipBack(gen, prev)
		e.flipBack(gen, cell)
	})
	result.Outcome = TapMismatched
	return result
}

// flipBack hides a mismatched card and hands it back to the player once the
// hide has finished
func (e *GameEngine) flipBack(gen int, c *Cell) {
	e.presenter.Hide(c.Position(), CauseTap).Then(func() {
		if e.stale(gen) {
			return
		}
		c.State = FaceDown
		e.setInteraction(c, true)
	})
}

// TapAt hit-tests a view point and taps the card under it
func (e *GameEngine) TapAt(p Point) TapResult {
	pos, ok := e.CellAtPoint(p)
	if !ok {
		return TapResult{Outcome: TapIgnored, Position: Position{X: -1, Y: -1}}
	}
	return e.Tap(pos.X, pos.Y)
}

// Peek briefly reveals every face-down card. It returns the number of cards
// flipped. The current selection is left untouched.
func (e *GameEngine) Peek() int {
	gen := e.generation
	flipped := 0
	e.forEachCell(func(c *Cell) {
		if c.State != FaceDown || c.Peeking {
			return
		}
		c.Peeking = true
		e.setInteraction(c, false)
		flipped++

		e.presenter.Reveal(c.Position(), c.Value, CausePeek).Then(func() {
			if e.stale(gen) {
				return
			}
			e.presenter.Hide(c.Position(), CausePeek).Then(func() {
				if e.stale(gen) {
					return
				}
				c.Peeking = false
				e.setInteraction(c, true)
			})
		})
	})
	return flipped
}

// CardNumberAt returns the value of the card at x,y. It panics when x or y is
// outside the board.
func (e *GameEngine) CardNumberAt(x, y int) int {
	mustInBounds(x, y)
	return e.numbers[deckIndex(x, y)]
}

// CenterOfCardAt returns the center of the card at x,y in view coordinates.
// It panics when x or y is outside the board.
func (e *GameEngine) CenterOfCardAt(x, y int) Point {
	return e.layout.CenterOf(x, y)
}

// CellAtPoint returns the card under a view point
func (e *GameEngine) CellAtPoint(p Point) (Position, bool) {
	return e.layout.CellAt(p)
}

// GetCell returns a copy of the card at x,y. It panics when x or y is outside
// the board.
func (e *GameEngine) GetCell(x, y int) Cell {
	mustInBounds(x, y)
	return *e.board[x][y]
}

// Selection returns the card waiting for a second pick, if any
func (e *GameEngine) Selection() (Position, bool) {
	if e.selected == nil {
		return Position{}, false
	}
	return e.selected.Position(), true
}

// SetPadding changes card spacing and recomputes every card center. Game state
// is unaffected.
func (e *GameEngine) SetPadding(padding float64) error {
	if padding < 0 || padding > MaxPadding {
		return fmt.Errorf("%w: must be between 0 and %d, got %g", ErrInvalidPadding, MaxPadding, padding)
	}
	e.layout.Padding = padding
	e.recomputeLayout()
	return nil
}

func (e *GameEngine) recomputeLayout() {
	e.forEachCell(func(c *Cell) {
		c.Center = e.layout.CenterOf(c.X, c.Y)
	})
}

// Padding returns the current card spacing
func (e *GameEngine) Padding() float64 {
	return e.layout.Padding
}

// ViewSize returns the width and height of the board view
func (e *GameEngine) ViewSize() (float64, float64) {
	return e.layout.ViewSize()
}

// Layout returns the current card geometry
func (e *GameEngine) Layout() Layout {
	return e.layout
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Generation returns how many times the board has been reshuffled
func (e *GameEngine) Generation() int {
	return e.generation
}

// Snapshot returns the settled state of the board. Effects in flight are
// assumed to have finished.
func (e *GameEngine) Snapshot() *Snapshot {
	snap := &Snapshot{
		Numbers: append([]int(nil), e.numbers...),
		Matched: make([]bool, CardCount),
		Padding: e.layout.Padding,
	}
	e.forEachCell(func(c *Cell) {
		snap.Matched[deckIndex(c.X, c.Y)] = c.State == Matched
	})
	if pos, ok := e.Selection(); ok {
		snap.Selection = &pos
	}
	return snap
}

// Restore replaces the board with a snapshot. Pending continuations from the
// previous board are dropped.
func (e *GameEngine) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot cannot be nil", ErrInvalidSnapshot)
	}
	if err := ValidateDeck(snap.Numbers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(snap.Matched) != CardCount {
		return fmt.Errorf("%w: matched must have %d entries, got %d", ErrInvalidSnapshot, CardCount, len(snap.Matched))
	}
	if snap.Selection != nil {
		sel := *snap.Selection
		if !InBounds(sel.X, sel.Y) || snap.Matched[deckIndex(sel.X, sel.Y)] {
			return fmt.Errorf("%w: selection (%d, %d) is not a selectable card", ErrInvalidSnapshot, sel.X, sel.Y)
		}
	}
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			if snap.Matched[deckIndex(x, y)] != snap.Matched[e.partnerIndex(snap.Numbers, x, y)] {
				return fmt.Errorf("%w: card (%d, %d) is matched without its pair", ErrInvalidSnapshot, x, y)
			}
		}
	}
	if err := e.SetPadding(snap.Padding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	e.generation++
	e.deal(append([]int(nil), snap.Numbers...))
	e.forEachCell(func(c *Cell) {
		if snap.Matched[deckIndex(c.X, c.Y)] {
			c.State = Matched
			c.InteractionEnabled = false
		}
	})
	if snap.Selection != nil {
		c := e.board[snap.Selection.X][snap.Selection.Y]
		c.State = FaceUp
		c.InteractionEnabled = false
		e.selected = c
	}
	return nil
}

// partnerIndex returns the deck index of the other card with the same value
func (e *GameEngine) partnerIndex(numbers []int, x, y int) int {
	idx := deckIndex(x, y)
	for i, n := range numbers {
		if i != idx && n == numbers[idx] {
			return i
		}
	}
	return idx
}

func (e *GameEngine) setInteraction(c *Cell, enabled bool) {
	c.InteractionEnabled = enabled
	e.presenter.SetInteractionEnabled(c.Position(), enabled)
}

func (e *GameEngine) stale(gen int) bool {
	return gen != e.generation
}

func (e *GameEngine) backFace() string {
	if e.config.BackFace == "" {
		return DefaultBackFace
	}
	return e.config.BackFace
}

// forEachCell visits cards in deck order
func (e *GameEngine) forEachCell(fn func(c *Cell)) {
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			fn(e.board[x][y])
		}
	}
}
