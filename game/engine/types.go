package engine

// CellState represents the lifecycle state of a card
type CellState string

const (
	FaceDown CellState = "face_down"
	FaceUp   CellState = "face_up"
	Matched  CellState = "matched"

	// Board constants
	GridSize  = 4
	PairCount = GridSize * GridSize / 2
	CardCount = GridSize * GridSize

	// Validation constants
	MaxCardSize        = 1000
	MaxPadding         = 500
	MaxAnimationMillis = 10000

	DefaultCardWidth  = 120
	DefaultCardHeight = 141
	DefaultPadding    = 20
	DefaultBackFace   = "back"
)

// TapOutcome describes what a tap did to the board
type TapOutcome string

const (
	TapIgnored    TapOutcome = "ignored"
	TapSelected   TapOutcome = "selected"
	TapMatched    TapOutcome = "matched"
	TapMismatched TapOutcome = "mismatched"
)

// Cause tells the presenter why a card is being flipped, so it can pick timing
type Cause string

const (
	CauseTap  Cause = "tap"
	CausePeek Cause = "peek"
)

// Position represents x,y grid coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Point is a location in view coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cell represents a single card on the board
type Cell struct {
	X                  int       `json:"x"`
	Y                  int       `json:"y"`
	Value              int       `json:"value"`
	State              CellState `json:"state"`
	InteractionEnabled bool      `json:"interaction_enabled"`
	Peeking            bool      `json:"peeking,omitempty"`
	Center             Point     `json:"center"`
}

// Position returns the grid coordinates of the cell
func (c *Cell) Position() Position {
	return Position{X: c.X, Y: c.Y}
}

// Visible reports whether the card face is currently shown
func (c *Cell) Visible() bool {
	return c.State != FaceDown || c.Peeking
}

// TapResult reports the outcome of a single tap
type TapResult struct {
	Outcome  TapOutcome `json:"outcome"`
	Position Position   `json:"position"`
	Value    int        `json:"value,omitempty"`
	// Partner is the previously selected card when the tap completed a pair
	Partner *Position `json:"partner,omitempty"`
}

// AnimationConfig holds effect durations in milliseconds
type AnimationConfig struct {
	RevealMS int `json:"reveal_ms"`
	HideMS   int `json:"hide_ms"`
	FadeMS   int `json:"fade_ms"`
	PeekMS   int `json:"peek_ms"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CardWidth   float64         `json:"card_width"`
	CardHeight  float64         `json:"card_height"`
	Padding     float64         `json:"padding"`
	BackFace    string          `json:"back_face"`
	Animation   AnimationConfig `json:"animation"`
}

// CellView is the client-facing view of a card. Value is only set while the
// card face is visible.
type CellView struct {
	X                  int       `json:"x"`
	Y                  int       `json:"y"`
	State              CellState `json:"state"`
	Value              int       `json:"value,omitempty"`
	Image              string    `json:"image"`
	InteractionEnabled bool      `json:"interaction_enabled"`
	Peeking            bool      `json:"peeking,omitempty"`
	Center             Point     `json:"center"`
}

// GameState represents the complete client-facing game state
type GameState struct {
	Cells        []CellView `json:"cells"`
	Selection    *Position  `json:"selection,omitempty"`
	MatchedCount int        `json:"matched_count"`
	Complete     bool       `json:"complete"`
	Padding      float64    `json:"padding"`
	ViewWidth    float64    `json:"view_width"`
	ViewHeight   float64    `json:"view_height"`
	ConfigName   string     `json:"config_name"`
	Generation   int        `json:"generation"`

	// Session-level counters, filled in by the service layer
	PeekCount int `json:"peek_count"`
	TapCount  int `json:"tap_count"`
}

// Snapshot is the settled, persistable form of an engine. Cards that are
// waiting to flip back or are being peeked at are stored face down.
type Snapshot struct {
	Numbers   []int     `json:"numbers"`
	Matched   []bool    `json:"matched"`
	Selection *Position `json:"selection,omitempty"`
	Padding   float64   `json:"padding"`
}
