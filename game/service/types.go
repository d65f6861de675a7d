package service

import (
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/animation"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
	PendingEffects int                `json:"pending_effects"`
}

// ActionResult contains the outcome of an operation on a session
type ActionResult struct {
	Action    string            `json:"action"`
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	GameState *engine.GameState `json:"game_state"`

	// Tap is set for tap operations
	Tap *engine.TapResult `json:"tap,omitempty"`
	// Flipped is the number of cards a peek turned over
	Flipped int `json:"flipped,omitempty"`
	// Resolved counts effects finished by this call, including the catch-up
	// to wall-clock time
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`

	Effects []animation.Effect `json:"effects,omitempty"`
	Events  []GameEvent        `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"` // "selected", "match", "mismatch", "complete", "peek", "padding", "reset"
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Position  *engine.Position `json:"position,omitempty"`
}

// Update is what an EventSink receives after a session changed
type Update struct {
	SessionID string             `json:"session_id"`
	Action    string             `json:"action"`
	GameState *engine.GameState  `json:"game_state"`
	Effects   []animation.Effect `json:"effects,omitempty"`
	Events    []GameEvent        `json:"events,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string  `json:"filename"`
	ConfigID    string  `json:"config_id"` // The identifier to use for session creation
	Name        string  `json:"name"`      // Display name
	Description string  `json:"description"`
	CardWidth   float64 `json:"card_width"`
	CardHeight  float64 `json:"card_height"`
	Padding     float64 `json:"padding"`
	ViewWidth   float64 `json:"view_width"`
	ViewHeight  float64 `json:"view_height"`
}

// NewConfigInfo summarizes a configuration stored under configID
func NewConfigInfo(configID string, config *engine.GameConfig) *ConfigInfo {
	layout := engine.Layout{CardWidth: config.CardWidth, CardHeight: config.CardHeight, Padding: config.Padding}
	w, h := layout.ViewSize()
	return &ConfigInfo{
		Filename:    configID + ".json",
		ConfigID:    configID,
		Name:        config.Name,
		Description: config.Description,
		CardWidth:   config.CardWidth,
		CardHeight:  config.CardHeight,
		Padding:     config.Padding,
		ViewWidth:   w,
		ViewHeight:  h,
	}
}
