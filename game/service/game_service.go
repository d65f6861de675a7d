package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/animation"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Tap(ctx context.Context, sessionID string, x, y int) (*ActionResult, error)
	TapAt(ctx context.Context, sessionID string, px, py float64) (*ActionResult, error)
	Peek(ctx context.Context, sessionID string) (*ActionResult, error)
	SetPadding(ctx context.Context, sessionID string, padding float64) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*ActionResult, error)

	// Animation clock
	Advance(ctx context.Context, sessionID string, d time.Duration) (*ActionResult, error)
	Settle(ctx context.Context, sessionID string) (*ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// EventSink receives session updates. Publish must not block for long; it is
// called with the service lock held.
type EventSink interface {
	Publish(update *Update)
}

// Session represents an active game session
type Session struct {
	ID     string
	Engine *engine.GameEngine
	// Timeline is the engine's presenter; effects resolve as it advances.
	Timeline *animation.Timeline
	Config   *engine.GameConfig
	// ConfigID is the preset file the session was created from.
	ConfigID       string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	// LastTickAt is when the timeline was last advanced. Zero until the
	// session handles its first operation.
	LastTickAt time.Time
	TapCount   int
	PeekCount  int
}

// NewSession builds a session whose engine presents through a fresh timeline
func NewSession(id, configID string, config *engine.GameConfig, now time.Time) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	timeline := animation.NewTimeline(config.Animation)
	eng, err := engine.NewEngine(config, engine.WithPresenter(timeline))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return &Session{
		ID:             id,
		Engine:         eng,
		Timeline:       timeline,
		Config:         config,
		ConfigID:       configID,
		CreatedAt:      now,
		LastAccessedAt: now,
	}, nil
}

// State returns the engine state with the session counters filled in
func (s *Session) State() *engine.GameState {
	state := s.Engine.GetState()
	state.TapCount = s.TapCount
	state.PeekCount = s.PeekCount
	return state
}
