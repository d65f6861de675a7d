package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the stored form of a session. The board is
// kept as a settled snapshot: effects in flight are not stored.
type PersistedSessionData struct {
	ID             string           `json:"id"`
	ConfigName     string           `json:"config_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
	TapCount       int              `json:"tap_count"`
	PeekCount      int              `json:"peek_count"`
}

func newPersistedData(session *service.Session) *PersistedSessionData {
	return &PersistedSessionData{
		ID:             session.ID,
		ConfigName:     session.ConfigID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Snapshot:       session.Engine.Snapshot(),
		TapCount:       session.TapCount,
		PeekCount:      session.PeekCount,
	}
}

func encodeSession(session *service.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	data, err := json.MarshalIndent(newPersistedData(session), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return data, nil
}

// decodeSession rebuilds a live session from stored JSON. A preset that no
// longer exists falls back to the default configuration.
func decodeSession(raw []byte, configs service.ConfigManager) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	gameConfig, err := configs.LoadConfig(data.ConfigName)
	if err != nil {
		log.Warn().Err(err).Str("session", data.ID).Str("config", data.ConfigName).
			Msg("persisted config unavailable, using default")
		gameConfig = configs.GetDefault()
	}

	session, err := service.NewSession(data.ID, data.ConfigName, gameConfig, data.CreatedAt)
	if err != nil {
		return nil, err
	}
	session.LastAccessedAt = data.LastAccessedAt
	session.TapCount = data.TapCount
	session.PeekCount = data.PeekCount

	if data.Snapshot != nil {
		if err := session.Engine.Restore(data.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to restore board: %w", err)
		}
	}
	return session, nil
}
