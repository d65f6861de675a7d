package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// ErrConfigNotFound is returned by a ConfigManager for an unknown preset
var ErrConfigNotFound = errors.New("configuration not found")

// Option customizes the game service
type Option func(*gameServiceImpl)

// WithClock replaces the wall clock used to advance session timelines
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEventSink adds a receiver for session updates
func WithEventSink(sink EventSink) Option {
	return func(s *gameServiceImpl) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	sinks    []EventSink
	now      func() time.Time
	mu       sync.Mutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config := s.configs.GetDefault()
	configID := "default"
	if configName != "" {
		loaded, err := s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) || strings.Contains(err.Error(), "not found") {
				return nil, s.configNotFound(configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
		config = loaded
		configID = configName
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.LastTickAt = s.now()

	log.Info().Str("session", sess.ID).Str("config", configID).Msg("session created")
	return s.info(sess), nil
}

// configNotFound builds a helpful error listing the available presets
func (s *gameServiceImpl) configNotFound(configName string) error {
	available, err := s.configs.ListConfigs()
	if err == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, cfg := range available {
			ids = append(ids, cfg.ConfigID)
		}
		return fmt.Errorf("config '%s' not found. Available configs: %v", configName, ids)
	}
	return fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	s.flush(sess, "state")
	return s.info(sess), nil
}

// ListSessions returns all active sessions. Listing does not advance timelines.
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Tap flips the card at a grid position
func (s *gameServiceImpl) Tap(ctx context.Context, sessionID string, x, y int) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	tap := sess.Engine.Tap(x, y)
	return s.tapResult(sess, tap), nil
}

// TapAt flips the card under a point in view coordinates
func (s *gameServiceImpl) TapAt(ctx context.Context, sessionID string, px, py float64) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	tap := sess.Engine.TapAt(engine.Point{X: px, Y: py})
	result := s.tapResult(sess, tap)
	if tap.Position.X < 0 {
		result.Message = fmt.Sprintf("No card at (%g, %g)", px, py)
	}
	return result, nil
}

func (s *gameServiceImpl) tapResult(sess *Session, tap engine.TapResult) *ActionResult {
	now := s.now()
	result := &ActionResult{Action: "tap", Tap: &tap, Success: tap.Outcome != engine.TapIgnored}
	pos := tap.Position

	switch tap.Outcome {
	case engine.TapIgnored:
		result.Message = fmt.Sprintf("Tap on (%d,%d) ignored: card is not face down or is still animating", pos.X, pos.Y)
	case engine.TapSelected:
		result.Message = fmt.Sprintf("Card (%d,%d) shows %d. Pick its pair", pos.X, pos.Y, tap.Value)
		result.Events = append(result.Events, GameEvent{Type: "selected", Message: result.Message, Timestamp: now, Position: &pos})
	case engine.TapMatched:
		result.Message = fmt.Sprintf("Match! (%d,%d) and (%d,%d) are both %d", tap.Partner.X, tap.Partner.Y, pos.X, pos.Y, tap.Value)
		result.Events = append(result.Events, GameEvent{Type: "match", Message: result.Message, Timestamp: now, Position: &pos})
	case engine.TapMismatched:
		partnerValue := sess.Engine.CardNumberAt(tap.Partner.X, tap.Partner.Y)
		result.Message = fmt.Sprintf("No match: (%d,%d) is %d and (%d,%d) is %d. Both flip back",
			tap.Partner.X, tap.Partner.Y, partnerValue, pos.X, pos.Y, tap.Value)
		result.Events = append(result.Events, GameEvent{Type: "mismatch", Message: result.Message, Timestamp: now, Position: &pos})
	}

	if result.Success {
		sess.TapCount++
	}
	if tap.Outcome == engine.TapMatched && sess.Engine.IsComplete() {
		msg := fmt.Sprintf("All %d pairs found in %d taps", engine.PairCount, sess.TapCount)
		result.Message += ". " + msg
		result.Events = append(result.Events, GameEvent{Type: "complete", Message: msg, Timestamp: now})
	}

	s.finish(sess, result)
	return result
}

// Peek briefly reveals every face-down card
func (s *gameServiceImpl) Peek(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	flipped := sess.Engine.Peek()
	result := &ActionResult{Action: "peek", Flipped: flipped, Success: flipped > 0}
	if flipped > 0 {
		sess.PeekCount++
		result.Message = fmt.Sprintf("Peeking at %d cards", flipped)
		result.Events = append(result.Events, GameEvent{Type: "peek", Message: result.Message, Timestamp: s.now()})
	} else {
		result.Message = "Nothing to peek at"
	}

	s.finish(sess, result)
	return result, nil
}

// SetPadding changes the spacing between cards
func (s *gameServiceImpl) SetPadding(ctx context.Context, sessionID string, padding float64) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.SetPadding(padding); err != nil {
		return nil, err
	}

	w, h := sess.Engine.ViewSize()
	result := &ActionResult{
		Action:  "padding",
		Success: true,
		Message: fmt.Sprintf("Padding set to %g, view is now %gx%g", padding, w, h),
	}
	result.Events = append(result.Events, GameEvent{Type: "padding", Message: result.Message, Timestamp: s.now()})

	s.finish(sess, result)
	return result, nil
}

// Reset reshuffles the board. Effects still in flight finish on screen but no
// longer change the new board.
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Reset()
	sess.TapCount = 0
	sess.PeekCount = 0
	result := &ActionResult{Action: "reset", Success: true, Message: fmt.Sprintf("Cards reshuffled (deal #%d)", sess.Engine.Generation())}
	result.Events = append(result.Events, GameEvent{Type: "reset", Message: result.Message, Timestamp: s.now()})

	s.finish(sess, result)
	return result, nil
}

// Advance moves the session's animation clock forward by d on top of the
// elapsed wall-clock time
func (s *gameServiceImpl) Advance(ctx context.Context, sessionID string, d time.Duration) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d < 0 {
		return nil, fmt.Errorf("advance duration must not be negative, got %v", d)
	}
	sess, caughtUp, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	resolved := caughtUp + sess.Timeline.Advance(d)
	result := &ActionResult{
		Action:   "advance",
		Success:  true,
		Message:  fmt.Sprintf("Advanced %dms, %d effects finished", d.Milliseconds(), resolved),
		Resolved: resolved,
	}
	s.finish(sess, result)
	return result, nil
}

// Settle finishes every effect still in flight
func (s *gameServiceImpl) Settle(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, caughtUp, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	resolved := caughtUp + sess.Timeline.Settle()
	result := &ActionResult{
		Action:   "settle",
		Success:  true,
		Message:  fmt.Sprintf("Settled, %d effects finished", resolved),
		Resolved: resolved,
	}
	s.finish(sess, result)
	return result, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	s.flush(sess, "state")
	return sess.State(), nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	log.Info().Str("config", configName).Msg("config saved")
	return nil
}

// touch loads a session, marks it accessed and catches its timeline up to
// now. It returns the number of effects that finished while catching up.
func (s *gameServiceImpl) touch(sessionID string) (*Session, int, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, 0, fmt.Errorf("session not found: %w", err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to update last accessed time")
	}

	now := s.now()
	resolved := 0
	if !sess.LastTickAt.IsZero() && now.After(sess.LastTickAt) {
		resolved = sess.Timeline.Advance(now.Sub(sess.LastTickAt))
	}
	sess.LastTickAt = now
	return sess, resolved, nil
}

// finish attaches state and drained effects to a result, saves the session and
// notifies sinks
func (s *gameServiceImpl) finish(sess *Session, result *ActionResult) {
	result.Effects = sess.Timeline.Drain()
	result.Pending = sess.Timeline.Pending()
	result.GameState = sess.State()

	if err := s.sessions.Save(sess.ID); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Str("action", result.Action).Msg("failed to persist session")
	}

	log.Debug().
		Str("session", sess.ID).
		Str("action", result.Action).
		Int("effects", len(result.Effects)).
		Int("pending", result.Pending).
		Msg(result.Message)

	s.publish(&Update{
		SessionID: sess.ID,
		Action:    result.Action,
		GameState: result.GameState,
		Effects:   result.Effects,
		Events:    result.Events,
		Timestamp: s.now(),
	})
}

// flush publishes effects that resolved while catching up, for read-only calls
func (s *gameServiceImpl) flush(sess *Session, action string) {
	effects := sess.Timeline.Drain()
	if len(effects) == 0 {
		return
	}
	if err := s.sessions.Save(sess.ID); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("failed to persist session")
	}
	s.publish(&Update{
		SessionID: sess.ID,
		Action:    action,
		GameState: sess.State(),
		Effects:   effects,
		Timestamp: s.now(),
	})
}

func (s *gameServiceImpl) publish(update *Update) {
	for _, sink := range s.sinks {
		sink.Publish(update)
	}
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.State(),
		GameConfig:     sess.Config,
		PendingEffects: sess.Timeline.Pending(),
	}
}
