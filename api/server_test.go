package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	TapFunc        func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error)
	TapAtFunc      func(ctx context.Context, sessionID string, px, py float64) (*service.ActionResult, error)
	PeekFunc       func(ctx context.Context, sessionID string) (*service.ActionResult, error)
	SetPaddingFunc func(ctx context.Context, sessionID string, padding float64) (*service.ActionResult, error)
	ResetFunc      func(ctx context.Context, sessionID string) (*service.ActionResult, error)
	AdvanceFunc    func(ctx context.Context, sessionID string, d time.Duration) (*service.ActionResult, error)
	SettleFunc     func(ctx context.Context, sessionID string) (*service.ActionResult, error)

	// Game State
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func okResult(action string) *service.ActionResult {
	return &service.ActionResult{Action: action, Success: true, GameState: &engine.GameState{}}
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game Operations
func (m *MockGameService) Tap(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
	if m.TapFunc != nil {
		return m.TapFunc(ctx, sessionID, x, y)
	}
	return okResult("tap"), nil
}

func (m *MockGameService) TapAt(ctx context.Context, sessionID string, px, py float64) (*service.ActionResult, error) {
	if m.TapAtFunc != nil {
		return m.TapAtFunc(ctx, sessionID, px, py)
	}
	return okResult("tap"), nil
}

func (m *MockGameService) Peek(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.PeekFunc != nil {
		return m.PeekFunc(ctx, sessionID)
	}
	return okResult("peek"), nil
}

func (m *MockGameService) SetPadding(ctx context.Context, sessionID string, padding float64) (*service.ActionResult, error) {
	if m.SetPaddingFunc != nil {
		return m.SetPaddingFunc(ctx, sessionID, padding)
	}
	return okResult("padding"), nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return okResult("reset"), nil
}

func (m *MockGameService) Advance(ctx context.Context, sessionID string, d time.Duration) (*service.ActionResult, error) {
	if m.AdvanceFunc != nil {
		return m.AdvanceFunc(ctx, sessionID, d)
	}
	return okResult("advance"), nil
}

func (m *MockGameService) Settle(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.SettleFunc != nil {
		return m.SettleFunc(ctx, sessionID)
	}
	return okResult("settle"), nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{
		Name:        configName,
		Description: "Test config",
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

var errSessionNotFound = fmt.Errorf("session not found: %w", fmt.Errorf("session 'nope' not found"))

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "default", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "compact"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "compact" {
					t.Errorf("Expected config name 'compact', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Legacy config_name still accepted",
			requestBody: map[string]string{"config_name": "relaxed"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "relaxed" {
						t.Errorf("Expected config name 'relaxed', got %s", configName)
					}
					return &service.SessionInfo{ID: "ef56", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config 'missing' not found. Available configs: [default]")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Handle service error",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := serve(server, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Minute)},
				{ID: "b", CreatedAt: base.Add(time.Minute), LastAccessedAt: base.Add(time.Minute)},
				{ID: "c", CreatedAt: base.Add(2 * time.Minute), LastAccessedAt: base.Add(2 * time.Minute)},
			}, nil
		},
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
		total   int
	}{
		{"default sorts by last access, newest first", "", []string{"a", "c", "b"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"a", "b", "c"}, 3},
		{"limit", "?sort=created&limit=2", []string{"c", "b"}, 3},
		{"limit larger than list", "?limit=10", []string{"a", "c", "b"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(setupTestServer(mock), makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.total || resp.Count != len(tt.wantIDs) {
				t.Errorf("Expected count %d total %d, got %d/%d", len(tt.wantIDs), tt.total, resp.Count, resp.Total)
			}
			for i, id := range tt.wantIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Fatalf("Expected order %v, got %+v", tt.wantIDs, resp.Sessions)
				}
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "nope" {
				return nil, errSessionNotFound
			}
			return &service.SessionInfo{ID: sessionID, PendingEffects: 2}, nil
		},
	}
	server := setupTestServer(mock)

	w := serve(server, makeRequest("GET", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	if info.ID != "ab12" || info.PendingEffects != 2 {
		t.Errorf("Unexpected session info: %+v", info)
	}

	if w := serve(server, makeRequest("GET", "/api/sessions/nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown session, got %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	mock := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "nope" {
				return errSessionNotFound
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(mock)

	if w := serve(server, makeRequest("DELETE", "/api/sessions/ab12", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "ab12" {
		t.Errorf("Expected ab12 to be deleted, got %q", deleted)
	}
	if w := serve(server, makeRequest("DELETE", "/api/sessions/nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestTap(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*testing.T, *MockGameService)
		expectedStatus int
	}{
		{
			name: "Grid tap",
			body: map[string]int{"x": 1, "y": 2},
			setupMock: func(t *testing.T, m *MockGameService) {
				m.TapFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					if sessionID != "ab12" || x != 1 || y != 2 {
						t.Errorf("Unexpected tap %s (%d,%d)", sessionID, x, y)
					}
					return okResult("tap"), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Grid tap at origin",
			body: map[string]int{"x": 0, "y": 0},
			setupMock: func(t *testing.T, m *MockGameService) {
				m.TapAtFunc = func(ctx context.Context, sessionID string, px, py float64) (*service.ActionResult, error) {
					t.Error("Expected a grid tap, got a point tap")
					return okResult("tap"), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Point tap",
			body: map[string]float64{"px": 60.5, "py": 80},
			setupMock: func(t *testing.T, m *MockGameService) {
				m.TapAtFunc = func(ctx context.Context, sessionID string, px, py float64) (*service.ActionResult, error) {
					if px != 60.5 || py != 80 {
						t.Errorf("Unexpected point (%g,%g)", px, py)
					}
					return okResult("tap"), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Out of range grid tap",
			body:           map[string]int{"x": 4, "y": 0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing coordinates",
			body:           map[string]int{"x": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unknown session",
			body: map[string]int{"x": 1, "y": 1},
			setupMock: func(t *testing.T, m *MockGameService) {
				m.TapFunc = func(ctx context.Context, sessionID string, x, y int) (*service.ActionResult, error) {
					return nil, errSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(t, mock)
			}
			w := serve(setupTestServer(mock), makeRequest("POST", "/api/sessions/ab12/tap", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestTapInvalidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/sessions/ab12/tap", bytes.NewBufferString("{not json"))
	if w := serve(setupTestServer(&MockGameService{}), req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPeek(t *testing.T) {
	mock := &MockGameService{
		PeekFunc: func(ctx context.Context, sessionID string) (*service.ActionResult, error) {
			return &service.ActionResult{Action: "peek", Success: true, Flipped: 15, Pending: 15, GameState: &engine.GameState{}}, nil
		},
	}

	w := serve(setupTestServer(mock), makeRequest("POST", "/api/sessions/ab12/peek", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var result service.ActionResult
	parseResponse(t, w, &result)
	if result.Flipped != 15 || result.Pending != 15 {
		t.Errorf("Unexpected peek result: %+v", result)
	}
}

func TestSetPadding(t *testing.T) {
	mock := &MockGameService{
		SetPaddingFunc: func(ctx context.Context, sessionID string, padding float64) (*service.ActionResult, error) {
			if padding < 0 {
				return nil, fmt.Errorf("%w: must be between 0 and %d, got %g", engine.ErrInvalidPadding, engine.MaxPadding, padding)
			}
			return &service.ActionResult{Action: "padding", Success: true, GameState: &engine.GameState{Padding: padding}}, nil
		},
	}

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"valid padding", map[string]float64{"padding": 12}, http.StatusOK},
		{"zero padding", map[string]float64{"padding": 0}, http.StatusOK},
		{"negative padding", map[string]float64{"padding": -1}, http.StatusBadRequest},
		{"missing padding", map[string]string{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(setupTestServer(mock), makeRequest("POST", "/api/sessions/ab12/padding", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestReset(t *testing.T) {
	called := false
	mock := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*service.ActionResult, error) {
			called = true
			return okResult("reset"), nil
		},
	}

	w := serve(setupTestServer(mock), makeRequest("POST", "/api/sessions/ab12/reset", nil))
	if w.Code != http.StatusOK || !called {
		t.Errorf("Expected reset to succeed, got %d (called=%v)", w.Code, called)
	}
}

func TestAdvance(t *testing.T) {
	var advanced time.Duration
	settled := false
	mock := &MockGameService{
		AdvanceFunc: func(ctx context.Context, sessionID string, d time.Duration) (*service.ActionResult, error) {
			advanced = d
			return okResult("advance"), nil
		},
		SettleFunc: func(ctx context.Context, sessionID string) (*service.ActionResult, error) {
			settled = true
			return okResult("settle"), nil
		},
	}
	server := setupTestServer(mock)

	if w := serve(server, makeRequest("POST", "/api/sessions/ab12/advance", map[string]int{"ms": 750})); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if advanced != 750*time.Millisecond {
		t.Errorf("Expected 750ms advance, got %v", advanced)
	}

	if w := serve(server, makeRequest("POST", "/api/sessions/ab12/advance", map[string]bool{"settle": true})); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !settled {
		t.Error("Expected settle to be called")
	}

	if w := serve(server, makeRequest("POST", "/api/sessions/ab12/advance", map[string]int{"ms": -5})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for negative ms, got %d", w.Code)
	}
}

func TestGetGameState(t *testing.T) {
	mock := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "nope" {
				return nil, errSessionNotFound
			}
			return &engine.GameState{MatchedCount: 4, ViewWidth: 580, ViewHeight: 664}, nil
		},
	}
	server := setupTestServer(mock)

	w := serve(server, makeRequest("GET", "/api/sessions/ab12/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var state engine.GameState
	parseResponse(t, w, &state)
	if state.MatchedCount != 4 || state.ViewWidth != 580 {
		t.Errorf("Unexpected state: %+v", state)
	}

	if w := serve(server, makeRequest("GET", "/api/sessions/nope/state", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	mock := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				service.NewConfigInfo("default", engine.DefaultGameConfig()),
			}, nil
		},
	}

	w := serve(setupTestServer(mock), makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 1 || configs[0].ConfigID != "default" {
		t.Errorf("Unexpected configs: %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	mock := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "compact" {
				return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
			}
			return &engine.GameConfig{Name: "Compact"}, nil
		},
	}
	server := setupTestServer(mock)

	w := serve(server, makeRequest("GET", "/api/configs/compact.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var cfg engine.GameConfig
	parseResponse(t, w, &cfg)
	if cfg.Name != "Compact" {
		t.Errorf("Expected Compact, got %s", cfg.Name)
	}

	if w := serve(server, makeRequest("GET", "/api/configs/missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	var savedID string
	var saved *engine.GameConfig
	mock := &MockGameService{
		SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
			savedID, saved = configName, config
			return nil
		},
	}
	server := setupTestServer(mock)

	body := map[string]interface{}{
		"config_id":   "tiny",
		"name":        "Tiny",
		"card_width":  40,
		"card_height": 47,
		"padding":     4,
		"animation":   map[string]int{"reveal_ms": 100, "hide_ms": 100, "fade_ms": 100, "peek_ms": 300},
	}
	w := serve(server, makeRequest("POST", "/api/configs", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedID != "tiny" || saved == nil || saved.CardWidth != 40 || saved.BackFace != engine.DefaultBackFace {
		t.Errorf("Unexpected saved config %q: %+v", savedID, saved)
	}

	invalid := map[string]interface{}{"name": "Broken", "card_width": 0, "card_height": 10}
	if w := serve(server, makeRequest("POST", "/api/configs", invalid)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid config, got %d", w.Code)
	}

	if w := serve(server, makeRequest("POST", "/api/configs", map[string]int{"card_width": 10})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing name, got %d", w.Code)
	}
}

// Misc

func TestRequestID(t *testing.T) {
	server := setupTestServer(&MockGameService{})

	w := serve(server, makeRequest("GET", "/health", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}

	req := makeRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	if got := serve(server, req).Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("Expected request id to be echoed, got %q", got)
	}
}

func TestIndex(t *testing.T) {
	w := serve(setupTestServer(&MockGameService{}), makeRequest("GET", "/api", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Endpoints map[string]string `json:"endpoints"`
	}
	parseResponse(t, w, &resp)
	if _, ok := resp.Endpoints["POST /api/sessions/{id}/tap"]; !ok {
		t.Error("Expected tap endpoint to be listed")
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("session not found")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Valid session",
			queryParams: "?session=ab12",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: sessionID, GameState: &engine.GameState{}}, nil
				}
			},
			expectedStatus: http.StatusSwitchingProtocols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			if tt.expectedStatus == http.StatusSwitchingProtocols {
				req.Header.Set("Upgrade", "websocket")
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
				req.Header.Set("Sec-WebSocket-Version", "13")
			}

			server.handleWebSocket(w, req)

			// httptest.ResponseRecorder cannot be hijacked, so the upgrader
			// answers 500 once it gets that far
			if tt.expectedStatus == http.StatusSwitchingProtocols && w.Code == http.StatusInternalServerError {
				return
			}

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestWebSocketDisabled(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)
	w := httptest.NewRecorder()
	server.handleWebSocket(w, httptest.NewRequest("GET", "/ws?session=ab12", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
