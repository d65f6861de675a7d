package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/session"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrapped session sentinel", fmt.Errorf("session not found: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{"bare session sentinel", session.ErrSessionNotFound, http.StatusNotFound},
		{"config sentinel", fmt.Errorf("loading: %w", service.ErrConfigNotFound), http.StatusNotFound},
		{"unwrapped not found text", errors.New("session 'ab12' not found"), http.StatusNotFound},
		{"invalid session id", fmt.Errorf("%w: %q", session.ErrInvalidSessionID, "zz"), http.StatusBadRequest},
		{"invalid padding", engine.ErrInvalidPadding, http.StatusBadRequest},
		{"storage failure", errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSessionRoutesMapServiceErrors(t *testing.T) {
	storageErr := errors.New("database is locked")
	wrappedNotFound := fmt.Errorf("session not found: %w", session.ErrSessionNotFound)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"missing session", wrappedNotFound, http.StatusNotFound},
		{"storage failure", storageErr, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, tt.err
				},
				DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
					return tt.err
				},
				GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
					return nil, tt.err
				},
			}
			server := setupTestServer(mock)

			requests := []struct{ method, path string }{
				{"GET", "/api/sessions/ab12"},
				{"DELETE", "/api/sessions/ab12"},
				{"GET", "/api/sessions/ab12/state"},
			}
			for _, req := range requests {
				w := serve(server, makeRequest(req.method, req.path, nil))
				if w.Code != tt.status {
					t.Errorf("%s %s: expected status %d, got %d", req.method, req.path, tt.status, w.Code)
				}
			}
		})
	}
}
