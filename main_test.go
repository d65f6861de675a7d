package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorygame/api"
	"github.com/wricardo/mcp-training/memorygame/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}

	expectedVersion := "1.0.0"
	if Version != expectedVersion {
		t.Errorf("Expected version %s, got %s", expectedVersion, Version)
	}

	expectedAppName := "Memory Match Game Server"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

// testOptions points storage at temp directories and the shipped presets
func testOptions(t *testing.T) options {
	t.Helper()
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	return options{
		Host:        "127.0.0.1",
		Port:        0,
		ConfigDir:   "configs",
		SessionsDir: filepath.Join(t.TempDir(), "sessions"),
		SessionTTL:  time.Hour,
	}
}

// runWith parses args with every action replaced by a capture of the
// resolved options
func runWith(t *testing.T, args ...string) (options, error) {
	t.Helper()
	var got options
	app := newApp()
	capture := func(ctx context.Context, cmd *cli.Command) error {
		got = optionsFrom(cmd)
		return nil
	}
	app.Action = capture
	for _, sub := range app.Commands {
		sub.Action = capture
	}
	err := app.Run(context.Background(), append([]string{"memorygame"}, args...))
	return got, err
}

func TestFlagDefaults(t *testing.T) {
	opts, err := runWith(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if opts.Port <= 0 || opts.Port > 65535 {
		t.Errorf("Invalid default port: %d", opts.Port)
	}
	if opts.Host == "" {
		t.Error("Host should have a default value")
	}
	if opts.ConfigDir == "" {
		t.Error("Config directory should have a default value")
	}
	if opts.SessionsDir == "" {
		t.Error("Sessions directory should have a default value")
	}
	if opts.SessionTTL != 24*time.Hour {
		t.Errorf("Expected 24h session TTL, got %v", opts.SessionTTL)
	}
	if opts.SQLitePath != "" || opts.NATSURL != "" || opts.Ngrok.Enabled {
		t.Errorf("Optional integrations should be off by default: %+v", opts)
	}
}

func TestFlagParsing(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, opts options)
	}{
		{
			name: "port and host",
			args: []string{"--port", "9090", "--host", "0.0.0.0"},
			check: func(t *testing.T, opts options) {
				if opts.Addr() != "0.0.0.0:9090" {
					t.Errorf("Expected 0.0.0.0:9090, got %s", opts.Addr())
				}
			},
		},
		{
			name: "storage",
			args: []string{"--sqlite-path", "/tmp/games.db", "--sessions-dir", "/tmp/s"},
			check: func(t *testing.T, opts options) {
				if opts.SQLitePath != "/tmp/games.db" || opts.SessionsDir != "/tmp/s" {
					t.Errorf("Unexpected storage options: %+v", opts)
				}
			},
		},
		{
			name: "subcommand alias",
			args: []string{"--nats-url", "nats://broker:4222", "mcp"},
			check: func(t *testing.T, opts options) {
				if opts.NATSURL != "nats://broker:4222" {
					t.Errorf("Expected nats url, got %q", opts.NATSURL)
				}
			},
		},
		{
			name: "ngrok",
			args: []string{"--ngrok", "--ngrok-auth", "tok", "--ngrok-domain", "game.ngrok.app", "server"},
			check: func(t *testing.T, opts options) {
				want := ngrokOptions{Enabled: true, AuthToken: "tok", Domain: "game.ngrok.app"}
				if opts.Ngrok != want {
					t.Errorf("Expected %+v, got %+v", want, opts.Ngrok)
				}
			},
		},
		{
			name: "session ttl",
			args: []string{"--session-ttl", "90m"},
			check: func(t *testing.T, opts options) {
				if opts.SessionTTL != 90*time.Minute {
					t.Errorf("Expected 90m, got %v", opts.SessionTTL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := runWith(t, tt.args...)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			tt.check(t, opts)
		})
	}
}

func TestFlagEnvironment(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("CONFIG_DIR", "/srv/presets")

	opts, err := runWith(t)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if opts.Port != 7070 {
		t.Errorf("Expected port from PORT, got %d", opts.Port)
	}
	if opts.ConfigDir != "/srv/presets" {
		t.Errorf("Expected config dir from CONFIG_DIR, got %s", opts.ConfigDir)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if _, err := runWith(t, "--log-level", "loud"); err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	if err := setupLogging("warn", false, &buf); err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("Expected warn level, got %v", zerolog.GlobalLevel())
	}

	if err := setupLogging("", false, &buf); err != nil {
		t.Fatalf("setupLogging failed for empty level: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("Expected empty level to mean info, got %v", zerolog.GlobalLevel())
	}
}

func TestInitializeServices(t *testing.T) {
	svcs, err := initializeServices(testOptions(t))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svcs.Close()

	if svcs.Game == nil {
		t.Fatal("Expected game service to be initialized")
	}
	if svcs.Hub == nil {
		t.Fatal("Expected websocket hub to be initialized")
	}

	info, err := svcs.Game.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if svcs.Sessions.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", svcs.Sessions.Count())
	}
	if _, err := svcs.Game.Tap(context.Background(), info.ID, 0, 0); err != nil {
		t.Errorf("Tap failed: %v", err)
	}
}

func TestInitializeServices_SQLite(t *testing.T) {
	opts := testOptions(t)
	opts.SQLitePath = filepath.Join(t.TempDir(), "sessions.db")

	svcs, err := initializeServices(opts)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svcs.Close()

	if len(svcs.closers) != 1 {
		t.Errorf("Expected sqlite store to be closed on shutdown, got %d closers", len(svcs.closers))
	}
	if _, err := svcs.Game.CreateSession(context.Background(), "default"); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
}

func TestInitializeServices_UnreachableNATS(t *testing.T) {
	opts := testOptions(t)
	opts.NATSURL = "nats://127.0.0.1:1"

	svcs, err := initializeServices(opts)
	if err != nil {
		t.Fatalf("Broker outage should not fail startup: %v", err)
	}
	defer svcs.Close()

	if svcs.publisher != nil {
		t.Error("Expected no publisher when broker is unreachable")
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	opts := testOptions(t)
	opts.ConfigDir = "/non/existent/path"

	if _, err := initializeServices(opts); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestSyncWithStorage(t *testing.T) {
	opts := testOptions(t)
	svcs, err := initializeServices(opts)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svcs.Close()

	ctx := context.Background()
	kept, err := svcs.Game.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	gone, err := svcs.Game.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if err := os.Remove(filepath.Join(opts.SessionsDir, gone.ID+".json")); err != nil {
		t.Fatalf("Failed to remove session file: %v", err)
	}

	persistence, _, err := newPersistence(opts, nil)
	if err != nil {
		t.Fatalf("Failed to open persistence: %v", err)
	}
	if pruned := syncWithStorage(svcs.Sessions, persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if _, err := svcs.Sessions.Get(kept.ID); err != nil {
		t.Errorf("Expected session %s to survive: %v", kept.ID, err)
	}
	if svcs.Sessions.Count() != 1 {
		t.Errorf("Expected 1 session in memory, got %d", svcs.Sessions.Count())
	}

	if pruned := syncWithStorage(svcs.Sessions, nil); pruned != 0 {
		t.Errorf("Expected no pruning without persistence, got %d", pruned)
	}
}

func TestHTTPHandler(t *testing.T) {
	svcs, err := initializeServices(testOptions(t))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svcs.Close()

	handler := newHTTPHandler(api.NewServer(svcs.Game, svcs.Hub), mcp.NewClient("http://127.0.0.1:1"))
	srv := httptest.NewServer(handler)
	defer srv.Close()

	t.Run("api is mounted at root", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("mcp rejects GET", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/mcp")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("mcp lists tools", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
		resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()

		var decoded struct {
			Result struct {
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
			} `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		found := false
		for _, tool := range decoded.Result.Tools {
			if tool.Name == "tap" {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected tap tool in %+v", decoded.Result.Tools)
		}
	})
}
