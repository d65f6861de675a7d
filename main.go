// Command memorygame starts the Memory Match Game server.
//
// It supports two modes:
//  1. "server" (default): the REST API, WebSocket updates and an /mcp JSON-RPC endpoint
//  2. "stdio-mcp": an MCP stdio server backed by a running API or an internal one
//
// Flags control host/port, preset and session storage, log level, optional
// NATS publishing, and optional ngrok tunneling for external access during
// development. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/memorygame/api"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/session"
	"github.com/wricardo/mcp-training/memorygame/transport/mcp"
	natspub "github.com/wricardo/mcp-training/memorygame/transport/nats"
	"github.com/wricardo/mcp-training/memorygame/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Match Game Server"
)

// options collects the process settings resolved from flags and environment
type options struct {
	Host        string
	Port        int
	ConfigDir   string
	SessionsDir string
	SQLitePath  string
	NATSURL     string
	SessionTTL  time.Duration
	Ngrok       ngrokOptions
}

type ngrokOptions struct {
	Enabled   bool
	AuthToken string
	Domain    string
}

// Addr returns the listen address
func (o options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// services is everything initializeServices wires together
type services struct {
	Game      service.GameService
	Sessions  *session.Manager
	Hub       *websocket.Hub
	publisher *natspub.Publisher
	closers   []io.Closer
}

// Close flushes sessions and releases storage and broker connections
func (s *services) Close() {
	if err := s.Sessions.SaveAllSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions on shutdown")
	}
	if err := s.publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to drain nats connection")
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close storage")
		}
	}
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// newApp builds the command tree. Global flags are shared by every mode.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "memorygame",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for JSON session files", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "sqlite-path", Usage: "Store sessions in this SQLite database instead of JSON files", Sources: cli.EnvVars("SQLITE_PATH")},
			&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Evict sessions not accessed for this long", Sources: cli.EnvVars("SESSION_TTL")},
			&cli.StringFlag{Name: "nats-url", Usage: "Publish session updates to this NATS server", Sources: cli.EnvVars("NATS_URL")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (trace, debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "pretty", Usage: "Human readable console logs", Sources: cli.EnvVars("LOG_PRETTY")},
			&cli.BoolFlag{Name: "debug", Usage: "Shorthand for --log-level debug"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := cmd.String("log-level")
			if cmd.Bool("debug") {
				level = "debug"
			}
			return ctx, setupLogging(level, cmd.Bool("pretty"), os.Stderr)
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioCommand,
			},
		},
		Action: runServerCommand,
	}
}

// optionsFrom resolves settings from a parsed command
func optionsFrom(cmd *cli.Command) options {
	return options{
		Host:        cmd.String("host"),
		Port:        cmd.Int("port"),
		ConfigDir:   cmd.String("config-dir"),
		SessionsDir: cmd.String("sessions-dir"),
		SQLitePath:  cmd.String("sqlite-path"),
		NATSURL:     cmd.String("nats-url"),
		SessionTTL:  cmd.Duration("session-ttl"),
		Ngrok: ngrokOptions{
			Enabled:   cmd.Bool("ngrok"),
			AuthToken: cmd.String("ngrok-auth"),
			Domain:    cmd.String("ngrok-domain"),
		},
	}
}

// setupLogging configures the global zerolog logger
func setupLogging(level string, pretty bool, out io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log.Info().Str("version", Version).Str("mode", "server").Msg("starting " + AppName)

	svcs, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	return runHTTPServer(ctx, opts, svcs)
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	// stdout belongs to the MCP protocol
	log.Info().Str("version", Version).Str("mode", "stdio-mcp").Msg("starting " + AppName)

	svcs, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	return runStdioMCPWithInternalServer(opts, svcs)
}

// newHTTPHandler combines the API server with the /mcp JSON-RPC endpoint
func newHTTPHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts options, svcs *services) error {
	addr := opts.Addr()
	apiServer := api.NewServer(svcs.Game, svcs.Hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := newHTTPHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts.Ngrok, handler)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err = <-serveErr:
		log.Error().Err(err).Msg("HTTP server failed")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, opts ngrokOptions, handler http.Handler) {
	if opts.AuthToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.Domain))
		log.Info().Str("domain", opts.Domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.AuthToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	ngrokURL := tun.URL()
	log.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("websocket", ngrokURL+"/ws?session=<session_id>").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Warn().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// newPersistence picks SQLite when a database path is configured and JSON
// files otherwise
func newPersistence(opts options, configManager service.ConfigManager) (session.SessionPersistence, io.Closer, error) {
	if opts.SQLitePath != "" {
		sp, err := session.NewSQLitePersistence(opts.SQLitePath, configManager)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", opts.SQLitePath).Msg("storing sessions in sqlite")
		return sp, sp, nil
	}

	fp, err := session.NewFilePersistence(opts.SessionsDir, configManager)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("dir", opts.SessionsDir).Msg("storing sessions as json files")
	return fp, nil, nil
}

// initializeServices wires config and session managers, event sinks and the
// game service. It also starts the background maintenance routines.
func initializeServices(opts options) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	log.Info().Str("dir", opts.ConfigDir).Int("presets", configManager.Count()).Msg("loaded game presets")

	persistence, closer, err := newPersistence(opts, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	svcs := &services{Sessions: sessionManager, Hub: websocket.NewHub()}
	if closer != nil {
		svcs.closers = append(svcs.closers, closer)
	}
	go svcs.Hub.Run()

	serviceOpts := []service.Option{service.WithEventSink(svcs.Hub)}
	if opts.NATSURL != "" {
		nc, err := natspub.Connect(opts.NATSURL, "memory-game")
		if err != nil {
			// The game works without the broker
			log.Warn().Err(err).Str("url", opts.NATSURL).Msg("nats unavailable, updates will not be published")
		} else {
			svcs.publisher = natspub.NewPublisher(nc)
			serviceOpts = append(serviceOpts, service.WithEventSink(svcs.publisher))
			log.Info().Str("url", opts.NATSURL).Msg("publishing session updates to nats")
		}
	}

	svcs.Game = service.NewGameService(sessionManager, configManager, serviceOpts...)

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	go sessionCleanupRoutine(sessionManager, ttl)

	if opts.SQLitePath == "" {
		go filesystemSyncRoutine(sessionManager, persistence)
	}

	return svcs, nil
}

// sessionCleanupRoutine periodically evicts idle sessions from memory and
// purges old ones from storage that supports it
func sessionCleanupRoutine(manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cleanupSessions(manager, ttl)
	}
}

func cleanupSessions(manager *session.Manager, ttl time.Duration) {
	manager.CleanupExpiredSessions(ttl)
	if _, err := manager.PurgePersisted(ttl * 7); err != nil {
		log.Warn().Err(err).Msg("failed to purge stored sessions")
	}
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
// It removes sessions from memory when their corresponding files are deleted.
func filesystemSyncRoutine(manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		syncWithStorage(manager, persistence)
	}
}

func syncWithStorage(manager *session.Manager, persistence session.SessionPersistence) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, sess := range manager.List() {
		if !persistence.Exists(sess.ID) {
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
				log.Info().Str("session", sess.ID).Msg("pruned session from memory (file deleted)")
			}
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(opts options, svcs *services) error {
	externalURL := fmt.Sprintf("http://%s", opts.Addr())
	baseURL := externalURL
	log.Info().Str("url", externalURL).Msg("checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
	} else {
		if resp != nil {
			resp.Body.Close()
		}
		log.Info().Msg("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		httpServer := &http.Server{Handler: api.NewServer(svcs.Game, svcs.Hub)}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
		log.Info().Str("addr", internalAddr).Msg("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
