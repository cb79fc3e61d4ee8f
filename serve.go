package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/marsrover/api"
	"github.com/wricardo/mcp-training/marsrover/rover/archive"
	"github.com/wricardo/mcp-training/marsrover/rover/scenario"
	"github.com/wricardo/mcp-training/marsrover/rover/service"
	"github.com/wricardo/mcp-training/marsrover/settings"
	"github.com/wricardo/mcp-training/marsrover/transport/mcp"
	"github.com/wricardo/mcp-training/marsrover/transport/websocket"
)

// Background maintenance intervals
var (
	maxCleanupInterval = 1 * time.Hour
	syncInterval       = 5 * time.Second
)

// services bundles what the HTTP server needs
type services struct {
	missions    service.MissionService
	scenarios   *scenario.Manager
	runs        *archive.Manager
	persistence archive.RunPersistence
}

// initializeServices wires the scenario store, the persisted run archive and
// the mission service.
func initializeServices(s *settings.Settings, logger *slog.Logger) (*services, error) {
	scenarios, err := scenario.NewManager(s.ScenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario manager: %w", err)
	}

	persistence, err := archive.NewFilePersistence(s.RunsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create run persistence: %w", err)
	}

	runs := archive.NewManagerWithPersistence(persistence, logger)

	// Load persisted runs on startup
	if err := runs.LoadPersistedRuns(); err != nil {
		logger.Warn("failed to load persisted runs", "error", err)
	}

	return &services{
		missions:    service.NewMissionService(runs, scenarios),
		scenarios:   scenarios,
		runs:        runs,
		persistence: persistence,
	}, nil
}

// newHandler combines the REST API with the /mcp endpoint. The MCP tools call
// back into the API at baseURL.
func newHandler(apiServer http.Handler, baseURL string) http.Handler {
	mcpClient := mcp.NewClient(baseURL, Version)

	mainRouter := http.NewServeMux()
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

// localURL turns a listen address into a URL reachable from this host
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// serveAction starts the HTTP server with REST API, WebSocket hub, and an
// /mcp proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func (a *app) serveAction(ctx context.Context, cmd *cli.Command) error {
	s, logger := a.settings, a.logger
	logger.Info("starting server", "app", AppName, "version", Version)

	svc, err := initializeServices(s, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	retention, err := s.Retention()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	handler := newHandler(api.NewServer(svc.missions, hub, logger), localURL(s.Addr))

	httpServer := &http.Server{
		Addr:         s.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		runCleanupRoutine(ctx, svc.runs, retention, logger)
	}()
	go func() {
		defer wg.Done()
		filesystemSyncRoutine(ctx, svc, logger)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			"addr", s.Addr,
			"api", "http://"+s.Addr+"/api",
			"websocket", "ws://"+s.Addr+"/ws?scenario=<id|*>",
			"mcp", "http://"+s.Addr+"/mcp")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if s.Ngrok != nil && s.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, s.Ngrok, handler, logger)
		}()
	}

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		logger.Error("HTTP server failed", "error", err)
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("HTTP server shutdown error", "error", shutdownErr)
	}

	// Wait for all goroutines to finish
	wg.Wait()
	logger.Info("server stopped")

	if err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, cfg *settings.NgrokSettings, handler http.Handler, logger *slog.Logger) {
	if cfg.AuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		logger.Info("using custom ngrok domain", "domain", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// cleanupInterval checks at least as often as runs expire
func cleanupInterval(retention time.Duration) time.Duration {
	if retention < maxCleanupInterval {
		return retention
	}
	return maxCleanupInterval
}

// runCleanupRoutine periodically evicts runs older than retention from memory
func runCleanupRoutine(ctx context.Context, runs *archive.Manager, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval(retention))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := runs.CleanupExpiredRuns(retention); removed > 0 {
				logger.Info("cleaned up expired runs", "removed", removed)
			}
		}
	}
}

// filesystemSyncRoutine periodically reconciles memory with the directories:
// runs whose files were deleted are dropped and scenarios are reloaded.
func filesystemSyncRoutine(ctx context.Context, svc *services, logger *slog.Logger) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := syncWithFilesystem(svc, logger); pruned > 0 {
				logger.Info("filesystem sync pruned orphaned runs", "pruned", pruned)
			}
		}
	}
}

// syncWithFilesystem reloads the scenario cache and removes in-memory runs
// that no longer have a file. It returns the number of pruned runs.
func syncWithFilesystem(svc *services, logger *slog.Logger) int {
	if svc.scenarios != nil {
		if err := svc.scenarios.RefreshCache(); err != nil {
			logger.Warn("failed to refresh scenarios", "error", err)
		}
	}

	if svc.persistence == nil {
		return 0
	}

	pruned := 0
	for _, run := range svc.runs.List() {
		if svc.persistence.Exists(run.ID) {
			continue
		}
		if err := svc.runs.DeleteFromMemory(run.ID); err == nil {
			pruned++
			logger.Debug("pruned run from memory (file deleted)", "run_id", run.ID)
		}
	}
	return pruned
}

// mcpAction runs an MCP stdio server. It reuses an external API when one
// answers at --api-url (or --addr); otherwise it starts an internal HTTP API
// bound to a random loopback port and targets that.
func (a *app) mcpAction(ctx context.Context, cmd *cli.Command) error {
	logger := a.logger

	externalURL := strings.TrimSuffix(cmd.String("api-url"), "/")
	if externalURL == "" {
		externalURL = localURL(a.settings.Addr)
	}

	baseURL := externalURL
	logger.Info("checking for external API server", "url", externalURL)

	if apiAvailable(ctx, externalURL) {
		logger.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(a.settings, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub(logger)
		go hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(svc.missions, hub, logger),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL, Version)

	logger.Info("MCP stdio server ready", "api", baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a rover API answers the health check at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
