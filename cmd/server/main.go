// Package main provides the unified launchpad service:
// - HTTP control surface (start/stop/clear/status) and tick surface (step/session)
// - In-process cron driver for EXTERNAL_TIMER runs
// - Token browsing, manual deployment, websocket log stream, metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"token-launchpad/internal/api"
	"token-launchpad/internal/app"
	"token-launchpad/internal/config"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/driver"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/orchestrator"
)

// Server holds all components of the unified service.
type Server struct {
	cfg    *config.Config
	timer  *driver.Timer
	api    *api.Server
	hub    *api.Hub
	logger *log.Logger

	mu      sync.Mutex
	started time.Time
}

func main() {
	configPath := flag.String("config", os.Getenv("LAUNCHPAD_CONFIG"), "Path to a TOML or YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of the configured database")
	dryRun := flag.Bool("dry-run", false, "Simulate deployments without calling upstream platforms")
	noTimer := flag.Bool("no-timer", false, "Disable the in-process timer driver")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *useMemory {
		cfg.Store.Backend = config.BackendMemory
	}
	if *dryRun {
		cfg.Deploy.DryRun = true
	}
	if *noTimer {
		cfg.Timer.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	server, cleanup, err := newServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialise: %v", err)
	}
	defer cleanup()

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// newServer wires every component from cfg.
func newServer(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Server, func(), error) {
	store, cleanup, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	notifier, err := app.NewNotifier(cfg, log.New(os.Stdout, "[notify] ", log.LstdFlags))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	registry := app.NewRegistry()
	source := app.NewSource(cfg, log.New(os.Stdout, "[source] ", log.LstdFlags|log.Lshortfile))
	deployer := app.NewDeployer(cfg, registry, log.New(os.Stdout, "[deploy] ", log.LstdFlags|log.Lshortfile))
	apiLogger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile)
	hub := api.NewHub(apiLogger)

	orch := orchestrator.New(orchestrator.Options{
		Store:          store,
		Source:         source,
		Deployer:       deployer,
		Notifier:       notifier,
		ValidateTarget: app.ValidateTarget(registry),
		OnLog: func(e domain.LogEntry) {
			observability.RecordLogEntry(e)
			hub.Broadcast(e)
		},
		Logger: log.New(os.Stdout, "[orchestrator] ", log.LstdFlags|log.Lshortfile),
	})

	driverLogger := log.New(os.Stdout, "[driver] ", log.LstdFlags|log.Lshortfile)
	timer, err := driver.NewTimer(driver.TimerOptions{
		Schedule: cfg.Timer.Schedule,
		Stepper:  orch,
		Store:    store,
		Timeout:  cfg.Timer.TickTimeout,
		Logger:   driverLogger,
		OnTick:   observability.RecordTick,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	session := driver.NewSession(driver.SessionOptions{
		Stepper: orch,
		Store:   store,
		Budget:  cfg.Session.Budget,
		Margin:  cfg.Session.Margin,
		Logger:  driverLogger,
	})

	s := &Server{
		cfg:   cfg,
		timer: timer,
		hub:   hub,
		api: api.New(api.Options{
			Control:  orch,
			Ticker:   timer,
			Session:  session,
			Source:   source,
			Deployer: deployer,
			Notifier: notifier,
			Targets:  registry,
			Hub:      hub,
			Secret:   cfg.Server.APISecret,
			Logger:   apiLogger,
		}),
		logger: logger,
	}
	return s, cleanup, nil
}

// Run starts the HTTP server and, when enabled, the timer driver.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting launchpad server...")
	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	if s.cfg.Timer.Enabled {
		g.Go(func() error {
			return s.timer.Run(ctx)
		})
	} else {
		s.logger.Println("Timer driver disabled; waiting for external ticks on /api/launch/step")
	}

	mux := s.api.Handler()
	mux.HandleFunc("GET /status", s.handleStatus)
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		s.logger.Printf("Starting HTTP server on %s", s.cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("HTTP shutdown error: %v", err)
		}
		return ctx.Err()
	})

	return g.Wait()
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string            `json:"status"`
	Uptime        string            `json:"uptime"`
	Started       time.Time         `json:"started"`
	Store         string            `json:"store"`
	DryRun        bool              `json:"dry_run"`
	TimerEnabled  bool              `json:"timer_enabled"`
	Timer         driver.TimerStats `json:"timer"`
	LogSubscriber int               `json:"log_subscribers"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(started).Round(time.Second).String(),
		Started:       started,
		Store:         s.cfg.Store.Backend,
		DryRun:        s.cfg.Deploy.DryRun,
		TimerEnabled:  s.cfg.Timer.Enabled,
		Timer:         s.timer.Stats(),
		LogSubscriber: s.hub.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
