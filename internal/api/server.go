// Package api exposes the run control surface, the tick surface and
// supporting endpoints over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/driver"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/tokensource"
)

// Controller is the run control surface.
type Controller interface {
	Start(ctx context.Context, req orchestrator.StartRequest) (*domain.RunConfig, error)
	Stop(ctx context.Context) (*domain.RunConfig, error)
	Clear(ctx context.Context) error
	Status(ctx context.Context) (*orchestrator.Status, error)
}

// Ticker runs one guarded step.
type Ticker interface {
	Tick(ctx context.Context) (*orchestrator.StepResult, error)
}

// SessionRunner runs one bounded session.
type SessionRunner interface {
	Run(ctx context.Context) (*driver.SessionResult, error)
}

// Targets lists the known protocol variants.
type Targets interface {
	AgentNames() []string
	LaunchpadNames() []string
}

// Server holds the HTTP handlers.
type Server struct {
	control  Controller
	ticker   Ticker
	session  SessionRunner
	source   orchestrator.TokenSource
	deployer orchestrator.Deployer
	notifier orchestrator.Notifier
	targets  Targets
	hub      *Hub
	secret   string
	logger   *log.Logger

	sessionMu sync.Mutex
}

// Options for creating Server.
type Options struct {
	Control  Controller
	Ticker   Ticker
	Session  SessionRunner
	Source   orchestrator.TokenSource
	Deployer orchestrator.Deployer
	Notifier orchestrator.Notifier // optional
	Targets  Targets               // optional
	Hub      *Hub                  // optional; nil disables /ws/logs
	Secret   string                // bearer secret for control and tick routes
	Logger   *log.Logger
}

// New creates a new Server.
func New(opts Options) *Server {
	s := &Server{
		control:  opts.Control,
		ticker:   opts.Ticker,
		session:  opts.Session,
		source:   opts.Source,
		deployer: opts.Deployer,
		notifier: opts.Notifier,
		targets:  opts.Targets,
		hub:      opts.Hub,
		secret:   opts.Secret,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Handler returns a mux with every route registered. Callers may add routes.
func (s *Server) Handler() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /api/launch/start", s.auth(s.handleStart))
	mux.HandleFunc("POST /api/launch/stop", s.auth(s.handleStop))
	mux.HandleFunc("POST /api/launch/clear", s.auth(s.handleClear))
	mux.HandleFunc("GET /api/launch/status", s.handleStatus)
	mux.HandleFunc("POST /api/launch/step", s.auth(s.handleStep))
	mux.HandleFunc("POST /api/launch/session", s.auth(s.handleSession))

	mux.HandleFunc("GET /api/tokens", s.handleTokens)
	mux.HandleFunc("GET /api/targets", s.handleTargets)
	mux.HandleFunc("POST /api/deploy", s.auth(s.handleDeploy))

	if s.hub != nil {
		mux.Handle("GET /ws/logs", s.hub)
	}
	return mux
}

// auth enforces the bearer secret when one is configured.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.secret != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	}
}

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidConfig), errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Printf("%s: %v", op, err)
	}
	writeError(w, status, err.Error())
}

// parseFilters reads token source filters from the query string.
func parseFilters(r *http.Request) (tokensource.Filters, error) {
	q := r.URL.Query()
	f := tokensource.Filters{
		Trend: q.Get("filter"),
		Chain: q.Get("chain"),
	}
	var err error
	if v := q.Get("min_volume"); v != "" {
		if f.MinVolume, err = strconv.ParseFloat(v, 64); err != nil || f.MinVolume < 0 {
			return f, errors.New("min_volume must be a non-negative number")
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return f, errors.New("limit must be a non-negative integer")
		}
	}
	switch f.Trend {
	case tokensource.TrendNone, tokensource.TrendVolume, tokensource.TrendGainers, tokensource.TrendNew:
	default:
		return f, errors.New("unknown filter " + f.Trend)
	}
	return f, nil
}
