// Package http implements the REST API for CyberTrek. The UI talks to these
// endpoints for wallet auth, progress reads, the token economy, and quizzes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/viditkulsh/CyberTrek/internal/application/command"
	"github.com/viditkulsh/CyberTrek/internal/application/query"
	"github.com/viditkulsh/CyberTrek/internal/domain/catalog"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/internal/infrastructure/identity"
	"github.com/viditkulsh/CyberTrek/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host is the address to bind.
	Host string

	// Port is the port to listen on.
	Port int

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes is the maximum size of request headers.
	MaxHeaderBytes int

	// EnableCORS enables CORS headers for browser clients.
	EnableCORS bool

	// AllowedOrigins lists allowed origins for CORS.
	AllowedOrigins []string

	// RateLimitPerMinute is requests per minute per IP (0 = disabled).
	RateLimitPerMinute int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20, // 1 MB
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 100,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the HTTP handlers call into.
type Dependencies struct {
	// Command handlers (CQRS write side)
	AuthenticateWallet *command.AuthenticateWalletHandler
	GrantXP            *command.GrantXPHandler
	StakeTokens        *command.StakeTokensHandler
	EnrollCourse       *command.EnrollCourseHandler
	SubmitQuiz         *command.SubmitQuizHandler
	WithdrawStake      *command.WithdrawStakeHandler
	ClaimReward        *command.ClaimRewardHandler

	// Query handlers (CQRS read side)
	GetProgress    *query.GetProgressHandler
	GetLeaderboard *query.GetLeaderboardHandler
	GetRank        *query.GetRankHandler
	EstimateReward *query.EstimateRewardHandler

	// Catalog is read directly, it is static data.
	Catalog catalog.Repository

	// Challenges issues and consumes auth nonces.
	Challenges *identity.ChallengeStore

	// Logger for request logging.
	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     chi.Router
	log        *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates the HTTP server with the given configuration and
// dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		log:    deps.Logger,
	}
	if s.log == nil {
		s.log = logger.Default()
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// buildRouter wires the middleware stack and all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	if s.config.EnableCORS {
		r.Use(s.corsMiddleware)
	}
	if s.config.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.config.RateLimitPerMinute, time.Minute))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleRoot)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/challenge", s.handleAuthChallenge)
			r.Post("/verify", s.handleAuthVerify)
		})

		r.Route("/progress/{wallet}", func(r chi.Router) {
			r.Get("/", s.handleGetProgress)
			r.Get("/rank", s.handleGetRank)
			r.Post("/xp", s.handleGrantXP)
			r.Post("/stake", s.handleStake)
			r.Post("/stake/estimate", s.handleEstimateReward)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", s.handleListCourses)
			r.Get("/{id}", s.handleGetCourse)
			r.Post("/{id}/enroll", s.handleEnroll)
			r.Post("/{id}/quiz", s.handleSubmitQuiz)
			r.Post("/{id}/withdraw", s.handleWithdraw)
			r.Post("/{id}/claim", s.handleClaim)
		})

		r.Get("/achievements", s.handleListAchievements)
		r.Get("/leaderboard", s.handleGetLeaderboard)
	})

	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.log.Info("http server starting", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartAsync starts the server in a goroutine and returns an error channel.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.log.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the router, mostly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the standard response envelope.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError carries error information to clients.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		RequestID: getRequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// writeJSONError writes an error envelope.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		RequestID: getRequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// writeDomainError maps a domain error onto an HTTP status and error code.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case shared.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case shared.IsInvalidArgument(err):
		status, code = http.StatusBadRequest, "invalid_argument"
	case shared.IsInsufficientFunds(err) || errors.Is(err, shared.ErrInsufficientStake):
		status, code = http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, shared.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, shared.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err))
		writeJSONError(w, r, status, code, "An unexpected error occurred")
		return
	}

	writeJSONError(w, r, status, code, err.Error())
}

// decodeBody decodes a JSON request body into dest.
func decodeBody(r *http.Request, dest interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return shared.NewDomainError("http", "DecodeBody", shared.ErrInvalidFormat,
			"malformed request body")
	}
	return nil
}
