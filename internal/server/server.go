// Package server provides the HTTP REST API for the resume screener.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/server/ratelimit"
	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
)

// Store is the persistence the API needs. *db.DB satisfies it.
type Store interface {
	screening.Store
	CreateJob(ctx context.Context, job *types.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	GetJobBySlug(ctx context.Context, slug string) (*types.Job, error)
	ListJobs(ctx context.Context) ([]types.Job, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID uuid.UUID, status *types.Status) ([]types.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, next types.Status) (*types.Application, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	store      Store
	closeStore func()
	screener   *screening.Service
	dict       *skills.Dictionary
	limiter    *ratelimit.Limiter
	maxUpload  int64
}

// Config holds server configuration
type Config struct {
	Settings config.Config
	// RateLimit overrides the limiter settings read from RATE_LIMIT_* variables.
	RateLimit *ratelimit.Config
}

// New connects to the database and creates a server listening on Settings.Port.
func New(cfg Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.Settings.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	parser, dict, err := parsing.FromConfig(cfg.Settings)
	if err != nil {
		database.Close()
		return nil, err
	}

	s := NewWithStore(database, parser, dict, cfg)
	s.closeStore = database.Close
	return s, nil
}

// NewWithStore creates a server over an existing store.
func NewWithStore(store Store, parser *parsing.Parser, dict *skills.Dictionary, cfg Config) *Server {
	rl := ratelimit.FromEnv()
	if cfg.RateLimit != nil {
		rl = *cfg.RateLimit
	}

	maxUpload := cfg.Settings.MaxFileSizeBytes()
	if maxUpload <= 0 {
		defaults := config.Defaults()
		maxUpload = defaults.MaxFileSizeBytes()
	}

	s := &Server{
		store:     store,
		screener:  screening.NewService(parser, store, screening.Options{}),
		dict:      dict,
		limiter:   ratelimit.NewLimiter(rl),
		maxUpload: maxUpload,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /skills", s.handleSkills)

	// Stateless parsing and scoring
	mux.HandleFunc("POST /parse", s.handleParse)
	mux.HandleFunc("POST /score", s.handleScore)

	// Jobs
	mux.HandleFunc("POST /jobs", s.handleCreateJob)
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /jobs/{id}/report.xlsx", s.handleJobReport)

	// Applications
	mux.HandleFunc("POST /jobs/{id}/applications", s.handleCreateApplication)
	mux.HandleFunc("GET /jobs/{id}/applications", s.handleListApplications)
	mux.HandleFunc("GET /applications/{id}", s.handleGetApplication)
	mux.HandleFunc("PATCH /applications/{id}/status", s.handleUpdateStatus)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))

	port := cfg.Settings.Port
	if port == "" {
		port = config.Defaults().Port
	}
	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		s.close()
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.close()
	log.Println("Server stopped")
	return nil
}

func (s *Server) close() {
	s.limiter.Stop()
	if s.closeStore != nil {
		s.closeStore()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed their route budget with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := s.limiter.Allow(clientID(r), r.Method, r.URL.Path)
		setRateLimitHeaders(w, d)
		if !d.Allowed {
			s.rateLimitResponse(w, d)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// pinger is implemented by stores that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			log.Printf("server=health status=degraded err=%v", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to a status code and writes it. Server errors are logged and
// their detail is not sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("server=request status=failed method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// clientID identifies the caller by the IP in RemoteAddr.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	if d.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, d ratelimit.Decision) {
	body := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   d.Limit,
	}
	if d.RetryAfter > 0 {
		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		body["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	log.Printf("[rate-limit] exceeded limit=%d reset=%s", d.Limit, d.ResetAt.Format(time.RFC3339))
	s.jsonResponse(w, http.StatusTooManyRequests, body)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}
