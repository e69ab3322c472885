package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"shuttle-router/internal/config"
	"shuttle-router/internal/database"
	"shuttle-router/internal/handlers"
	"shuttle-router/internal/metrics"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         database.DataStore
	listener   net.Listener
	addr       string
}

// Config holds server configuration
type Config struct {
	Env config.Env

	// DB stores run history. The server closes it on Shutdown.
	DB database.DataStore
}

// New creates and initializes a new server (does not start it)
func New(cfg Config) (*Server, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("data store is required")
	}
	metrics.RegisterDefault()

	handler := &handlers.Handler{
		DB:  cfg.DB,
		Env: cfg.Env,
	}

	limiter := newSolveLimiter(cfg.Env.SolveRPS, cfg.Env.SolveBurst)
	mux := setupRoutes(handler, limiter)

	httpServer := &http.Server{
		Addr:         cfg.Env.Addr,
		Handler:      loggingMiddleware(corsMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.Env.TimeLimit),
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		db:         cfg.DB,
		addr:       cfg.Env.Addr,
	}, nil
}

// writeTimeout leaves room for a full search budget plus encoding
func writeTimeout(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return limit + 30*time.Second
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownErr := s.httpServer.Shutdown(ctx)
	closeErr := s.db.Close()
	if shutdownErr != nil {
		if closeErr != nil {
			log.Printf("[SQLITE] Close after failed shutdown: err=%v", closeErr)
		}
		return shutdownErr
	}
	return closeErr
}

// newSolveLimiter returns nil when rate limiting is disabled
func newSolveLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *handlers.Handler, limiter *rate.Limiter) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", handler.HandleHealthCheck)
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/solve", rateLimit(limiter, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleSolve(w, r)
	})))

	mux.HandleFunc("/api/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleListRuns(w, r)
	})

	mux.HandleFunc("/api/v1/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/runs/" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			handler.HandleGetRun(w, r)
		case http.MethodDelete:
			handler.HandleDeleteRun(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}

func rateLimit(limiter *rate.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			log.Printf("[HTTP] %s %s: rate_limited", r.Method, r.URL.Path)
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"code":"RATE_LIMITED","message":"Too many solve requests"}}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		path := metricsPath(r.URL.Path)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(lrw.statusCode)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path, strconv.Itoa(lrw.statusCode)).Observe(duration.Seconds())
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, lrw.statusCode, duration)
	})
}

// metricsPath collapses run IDs so the path label stays bounded
func metricsPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/runs/"):
		return "/api/v1/runs/{id}"
	case path == "/api/v1/health", path == "/api/v1/solve", path == "/api/v1/runs", path == "/metrics":
		return path
	default:
		return "other"
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
