package api

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Asker       Asker    // Required: the question-answering surface
	Pinger      Pinger   // Optional: readiness probe target
	Logger      *slog.Logger
	CORSOrigins []string // Optional: allowed origins; empty disables CORS
	RateLimit   float64  // Requests per second per IP; <= 0 disables limiting
	RateBurst   int
	TrustProxy  bool // Honor X-Forwarded-For for client IPs
}

// Server is the HTTP front end. Route handling runs behind the middleware
// stack: Recovery → RequestID → Logging → CORS → RateLimit → Routes.
type Server struct {
	handler http.Handler
	logger  *slog.Logger
	stop    chan struct{}
}

// NewServer wires routes and middleware.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	health := NewHealth(cfg.Pinger, logger)
	mux.HandleFunc("GET /health", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.Handle("POST /api/v1/ask", NewAsk(cfg.Asker, logger))

	stop := make(chan struct{})
	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		limiter := newIPLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst, cfg.TrustProxy)
		limiter.startSweeper(time.Minute, 10*time.Minute, stop)
		handler = rateLimitMiddleware(limiter, logger)(handler)
	}
	if len(cfg.CORSOrigins) > 0 {
		handler = CORSMiddleware(cfg.CORSOrigins)(handler)
	}
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(logger)(handler)

	return &Server{handler: handler, logger: logger, stop: stop}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	s.handler.ServeHTTP(w, r)
}

// Close stops background maintenance goroutines.
func (s *Server) Close() {
	close(s.stop)
}
