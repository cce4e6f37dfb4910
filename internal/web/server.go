// Package web provides the HTTP server, JSON API, live streams and pages of
// the Olympic participation dashboard.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/JonMunkholm/olympics/internal/config"
	"github.com/JonMunkholm/olympics/internal/core"
	"github.com/JonMunkholm/olympics/internal/metrics"
	webmw "github.com/JonMunkholm/olympics/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the dashboard.
type Server struct {
	cfg     *config.Config
	store   *core.Store
	queries *core.Queries
	hub     *core.NotificationHub
	metrics *metrics.Collector

	router *chi.Mux
	server *http.Server

	// loads tracks reloads started by POST /api/load so Shutdown can wait.
	loads sync.WaitGroup
}

// NewServer creates a new Server instance. collector may be nil.
func NewServer(cfg *config.Config, store *core.Store, hub *core.NotificationHub, collector *metrics.Collector) *Server {
	if collector == nil {
		collector = metrics.New()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		queries: core.NewQueries(store),
		hub:     hub,
		metrics: collector,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(webmw.Metrics(s.metrics))
	s.router.Use(middleware.Recoverer)

	// Security hardening
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes. Streaming routes are kept out of
// the request timeout group because they stay open for the client's lifetime.
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

		// Pages
		r.Get("/", s.handleHome)
		r.Get("/detail/{name}", s.handleDetail)

		r.Route("/api", func(r chi.Router) {
			// Dataset
			r.With(webmw.APIKeyAuth(&s.cfg.Security), reloadLimiter().middleware).Post("/load", s.handleLoad)
			r.Get("/state", s.handleState)
			r.Get("/olympics", s.handleOlympics)

			// Dashboard aggregates
			r.Get("/games/count", s.handleGamesCount)
			r.Get("/medals/share", s.handleMedalShare)

			// Per-country aggregates
			r.Route("/countries/{name}", func(r chi.Router) {
				r.Get("/entries", s.handleCountryEntries)
				r.Get("/medals", s.handleCountryMedals)
				r.Get("/athletes", s.handleCountryAthletes)
				r.Get("/series", s.handleCountrySeries)
				r.Get("/detail", s.handleCountryDetail)
			})
		})
	})

	// Live streams
	s.router.Route("/api/stream", func(r chi.Router) {
		r.Get("/state", s.handleStreamState)
		r.Get("/games", s.handleStreamGames)
		r.Get("/medals", s.handleStreamMedals)
		r.Get("/countries/{name}", s.handleStreamCountry)
	})
	s.router.Get("/api/notifications", s.handleNotifications)
	s.router.Get("/api/ws/state", s.handleWebSocketState)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and waits for reloads it started.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.loads.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("shutdown: reloads still in flight")
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Pages only run their own inline script and open same-origin streams
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; connect-src 'self'; img-src 'self' data:")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a fixed-window rate limiter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// reloadLimiter allows 10 reload requests per minute per client.
func reloadLimiter() *rateLimiter {
	return newRateLimiter(10, time.Minute)
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
}

// allow checks if the request should be allowed and consumes a token if so.
// Stale visitors are swept on the way.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, key)
		}
	}

	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
// RemoteAddr has already been rewritten by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(webmw.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}
