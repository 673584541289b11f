// Package web provides the JSON HTTP API over the merge pipeline: session
// lifecycle, the six pipeline stages, and the enrichment endpoints.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/topdeck/cardforge/internal/config"
	"github.com/topdeck/cardforge/internal/enrich"
	"github.com/topdeck/cardforge/internal/scryfall"
	"github.com/topdeck/cardforge/internal/session"
	"github.com/topdeck/cardforge/internal/shopify"
	"github.com/topdeck/cardforge/internal/tabular"
	mw "github.com/topdeck/cardforge/internal/web/middleware"
)

// Catalog is the set listing surface the API exposes directly.
type Catalog interface {
	Sets(ctx context.Context) ([]scryfall.Set, error)
}

// Enricher builds product rows from card lists.
type Enricher interface {
	Enrich(ctx context.Context, ds *tabular.Dataset) (*tabular.Dataset, *enrich.Report, error)
	EnrichSet(ctx context.Context, sourceID, setCode string) (*tabular.Dataset, *enrich.Report, error)
}

// Uploader pushes product datasets to the marketplace. Nil when the store
// is not configured.
type Uploader interface {
	Upload(ctx context.Context, ds *tabular.Dataset) ([]shopify.Result, error)
}

// Server is the HTTP server for the merge API.
type Server struct {
	cfg      *config.Config
	sessions *session.Service
	catalog  Catalog
	enricher Enricher
	uploader Uploader
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server instance. uploader may be nil.
func NewServer(cfg *config.Config, sessions *session.Service, catalog Catalog, enricher Enricher, uploader Uploader) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		catalog:  catalog,
		enricher: enricher,
		uploader: uploader,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Separate, tighter limit for endpoints that load files into memory or
	// fan out to external APIs.
	var uploadLimit func(http.Handler) http.Handler
	if s.cfg.Rate.Enabled {
		uploadLimit = newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware
	} else {
		uploadLimit = func(next http.Handler) http.Handler { return next }
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/sets", s.handleListSets)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			r.With(uploadLimit).Post("/files", s.handleUploadFiles)
			r.Post("/conflicts", s.handleResolveConflicts)
			r.Post("/reconcile", s.handleReconcile)
			r.Post("/merge", s.handleMerge)
			r.Post("/dedupe", s.handleDedupe)
			r.Get("/export", s.handleExport)

			r.With(uploadLimit).Post("/enrich", s.handleEnrich)
			r.With(uploadLimit).Post("/shopify-upload", s.handleShopifyUpload)
		})
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
