// Package api serves reference resolution over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/FocuswithJustin/VerseTip/core/cache"
	"github.com/FocuswithJustin/VerseTip/core/ref"
	"github.com/FocuswithJustin/VerseTip/core/resolve"
	"github.com/FocuswithJustin/VerseTip/internal/logging"
)

// Version is reported by the root and health endpoints.
var Version = "dev"

// Server wires the resolution state to HTTP handlers.
type Server struct {
	cfg     Config
	state   *resolve.State
	loader  resolve.Loader
	results *cache.ResultCache
	hub     *Hub
	reloads *ReloadStore
	wsLimit *WebSocketRateLimiter
	limiter *RateLimiter
	started time.Time
}

// New creates a server over state. loader is used by POST /reload; a nil
// loader loads cfg.Corpus from disk.
func New(cfg Config, state *resolve.State, loader resolve.Loader) (*Server, error) {
	cfg = cfg.withDefaults()
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if loader == nil && cfg.Corpus != "" {
		loader = resolve.FileLoader(cfg.Corpus)
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.MaxSize = 4096
	if cfg.CacheSize > 0 {
		cacheCfg.MaxSize = cfg.CacheSize
	}

	s := &Server{
		cfg:     cfg,
		state:   state,
		loader:  loader,
		results: cache.NewResultCache(cacheCfg),
		hub:     NewHub(),
		reloads: NewReloadStore(),
		wsLimit: NewWebSocketRateLimiter(),
		started: time.Now(),
	}
	if cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		})
	}
	return s, nil
}

// Hub returns the websocket hub announcing snapshot publication.
func (s *Server) Hub() *Hub { return s.hub }

// Handler builds the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/resolve", s.handleResolve)
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/reload", s.handleReload)
	mux.HandleFunc("/reload/", s.handleReloadByID)
	mux.Handle("/ws", SecureWebSocketHandler(s.hub, s.cfg.WebSocket, s.wsLimit))

	var handler http.Handler = SecurityHeaders(mux)
	handler = AuthMiddleware(s.cfg.Auth, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = CORSMiddleware(CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	return logging.CombinedMiddleware(handler)
}

// Run starts the hub and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)
	if s.limiter != nil {
		defer s.limiter.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.ServerStartup("rest_api", "http", s.cfg.Port,
		"websocket_protocol", "ws",
		"corpus", s.cfg.Corpus,
		"auth", s.cfg.Auth.Enabled)
	if len(s.cfg.AllowedOrigins) == 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*)")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// scanOptions returns the scanner options bound to sn.
func (s *Server) scanOptions(sn *resolve.Snapshot) []ref.ScanOption {
	return []ref.ScanOption{
		ref.WithNameScorer(sn.NameScore),
		ref.WithMaxNameWords(s.cfg.MaxNameWords),
	}
}

// snapshotResolver resolves through the result cache against one snapshot.
type snapshotResolver struct {
	results *cache.ResultCache
	snap    *resolve.Snapshot
}

func (r snapshotResolver) Resolve(key string) resolve.Result {
	return r.results.Resolve(r.snap, key)
}
