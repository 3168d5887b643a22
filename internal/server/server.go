package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/fridgly/internal/handler"
	"github.com/dukerupert/fridgly/internal/middleware"
	ws "github.com/dukerupert/fridgly/internal/websocket"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	sessionH    *handler.SessionHandler
	itemH       *handler.ItemHandler
	auth        *middleware.Authenticator
	hub         *ws.Hub
	rateLimiter *middleware.RateLimiter
	gatherer    prometheus.Gatherer
	checks      map[string]HealthCheck
	origins     []string
	trustProxy  bool
	logger      *slog.Logger
}

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Items       handler.ItemService
	Auth        *middleware.Authenticator
	Hub         *ws.Hub
	RateLimiter *middleware.RateLimiter
	Gatherer    prometheus.Gatherer
	Checks      map[string]HealthCheck
	Origins     []string
	// TrustProxy keys the sign-in limiter on forwarding headers.
	TrustProxy bool
}

func New(d Deps, logger *slog.Logger) *Server {
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		sessionH:    handler.NewSessionHandler(d.Auth, logger.With("component", "session")),
		itemH:       handler.NewItemHandler(d.Items, d.Hub, logger.With("component", "item")),
		auth:        d.Auth,
		hub:         d.Hub,
		rateLimiter: d.RateLimiter,
		gatherer:    d.Gatherer,
		checks:      d.Checks,
		origins:     d.Origins,
		trustProxy:  d.TrustProxy,
		logger:      logger,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.Handle("POST /api/session", s.rateLimited(http.HandlerFunc(s.sessionH.Create)))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/api/", s.auth.RequireAuth(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PATCH /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)

	mux.HandleFunc("GET /api/ws", ws.HandleWebSocket(s.hub, s.origins))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("health check failed", "check", name, "error", err)
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[name] = err.Error()
			continue
		}
		body[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) rateLimited(h http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return h
	}
	return middleware.RateLimit(s.rateLimiter, middleware.ClientIP(s.trustProxy))(h)
}
