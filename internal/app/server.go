package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/notesync-backend/internal/auth"
	"github.com/heartmarshall/notesync-backend/internal/config"
	"github.com/heartmarshall/notesync-backend/internal/service/notesync"
	"github.com/heartmarshall/notesync-backend/internal/transport/middleware"
	"github.com/heartmarshall/notesync-backend/internal/transport/rest"
	"github.com/heartmarshall/notesync-backend/internal/transport/ws"
)

// newHandler builds the HTTP surface. Probes and /metrics sit outside the
// API chain so they work without a token and are never rate limited.
func newHandler(cfg *config.Config, log *slog.Logger, session *notesync.Session, b *backend, limiter *middleware.RateLimiter) http.Handler {
	api := http.NewServeMux()
	rest.NewNotesHandler(session, log).Register(api)
	ws.NewStreamHandler(session, log, middleware.ParseOrigins(cfg.CORS.AllowedOrigins)).Register(api)

	var authn middleware.Middleware
	if cfg.Auth.Enabled() {
		jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
		authn = middleware.Auth(jwtManager, cfg.Sync.ProjectID, cfg.Auth.Required)
	}
	// Rate limiting keys on the actor, so it runs after Auth.
	apiStack := middleware.NewStack(middleware.CORS(cfg.CORS), authn, limiter.Limit())

	root := http.NewServeMux()
	var health *rest.HealthHandler
	if b.pool != nil {
		health = rest.NewHealthHandler(b.pool, session, BuildVersion())
	} else {
		health = rest.NewHealthHandler(nil, session, BuildVersion())
	}
	health.Register(root)
	root.Handle("GET /metrics", promhttp.Handler())
	root.Handle("/v1/", apiStack.Then(api))

	return middleware.NewStack(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
	).Then(root)
}

func newServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
