// Package api wires the HTTP surface: routing, middleware chain, and
// handler construction.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gatherpoint/server/internal/api/handlers"
	"github.com/gatherpoint/server/internal/api/middleware"
	"github.com/gatherpoint/server/internal/audit"
	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/config"
	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/gatherpoint/server/internal/email"
	"github.com/gatherpoint/server/internal/metrics"
	"github.com/gatherpoint/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewRouter builds the full HTTP handler. The returned cleanup stops
// background work owned by the middleware and must run on shutdown.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version string) (http.Handler, func(), error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, nil, err
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	var sender accounts.AlertSender
	if cfg.Email.Enabled {
		sender = email.NewService(cfg.Email, logger)
	}
	dispatcher := accounts.NewAlertDispatcher(sender, cfg.Email.SendTimeout, logger)

	accountsService := accounts.NewService(repo.Accounts(), tokens, dispatcher, logger)
	eventsService := events.NewService(repo.Events())

	auditLogger := audit.NewLogger(logger)
	authHandler := handlers.NewAuthHandler(accountsService, logger, auditLogger, cfg.Environment, cfg.RateLimit.TrustedProxyCIDRs)
	eventsHandler := handlers.NewEventsHandler(eventsService, logger, cfg.Environment)
	health := handlers.NewHealthChecker(pool, version)

	requireAuth := middleware.BearerAuth(tokens, cfg.Environment)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	limit := limiter.Middleware()
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	// The tier wrapper must run before the limiter so the limiter can
	// pick the login bucket off the context.
	limitLogin := func(h http.Handler) http.Handler { return loginTier(limit(h)) }

	mux := http.NewServeMux()
	mux.Handle("/healthz", health.Health())
	mux.Handle("/readyz", health.Ready())
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: limit(http.HandlerFunc(authHandler.Register)),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: limitLogin(http.HandlerFunc(authHandler.Login)),
	}))
	mux.Handle("/api/v1/auth/me", methodMux(map[string]http.Handler{
		http.MethodGet: limit(requireAuth(http.HandlerFunc(authHandler.Me))),
	}))
	mux.Handle("/api/v1/auth/alerts", methodMux(map[string]http.Handler{
		http.MethodPut: limit(requireAuth(http.HandlerFunc(authHandler.SetAlertPreference))),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  limit(http.HandlerFunc(eventsHandler.List)),
		http.MethodPost: limit(requireAuth(http.HandlerFunc(eventsHandler.Create))),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    limit(http.HandlerFunc(eventsHandler.Get)),
		http.MethodPut:    limit(requireAuth(http.HandlerFunc(eventsHandler.Update))),
		http.MethodDelete: limit(requireAuth(http.HandlerFunc(eventsHandler.Delete))),
	}))

	var handler http.Handler = mux
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, limiter.Stop, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
