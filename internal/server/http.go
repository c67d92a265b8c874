package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/auth"
	"github.com/gokatarajesh/quiz-studio/internal/config"
	"github.com/gokatarajesh/quiz-studio/internal/leaderboard"
	"github.com/gokatarajesh/quiz-studio/internal/quiz"
	httperrors "github.com/gokatarajesh/quiz-studio/pkg/http/errors"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Deps carries the services and handlers the server mounts.
type Deps struct {
	AuthService *auth.Service
	Auth        *auth.HTTPHandlers
	Quiz        *quiz.HTTPHandlers

	// Leaderboard is mounted only when Redis is configured.
	Leaderboard *leaderboard.HTTPHandler

	// ReadinessChecks are run by /readyz, keyed by dependency name.
	ReadinessChecks map[string]Check

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewHTTPServer wires API, health and metrics routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, instrumented handler tree.
func NewHandler(cfg *config.App, logger zerolog.Logger, deps Deps) http.Handler {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /readyz", readiness(deps.ReadinessChecks, logger))
	mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	p := strings.TrimRight(cfg.APIPrefix, "/")
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.AuthMiddleware(deps.AuthService, logger)(auth.RequireAuth(h))
	}

	mux.HandleFunc("POST "+p+"/users/register", deps.Auth.Register)
	mux.HandleFunc("POST "+p+"/users/login", deps.Auth.Login)
	mux.Handle("GET "+p+"/users/profile", authed(deps.Auth.Profile))
	mux.Handle("GET "+p+"/users/me/stats", authed(deps.Quiz.Stats))

	mux.HandleFunc("GET "+p+"/quizzes", deps.Quiz.ListPublic)
	mux.HandleFunc("GET "+p+"/quizzes/{id}", deps.Quiz.Get)
	mux.Handle("GET "+p+"/quizzes/user/me", authed(deps.Quiz.ListMine))
	mux.Handle("POST "+p+"/quizzes", authed(deps.Quiz.Create))
	mux.Handle("PUT "+p+"/quizzes/{id}", authed(deps.Quiz.Update))
	mux.Handle("DELETE "+p+"/quizzes/{id}", authed(deps.Quiz.Delete))
	mux.Handle("POST "+p+"/quizzes/{id}/attempts", authed(deps.Quiz.SubmitAttempt))

	if deps.Leaderboard != nil {
		mux.HandleFunc("GET "+p+"/quizzes/{id}/leaderboard", deps.Leaderboard.HandleGet)
	}

	mux.Handle("POST "+p+"/results", authed(deps.Quiz.RecordResult))
	mux.Handle("GET "+p+"/results/user/me", authed(deps.Quiz.ListMyResults))

	metrics := NewHTTPMetrics(deps.Registerer)
	return instrument(logger, metrics)(cors(cfg.CORS)(mux))
}

func readiness(checks map[string]Check, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		ready := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Error().Err(err).Str("dependency", name).Msg("dependency ping failed")
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}

		if !ready {
			httperrors.RespondErrorWithDetails(w, http.StatusServiceUnavailable, httperrors.ErrCodeServiceUnavailable,
				"Dependencies unavailable", toDetails(status))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ready", "dependencies": status})
	}
}

func toDetails(status map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(status))
	for k, v := range status {
		out[k] = v
	}
	return out
}
