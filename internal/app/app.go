package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-studio/internal/auth"
	"github.com/gokatarajesh/quiz-studio/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-studio/internal/config"
	"github.com/gokatarajesh/quiz-studio/internal/db/migrations"
	"github.com/gokatarajesh/quiz-studio/internal/db/repository"
	"github.com/gokatarajesh/quiz-studio/internal/leaderboard"
	"github.com/gokatarajesh/quiz-studio/internal/logging"
	"github.com/gokatarajesh/quiz-studio/internal/mirror"
	"github.com/gokatarajesh/quiz-studio/internal/quiz"
	"github.com/gokatarajesh/quiz-studio/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// stores is the backend-specific pair of persistence contracts.
type stores struct {
	quizzes quiz.Store
	users   auth.UserStore
}

// New bootstraps logger, the configured store backend and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Str("backend", cfg.StoreBackend).Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}
	checks := map[string]server.Check{}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	var st stores
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := a.openPostgres(ctx)
		if err != nil {
			a.close()
			return nil, err
		}
		a.pool = pool
		checks["postgres"] = pool.Ping
		st = stores{
			quizzes: repository.NewQuizRepository(pool, nil),
			users:   repository.NewUserRepository(pool),
		}
	case config.BackendMirror:
		m := mirror.New(a.redis, mirror.WithKeyPrefix(cfg.Mirror.KeyPrefix))
		st = stores{quizzes: m, users: m}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	authSvc := auth.NewService(st.users, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			TTL:    cfg.Security.JWTTTL,
			Issuer: cfg.Security.JWTIssuer,
		},
		BcryptCost: cfg.Security.BcryptCost,
	}, logger)

	quizOpts := quiz.ServiceOptions{Metrics: quiz.NewMetrics(prometheus.DefaultRegisterer)}
	// caching applies to the SQL backend only
	if a.redis != nil && cfg.StoreBackend == config.BackendPostgres {
		quizOpts.Cache = quiz.NewPublicListCache(a.redis, cfg.Mirror.KeyPrefix, cfg.Cache.PublicListTTL)
		logger.Info().Dur("ttl", cfg.Cache.PublicListTTL).Msg("public quiz list cache enabled")
	}
	var board *leaderboard.Board
	if a.redis != nil {
		board = leaderboard.NewBoard(a.redis, leaderboard.Options{
			TopN:      cfg.Leaderboard.TopN,
			KeyPrefix: cfg.Mirror.KeyPrefix,
		}, logger)
		quizOpts.Scoreboard = board
	}
	quizSvc := quiz.NewService(st.quizzes, quizOpts, logger)

	deps := server.Deps{
		AuthService:     authSvc,
		Auth:            auth.NewHTTPHandlers(authSvc, logger),
		Quiz:            quiz.NewHTTPHandlers(quizSvc, logger),
		ReadinessChecks: checks,
	}
	if board != nil {
		deps.Leaderboard = leaderboard.NewHTTPHandler(board, quizSvc, logger)
	}
	a.http = server.NewHTTPServer(cfg, logger, deps)

	return a, nil
}

func (a *Application) openPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(a.cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if a.cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = a.cfg.Postgres.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if a.cfg.Postgres.AutoMigrate {
		db := stdlib.OpenDBFromPool(pool)
		results, err := migrations.Up(ctx, db)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
		a.logger.Info().Int("applied", len(results)).Msg("database migrations applied")
	}
	return pool, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Str("prefix", a.cfg.APIPrefix).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		a.close()
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.close()
	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}
