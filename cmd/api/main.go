// Package main - entry point for the LinguaSpark API server.
//
// LinguaSpark pairs an AI conversation tutor with a gamified progress
// engine: every message, grammar check, and vocabulary lookup earns
// points, extends streaks, and unlocks achievements, so daily practice
// feels like a game instead of homework.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic (points, streaks, achievements)
// - Application: use case orchestration (Commands/Queries)
// - Infrastructure: Postgres, Redis, Groq client, scheduler
// - Interface: HTTP REST handlers
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/linguaspark/linguaspark-api/config"
	"github.com/linguaspark/linguaspark-api/internal/application/auth"
	"github.com/linguaspark/linguaspark-api/internal/application/command"
	"github.com/linguaspark/linguaspark-api/internal/application/query"
	"github.com/linguaspark/linguaspark-api/internal/infrastructure/external/groq"
	"github.com/linguaspark/linguaspark-api/internal/infrastructure/persistence/postgres"
	"github.com/linguaspark/linguaspark-api/internal/infrastructure/persistence/redis"
	"github.com/linguaspark/linguaspark-api/internal/infrastructure/scheduler"
	"github.com/linguaspark/linguaspark-api/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/linguaspark/linguaspark-api/internal/interface/http"
	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})

	log.Info("starting LinguaSpark API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("model", cfg.Groq.Model),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional, leaderboard snapshot cache)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache query.LeaderboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			// The leaderboard degrades to direct database reads.
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			redisCache = cache
			leaderboardCache = redis.NewLeaderboardCache(cache)
			defer func() {
				log.Info("closing Redis connection")
				_ = redisCache.Close()
			}()
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	groqCfg := groq.DefaultClientConfig(cfg.Groq.APIKey)
	groqCfg.BaseURL = cfg.Groq.BaseURL
	groqCfg.Model = cfg.Groq.Model
	groqCfg.Timeout = cfg.Groq.RequestTimeout
	groqCfg.Logger = log
	groqClient := groq.NewClient(groqCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	userRepo := postgres.NewUserRepository(dbConn)
	statsRepo := postgres.NewStatsRepository(dbConn)
	chatRepo := postgres.NewChatRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		log.Warn("JWT_SECRET is not set, using an insecure development secret")
		jwtSecret = "linguaspark-dev-secret"
	}
	tokens := auth.NewTokens(jwtSecret, cfg.Auth.TokenTTL)

	statsHandler := command.NewUpdateStatsHandler(statsRepo, log)

	signupCmd := command.NewSignupHandler(userRepo, statsRepo, log)
	loginCmd := command.NewLoginHandler(userRepo, statsRepo, tokens, log)
	tutorChatCmd := command.NewTutorChatHandler(userRepo, chatRepo, groqClient, statsHandler, log)
	grammarCheckCmd := command.NewGrammarCheckHandler(userRepo, chatRepo, groqClient, statsHandler, log)
	vocabularyCmd := command.NewVocabularyHandler(userRepo, chatRepo, groqClient, statsHandler, log)

	progressQuery := query.NewGetProgressHandler(userRepo, statsRepo)
	insightsQuery := query.NewGetWeeklyInsightsHandler(userRepo, statsRepo)
	achievementsQuery := query.NewGetAchievementsHandler(userRepo, statsRepo)
	statsQuery := query.NewGetStatsHandler(userRepo, statsRepo)
	historyQuery := query.NewGetHistoryHandler(userRepo, chatRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(statsRepo, leaderboardCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && leaderboardCache != nil {
		sched = scheduler.New(scheduler.Config{
			Timezone:   cfg.App.Location,
			JobTimeout: cfg.Scheduler.JobTimeout,
			Logger:     log,
		})

		refreshJob := jobs.NewRefreshLeaderboardJob(leaderboardQuery)
		if err := sched.Every(cfg.Scheduler.RefreshLeaderboardInterval, refreshJob); err != nil {
			return fmt.Errorf("failed to schedule leaderboard refresh: %w", err)
		}

		// Warm the snapshot before the first interval elapses.
		if err := leaderboardQuery.Refresh(ctx); err != nil {
			log.Warn("initial leaderboard refresh failed", logger.Err(err))
		}

		sched.Start()
		defer sched.Stop()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.RequireAuth = cfg.HTTP.RequireAuth

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		SignupHandler:       signupCmd,
		LoginHandler:        loginCmd,
		TutorChatHandler:    tutorChatCmd,
		GrammarCheckHandler: grammarCheckCmd,
		VocabularyHandler:   vocabularyCmd,

		GetProgressHandler:       progressQuery,
		GetWeeklyInsightsHandler: insightsQuery,
		GetAchievementsHandler:   achievementsQuery,
		GetStatsHandler:          statsQuery,
		GetHistoryHandler:        historyQuery,
		GetLeaderboardHandler:    leaderboardQuery,

		Tokens:      tokens,
		HealthCheck: healthCheck(dbConn, redisCache),
		Logger:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("LinguaSpark API is running", logger.String("address", httpCfg.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown", logger.String("timeout", cfg.App.ShutdownTimeout.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// Scheduler, Redis, and the database close through defers.
	log.Info("shutdown completed")
	return nil
}

// healthCheck probes the hard dependencies for the /health endpoint.
func healthCheck(db *postgres.Connection, cache *redis.Cache) func(ctx context.Context) map[string]string {
	return func(ctx context.Context) map[string]string {
		checks := make(map[string]string)

		if err := db.Ping(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}

		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				checks["redis"] = "unhealthy: " + err.Error()
			} else {
				checks["redis"] = "healthy"
			}
		}

		return checks
	}
}
