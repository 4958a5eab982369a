// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Command api runs the Spotex CMS HTTP API.
//
// main only wires: storage (PostgreSQL with migrations, or memory), the
// optional Redis client, the event bus and webhook dispatcher, the services
// and the router. On SIGINT or SIGTERM the server stops first, then the
// webhook queue drains, then background jobs stop.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/api"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/audit"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/content/post"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/memstore"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/config"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/constants"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/metrics"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/migration"
	pgstore "github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/postgres"
	redisstore "github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/redis"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/scheduler"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/sec"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/ratelimit"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/apikey"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/auth"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/users/gate"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/webhook"
)

const startupTimeout = 30 * time.Second

// repositories is the storage backend chosen by STORAGE_DRIVER.
type repositories struct {
	users    auth.UserRepository
	sessions auth.SessionRepository
	apiKeys  apikey.Repository
	audit    audit.Repository
	webhooks webhook.Repository
	posts    post.Repository
}

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageDriver),
	)

	// Bounds every connect, ping and migration below.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startupCancel()

	clk := clock.System{}
	health := api.HealthDependencies{}

	var telemetry *metrics.Metrics
	if cfg.MetricsEnabled {
		telemetry = metrics.New()
	}

	// ── 3. Storage ────────────────────────────────────────────────────────
	var repos repositories
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := pgstore.NewPool(startupCtx, pgstore.Settings{
			DSN:              cfg.DatabaseURL,
			MaxConns:         cfg.DBMaxConns,
			MinConns:         cfg.DBMinConns,
			StatementTimeout: constants.GlobalRequestTimeout,
		}, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("postgres_pool_closing")
			pool.Close()
		}()

		if cfg.RunMigrations {
			_, err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log)
			must(log, err, "run migrations")
		}

		health.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}
		telemetry.ObserveDBPool(func() (total, idle, max int32) {
			return pgstore.PoolStats(pool)
		})
		repos = repositories{
			users:    auth.NewUserRepository(pool),
			sessions: auth.NewSessionRepository(pool),
			apiKeys:  apikey.NewPostgresRepository(pool),
			audit:    audit.NewPostgresRepository(pool),
			webhooks: webhook.NewPostgresRepository(pool),
			posts:    post.NewPostgresRepository(pool),
		}

	default:
		log.Warn("memory_storage_enabled", slog.String("hint", "data is lost on restart"))
		store := memstore.New()
		repos = repositories{
			users:    store.Users,
			sessions: store.Sessions,
			apiKeys:  store.APIKeys,
			audit:    store.Audit,
			webhooks: store.Webhooks,
			posts:    store.Posts,
		}
	}

	// ── 4. Redis & Rate Limiting ──────────────────────────────────────────
	limits := ratelimit.Limits{
		General: cfg.RateLimitGeneral,
		Auth:    cfg.RateLimitAuth,
		API:     cfg.RateLimitAPI,
	}
	limiters := ratelimit.NewMemoryRegistry(limits, clk)

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, cfg.RedisPoolSize, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("redis_client_closing")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()

		health.CheckCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
		if cfg.RateLimitBackend == config.RateLimitBackendRedis {
			limiters = ratelimit.NewRedisRegistry(rdb, limits, clk, log)
		}
	}

	// ── 5. Security Primitives ────────────────────────────────────────────
	hasher := sec.NewHasher(cfg.BcryptCost)
	tokens, err := sec.NewTokenCodec(cfg.SecretKey, constants.AuthIssuer, cfg.AccessTTL, cfg.RefreshTTL, clk)
	must(log, err, "initialize token codec")

	// ── 6. Events, Audit & Webhooks ───────────────────────────────────────
	guard := webhook.TargetGuard{AllowPrivate: cfg.WebhookAllowPrivate}
	dispatcher := webhook.NewDispatcher(repos.webhooks, webhook.Options{
		Workers:    cfg.WebhookWorkers,
		QueueSize:  cfg.WebhookQueueSize,
		Timeout:    cfg.WebhookTimeout,
		MaxRetries: cfg.WebhookMaxRetries,
		RetryBase:  cfg.WebhookRetryBase,
		MaxRPS:     cfg.WebhookMaxRPS,
		UserAgent:  cfg.UserAgent(),
		Guard:      guard,
	}, clk, log, telemetry)
	dispatcher.Start()

	auditService := audit.NewService(repos.audit, clk, log, telemetry)
	bus := events.NewBus(
		events.WithSync(auditService.EventHandler()),
		events.WithAsync(dispatcher),
		events.WithClock(clk),
		events.WithLogger(log),
	)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(repos.users, repos.sessions, hasher, tokens, bus, clk, log)
	apiKeyService := apikey.NewService(repos.apiKeys, hasher, bus, clk, log)
	webhookService := webhook.NewService(repos.webhooks, dispatcher, guard, bus, clk, log)
	postService := post.NewService(repos.posts, bus, clk, log)

	authGate := gate.New(tokens, authService, authService, apiKeyService, gate.Options{
		SessionBound: cfg.SessionBoundTokens,
	}, log)

	bootstrapAdmin(startupCtx, log, cfg, authService)

	// ── 8. Background Jobs ────────────────────────────────────────────────
	jobs := scheduler.New(log)
	must(log, jobs.Add("session_cleanup", cfg.SessionCleanupSchedule, func(ctx context.Context) error {
		purged, err := authService.PurgeExpiredSessions(ctx)
		if err != nil {
			return err
		}
		log.Debug("expired_sessions_purged", slog.Int64("count", purged))
		return nil
	}), "schedule session cleanup")
	must(log, jobs.Add("ratelimit_prune", cfg.RateLimitPruneSchedule, func(ctx context.Context) error {
		limiters.Prune()
		return nil
	}), "schedule rate limit prune")
	jobs.Start()

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(health, log)
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		Sessions:  auth.NewSessionHandler(authService),
		APIKeys:   apikey.NewHandler(apiKeyService),
		Audit:     audit.NewHandler(auditService),
		Webhooks:  webhook.NewHandler(webhookService),
		Posts:     post.NewHandler(postService),
	}

	server := api.NewServer(cfg, log, api.Dependencies{
		Authenticator: authGate,
		Limiters:      limiters,
		Metrics:       telemetry,
	}, handlers)

	// ── 10. Serve & Shutdown ──────────────────────────────────────────────
	signalCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stopSignals()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-signalCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serverErr:
		log.Error("server_failed", slog.Any("error", err))
		exitCode = 1
	}
	stopSignals()

	log.Info("server_draining", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("server_shutdown_failed", slog.Any("error", err))
		exitCode = 1
	}

	// Nothing publishes once the server is down, so the webhook queue can drain.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer drainCancel()

	if err := dispatcher.Close(drainCtx); err != nil {
		log.Warn("webhook_queue_not_drained", slog.Any("error", err))
	}
	apiKeyService.Wait()
	if err := jobs.Stop(drainCtx); err != nil {
		log.Warn("scheduler_stop_timeout", slog.Any("error", err))
	}

	log.Info("server_stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// newLogger builds the JSON logger with the global app attribute.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// bootstrapAdmin creates the first administrator when the BOOTSTRAP_ADMIN_* variables are set.
func bootstrapAdmin(ctx context.Context, log *slog.Logger, cfg *config.Config, service *auth.Service) {
	if cfg.BootstrapAdminUsername == "" || cfg.BootstrapAdminPassword == "" {
		return
	}

	created, err := service.EnsureAdmin(ctx, auth.RegisterInput{
		Username: cfg.BootstrapAdminUsername,
		Email:    cfg.BootstrapAdminEmail,
		Password: cfg.BootstrapAdminPassword,
	})
	must(log, err, "bootstrap administrator")

	if created {
		log.Info("bootstrap_admin_created", slog.String("username", cfg.BootstrapAdminUsername))
	}
}

// must exits on a wiring error. Only main's setup path may use it.
func must(log *slog.Logger, err error, step string) {
	if err == nil {
		return
	}
	log.Error("startup_failed", slog.String("step", step), slog.Any("error", err))
	os.Exit(1)
}
