package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixmarket_backend/internal/chat"
	"fixmarket_backend/internal/classifier"
	"fixmarket_backend/internal/dispatch"
	"fixmarket_backend/internal/events"
	apphttp "fixmarket_backend/internal/http"
	"fixmarket_backend/internal/http/router"
	"fixmarket_backend/internal/notification"
	"fixmarket_backend/internal/quotes"
	"fixmarket_backend/internal/scheduler"
	"fixmarket_backend/internal/tickets"
	"fixmarket_backend/internal/vendors"
	vendorrepo "fixmarket_backend/internal/vendors/repository"
	"fixmarket_backend/platform/config"
	"fixmarket_backend/platform/db"
	"fixmarket_backend/platform/logger"
	"fixmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	redisOpt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		panic("failed to parse redis url: " + err.Error())
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Conversation classifier: keyword matching, with the external
	// summarizer in front when an API key is configured.
	var summarizer classifier.Summarizer
	if cfg.IsClassifierEnabled() {
		gs, err := classifier.NewGeminiSummarizer(ctx, cfg.GetGeminiAPIKey(), cfg.GetClassifierModel())
		if err != nil {
			log.Error("failed to initialize summarizer, keyword classifier only", "error", err)
		} else {
			summarizer = gs
			log.Info("external classifier enabled", "model", cfg.GetClassifierModel())
		}
	}
	classifierSvc := classifier.New(summarizer, cfg.GetClassifierTimeout(), log)

	chatModule := chat.NewModule(rdb, cfg.GetChatSessionTTL(), val, log)
	ticketsModule := tickets.NewModule(pool, classifierSvc, eventBus, val, log)
	vendorsModule := vendors.NewModule(pool, ticketsModule.Repository(), cfg.GetDefaultRegion(), val, log)
	quotesModule := quotes.NewModule(pool, eventBus, cfg.GetRejectSiblingsOnAccept(), val, log)
	dispatchModule := dispatch.NewModule(
		pool,
		ticketsModule.Repository(),
		chatModule.Service(),
		classifierSvc,
		eventBus,
		cfg.GetUrgentHold(),
		val,
		log,
	)

	// Notification module subscribes to domain events (not HTTP-facing)
	sender := notification.NewSender(cfg)
	alertQueue, closeQueue := initAlertQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}
	subscriber := notification.NewSubscriber(sender, vendorrepo.New(pool), alertQueue, log)
	subscriber.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			chatModule,
			ticketsModule,
			vendorsModule,
			quotesModule,
			dispatchModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initAlertQueue connects the asynq client used for urgent alert delivery.
// Runs without a queue when redis is not configured for the scheduler.
func initAlertQueue(cfg *config.Config, log *logger.Logger) (notification.AlertQueue, func()) {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Warn("alert queue disabled", "error", err)
		return nil, nil
	}
	return client, func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close alert queue client", "error", err)
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
