package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"propertypilot_backend/internal/catalog/repository"
	"propertypilot_backend/internal/chat"
	chathandler "propertypilot_backend/internal/chat/handler"
	"propertypilot_backend/internal/flow"
	apphttp "propertypilot_backend/internal/http"
	"propertypilot_backend/internal/http/router"
	"propertypilot_backend/internal/nlu"
	"propertypilot_backend/internal/session"
	"propertypilot_backend/migrations"
	"propertypilot_backend/platform/config"
	"propertypilot_backend/platform/db"
	"propertypilot_backend/platform/logger"
	"propertypilot_backend/platform/validator"
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
		return db.RunMigrations(ctx, cfg, migrations.FS)
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

	sessionStore, modeReporter := initSessionStore(cfg, log)

	classifier, extractor := initNLU(ctx, cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	catalogStore := repository.New(pool)

	engine := flow.NewEngine(sessionStore, catalogStore, classifier, extractor, flow.Options{
		RadiusKM:       cfg.GetRadiusKM(),
		NLUTimeout:     cfg.GetClassifierTimeout(),
		CatalogTimeout: cfg.GetCatalogTimeout(),
		StoreTimeout:   cfg.GetStoreTimeout(),
	}, log)

	chatModule := chat.NewModule(engine, modeReporter, val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			chatModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSessionStore wires redis with the in-memory fail-open fallback, or the
// in-memory store alone when redis is not configured.
func initSessionStore(cfg config.SessionConfig, log *logger.Logger) (session.Store, chathandler.ModeReporter) {
	fallback := session.NewMemoryStore(cfg.GetSessionTTL())

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; conversation state will not survive restarts")
		return fallback, nil
	}

	primary, err := session.NewRedisStore(cfg.GetRedisURL(), cfg.GetSessionTTL())
	if err != nil {
		log.Error("failed to initialize redis session store", "error", err)
		log.Warn("falling back to in-memory session store")
		return fallback, nil
	}

	store := session.NewFailoverStore(primary, fallback, log)
	return store, store
}

// initNLU wires the Gemini classifier/extractor. Without an API key the
// engine runs on the deterministic interceptor alone.
func initNLU(ctx context.Context, cfg config.ClassifierConfig, log *logger.Logger) (nlu.Classifier, nlu.Extractor) {
	if !cfg.IsClassifierEnabled() {
		log.Warn("GEMINI_API_KEY not configured; intent classification disabled")
		return nil, nil
	}

	gemini, err := nlu.NewGeminiNLU(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize gemini client", "error", err)
		panic("failed to initialize gemini client: " + err.Error())
	}
	log.Info("classifier initialized", "model", cfg.GetGeminiModel())
	return gemini, gemini
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

	return errors.New(name + ": " + lastErr.Error())
}
