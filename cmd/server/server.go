package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"prompthub/services/library-api/internal/config"
	"prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/domain/session"
	"prompthub/services/library-api/internal/infrastructure/auth"
	"prompthub/services/library-api/internal/infrastructure/crontab"
	"prompthub/services/library-api/internal/infrastructure/database"
	"prompthub/services/library-api/internal/infrastructure/kvstore"
	"prompthub/services/library-api/internal/infrastructure/llm"
	"prompthub/services/library-api/internal/infrastructure/logger"
	"prompthub/services/library-api/internal/infrastructure/observability"
	promptrepo "prompthub/services/library-api/internal/infrastructure/repository/prompt"
	"prompthub/services/library-api/internal/infrastructure/repository/sessionmirror"
	"prompthub/services/library-api/internal/infrastructure/storage"
	"prompthub/services/library-api/internal/interfaces/httpserver"
)

// Application bundles the long-running components of the service.
type Application struct {
	httpServer     *httpserver.HttpServer
	crontab        *crontab.Crontab
	sessionManager *session.Manager
	log            zerolog.Logger
}

func NewApplication(
	httpServer *httpserver.HttpServer,
	sweeper *crontab.Crontab,
	sessionManager *session.Manager,
	log zerolog.Logger,
) *Application {
	return &Application{
		httpServer:     httpServer,
		crontab:        sweeper,
		sessionManager: sessionManager,
		log:            log,
	}
}

// Start runs the HTTP server and the expiry sweeper until the context ends.
func (a *Application) Start(ctx context.Context) error {
	defer a.sessionManager.Close()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.httpServer.Run(egCtx)
	})
	eg.Go(func() error {
		return a.crontab.Run(egCtx)
	})
	return eg.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	photoStorage, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize photo storage")
	}

	kv, closeKV, err := newSessionBackend(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize session backend")
	}
	defer closeKV()

	mirrorRepository := sessionmirror.NewRepository(db)
	sessionManager := session.NewManager(kv, mirrorRepository, log)

	llmClient := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log)
	promptRepository := promptrepo.NewRepository(db)
	promptService := prompt.NewService(promptRepository, llmClient, llmClient, photoStorage, cfg.PromptTTL, log)

	sweeper := crontab.NewCrontab(promptService, cfg.PurgeSchedule, log)
	httpServer := httpserver.New(cfg, log, promptService, sessionManager, authValidator, photoStorage)
	app := NewApplication(httpServer, sweeper, sessionManager, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newSessionBackend picks Redis when configured, otherwise the in-process
// store. Both honor the same broadcast contract.
func newSessionBackend(cfg *config.Config, log zerolog.Logger) (kvstore.Store, func(), error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("SESSION_REDIS_URL not set; using in-process session store")
		return kvstore.NewMemoryStore(), func() {}, nil
	}

	store, err := kvstore.NewRedisStore(cfg.RedisURL, log)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis session store")
		}
	}, nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
