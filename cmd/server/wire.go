//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"prompthub/services/library-api/internal/config"
	"prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/domain/safety"
	"prompthub/services/library-api/internal/domain/session"
	"prompthub/services/library-api/internal/infrastructure/auth"
	"prompthub/services/library-api/internal/infrastructure/crontab"
	"prompthub/services/library-api/internal/infrastructure/database"
	"prompthub/services/library-api/internal/infrastructure/kvstore"
	"prompthub/services/library-api/internal/infrastructure/llm"
	"prompthub/services/library-api/internal/infrastructure/logger"
	promptrepo "prompthub/services/library-api/internal/infrastructure/repository/prompt"
	"prompthub/services/library-api/internal/infrastructure/repository/sessionmirror"
	"prompthub/services/library-api/internal/infrastructure/storage"
	"prompthub/services/library-api/internal/interfaces/httpserver"
)

var catalogSet = wire.NewSet(
	promptrepo.NewRepository,
	wire.Bind(new(prompt.Repository), new(*promptrepo.Repository)),
	newLLMClient,
	wire.Bind(new(safety.Classifier), new(*llm.Client)),
	wire.Bind(new(safety.Assistant), new(*llm.Client)),
	newPromptService,
)

var sessionSet = wire.NewSet(
	newSessionStore,
	sessionmirror.NewRepository,
	wire.Bind(new(session.MirrorRepository), new(*sessionmirror.Repository)),
	session.NewManager,
)

// BuildApplication assembles the library service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		newLogger,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		newStorage,
		catalogSet,
		sessionSet,
		newCrontab,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Backend, error) {
	return storage.New(ctx, cfg, log)
}

func newSessionStore(cfg *config.Config, log zerolog.Logger) (kvstore.Store, error) {
	if cfg.RedisURL == "" {
		return kvstore.NewMemoryStore(), nil
	}
	return kvstore.NewRedisStore(cfg.RedisURL, log)
}

func newLLMClient(cfg *config.Config, log zerolog.Logger) *llm.Client {
	return llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log)
}

func newPromptService(
	repo prompt.Repository,
	classifier safety.Classifier,
	assistant safety.Assistant,
	photoStorage storage.Backend,
	cfg *config.Config,
	log zerolog.Logger,
) *prompt.Service {
	return prompt.NewService(repo, classifier, assistant, photoStorage, cfg.PromptTTL, log)
}

func newCrontab(service *prompt.Service, cfg *config.Config, log zerolog.Logger) *crontab.Crontab {
	return crontab.NewCrontab(service, cfg.PurgeSchedule, log)
}
