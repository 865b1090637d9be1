package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"prompthub/services/library-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the library domain.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.PromptCard{},
		&entities.PromptPhoto{},
		&entities.PromptRating{},
		&entities.PromptComment{},
		&entities.Report{},
		&entities.SessionMirror{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
