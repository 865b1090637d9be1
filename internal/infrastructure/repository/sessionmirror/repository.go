// Package sessionmirror records session creation in PostgreSQL for
// ownership lookups. The session document itself lives in the key-value
// store.
package sessionmirror

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prompthub/services/library-api/internal/infrastructure/database/entities"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

// Repository persists session mirror rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// MirrorCreate records that ownerID created sessionID. Replays of the same
// session id are ignored.
func (r *Repository) MirrorCreate(ctx context.Context, sessionID, ownerID string) error {
	entity := entities.SessionMirror{
		SessionID: sessionID,
		OwnerID:   ownerID,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to mirror session",
			err,
			"9c3d7e6f-4a8b-4c0d-9e1f-2a3b4c5d6e7f",
		)
	}
	return nil
}
