package prompt

import (
	"context"
	"time"
)

// Filter narrows catalog listings.
type Filter struct {
	Tag            string
	Search         string
	SessionID      string
	IncludeExpired bool
}

// Repository exposes data access for catalog cards and their engagement.
type Repository interface {
	Create(ctx context.Context, card *Card) error
	GetByID(ctx context.Context, id string) (*Card, error)
	List(ctx context.Context, filter Filter) ([]*Card, error)
	Delete(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error

	AddRating(ctx context.Context, rating *Rating) error
	AddComment(ctx context.Context, comment *Comment) error
	AddPhoto(ctx context.Context, photo *Photo) error

	CreateReport(ctx context.Context, report *Report) error
	ResolveReport(ctx context.Context, id string) error

	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
