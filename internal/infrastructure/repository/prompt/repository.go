// Package prompt persists catalog cards and their engagement in PostgreSQL.
package prompt

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domain "prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/infrastructure/database/entities"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

// Repository handles prompt card persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, card *domain.Card) error {
	entity := entities.PromptCard{
		ID:         card.ID,
		Title:      card.Title,
		UseCase:    card.UseCase,
		PromptBody: card.PromptBody,
		Tags:       strings.Join(card.Tags, ","),
		AuthorName: card.AuthorName,
		AuthorRole: card.AuthorRole,
		SessionID:  card.SessionID,
		ExpiresAt:  card.ExpiresAt,
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create prompt card",
			err,
			"4f8a2b1c-9d3e-4f5a-8b6c-7d8e9f0a1b2c",
		)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	var entity entities.PromptCard
	err := r.db.WithContext(ctx).Preload("Photos").Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"prompt card not found",
				err,
				"5a9b3c2d-0e4f-4a6b-9c7d-8e9f0a1b2c3d",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get prompt card",
			err,
			"6b0c4d3e-1f5a-4b7c-8d8e-9f0a1b2c3d4e",
		)
	}

	card := mapEntity(entity)
	if err := r.attachEngagement(ctx, []*domain.Card{&card}); err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *Repository) List(ctx context.Context, filter domain.Filter) ([]*domain.Card, error) {
	query := r.db.WithContext(ctx).Model(&entities.PromptCard{}).Preload("Photos")
	if !filter.IncludeExpired {
		query = query.Where("expires_at > ?", time.Now())
	}
	if filter.Tag != "" {
		query = query.Where("tags LIKE ?", "%"+strings.ToLower(filter.Tag)+"%")
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(use_case) LIKE ?", pattern, pattern)
	}
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}

	var rows []entities.PromptCard
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list prompt cards",
			err,
			"7c1d5e4f-2a6b-4c8d-9e9f-0a1b2c3d4e5f",
		)
	}

	cards := make([]*domain.Card, 0, len(rows))
	for _, row := range rows {
		card := mapEntity(row)
		cards = append(cards, &card)
	}
	if err := r.attachEngagement(ctx, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Delete(&entities.PromptCard{ID: id}).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete prompt card",
			err,
			"8d2e6f5a-3b7c-4d9e-8f0a-1b2c3d4e5f6a",
		)
	}
	return nil
}

func (r *Repository) IncrementViewCount(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&entities.PromptCard{ID: id}).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to increment view count",
			err,
			"9e3f7a6b-4c8d-4e0f-9a1b-2c3d4e5f6a7b",
		)
	}
	return nil
}

func (r *Repository) AddRating(ctx context.Context, rating *domain.Rating) error {
	entity := entities.PromptRating{
		ID:       rating.ID,
		PromptID: rating.PromptID,
		Stars:    rating.Stars,
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to add rating",
			err,
			"0f4a8b7c-5d9e-4f1a-8b2c-3d4e5f6a7b8c",
		)
	}
	return nil
}

func (r *Repository) AddComment(ctx context.Context, comment *domain.Comment) error {
	entity := entities.PromptComment{
		ID:         comment.ID,
		PromptID:   comment.PromptID,
		AuthorName: comment.AuthorName,
		Text:       comment.Text,
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to add comment",
			err,
			"1a5b9c8d-6e0f-4a2b-9c3d-4e5f6a7b8c9d",
		)
	}
	return nil
}

func (r *Repository) AddPhoto(ctx context.Context, photo *domain.Photo) error {
	entity := entities.PromptPhoto{
		ID:        photo.ID,
		PromptID:  photo.PromptID,
		URL:       photo.URL,
		SortOrder: photo.Order,
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to add photo",
			err,
			"2b6c0d9e-7f1a-4b3c-8d4e-5f6a7b8c9d0e",
		)
	}
	return nil
}

func (r *Repository) CreateReport(ctx context.Context, report *domain.Report) error {
	entity := entities.Report{
		ID:        report.ID,
		PromptID:  report.PromptID,
		CommentID: report.CommentID,
		Reason:    report.Reason,
		Status:    string(report.Status),
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create report",
			err,
			"3c7d1e0f-8a2b-4c4d-9e5f-6a7b8c9d0e1f",
		)
	}
	return nil
}

func (r *Repository) ResolveReport(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&entities.Report{}).
		Where("id = ?", id).
		Update("status", string(domain.ReportResolved))
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to resolve report",
			result.Error,
			"4d8e2f1a-9b3c-4d5e-8f6a-7b8c9d0e1f2a",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"report not found",
			nil,
			"5e9f3a2b-0c4d-4e6f-9a7b-8c9d0e1f2a3b",
		)
	}
	return nil
}

func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("expires_at < ?", before).
		Delete(&entities.PromptCard{})
	if result.Error != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete expired cards",
			result.Error,
			"6f0a4b3c-1d5e-4f7a-8b8c-9d0e1f2a3b4c",
		)
	}
	return result.RowsAffected, nil
}

type engagementRow struct {
	PromptID string
	Avg      float64
	Count    int
}

// attachEngagement fills rating and comment aggregates for the given cards
// in two grouped queries.
func (r *Repository) attachEngagement(ctx context.Context, cards []*domain.Card) error {
	if len(cards) == 0 {
		return nil
	}
	ids := make([]string, 0, len(cards))
	byID := make(map[string]*domain.Card, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
		byID[card.ID] = card
	}

	var ratings []engagementRow
	err := r.db.WithContext(ctx).Model(&entities.PromptRating{}).
		Select("prompt_id, AVG(stars) AS avg, COUNT(*) AS count").
		Where("prompt_id IN ?", ids).
		Group("prompt_id").
		Scan(&ratings).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to aggregate ratings",
			err,
			"7a1b5c4d-2e6f-4a8b-9c9d-0e1f2a3b4c5d",
		)
	}
	for _, row := range ratings {
		if card, ok := byID[row.PromptID]; ok {
			card.AvgRating = row.Avg
			card.RatingCount = row.Count
		}
	}

	var comments []engagementRow
	err = r.db.WithContext(ctx).Model(&entities.PromptComment{}).
		Select("prompt_id, COUNT(*) AS count").
		Where("prompt_id IN ?", ids).
		Group("prompt_id").
		Scan(&comments).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to aggregate comments",
			err,
			"8b2c6d5e-3f7a-4b9c-8d0e-1f2a3b4c5d6e",
		)
	}
	for _, row := range comments {
		if card, ok := byID[row.PromptID]; ok {
			card.CommentCount = row.Count
		}
	}
	return nil
}

func mapEntity(entity entities.PromptCard) domain.Card {
	var tags []string
	if entity.Tags != "" {
		tags = strings.Split(entity.Tags, ",")
	}
	photos := make([]domain.Photo, 0, len(entity.Photos))
	for _, p := range entity.Photos {
		photos = append(photos, domain.Photo{
			ID:        p.ID,
			PromptID:  p.PromptID,
			URL:       p.URL,
			Order:     p.SortOrder,
			CreatedAt: p.CreatedAt,
		})
	}
	return domain.Card{
		ID:         entity.ID,
		Title:      entity.Title,
		UseCase:    entity.UseCase,
		PromptBody: entity.PromptBody,
		Tags:       tags,
		AuthorName: entity.AuthorName,
		AuthorRole: entity.AuthorRole,
		SessionID:  entity.SessionID,
		CreatedAt:  entity.CreatedAt,
		ExpiresAt:  entity.ExpiresAt,
		ViewCount:  entity.ViewCount,
		Photos:     photos,
	}
}
