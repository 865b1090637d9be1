package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/domain/safety"
	"prompthub/services/library-api/internal/utils/idgen"
	"prompthub/services/library-api/internal/utils/photoid"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

var allowedPhotoMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// PhotoStorage stores photo objects and resolves their public URLs.
type PhotoStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// Service implements the catalog use cases.
type Service struct {
	repo       Repository
	classifier safety.Classifier
	assistant  safety.Assistant
	storage    PhotoStorage
	cardTTL    time.Duration
	log        zerolog.Logger
	now        func() time.Time
	newID      func() (string, error)
}

// NewService wires the catalog service with its collaborators.
func NewService(repo Repository, classifier safety.Classifier, assistant safety.Assistant, storage PhotoStorage, cardTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		classifier: classifier,
		assistant:  assistant,
		storage:    storage,
		cardTTL:    cardTTL,
		log:        log.With().Str("component", "prompt-service").Logger(),
		now:        time.Now,
		newID:      func() (string, error) { return idgen.GenerateSecureID("prm", 16) },
	}
}

// ListCards returns catalog cards matching the filter. Expired cards are
// excluded unless the filter asks for them.
func (s *Service) ListCards(ctx context.Context, filter Filter) ([]*Card, error) {
	return s.repo.List(ctx, filter)
}

// GetCard loads a card and counts the view. A failed counter bump is
// logged, not surfaced: the read still succeeds.
func (s *Service) GetCard(ctx context.Context, id string) (*Card, error) {
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("prompt_id", id).Msg("increment view count failed")
	} else {
		card.ViewCount++
	}
	return card, nil
}

// CreateCardInput carries the submission fields for CreateCard.
type CreateCardInput struct {
	Title      string
	UseCase    string
	PromptBody string
	Tags       []string
	AuthorName string
	AuthorRole string
	SessionID  string
}

// CreateCard screens the submission through the safety classifier and
// publishes it to the catalog. Unsafe content is rejected with the
// classifier's findings; suggested tags are merged into the card.
func (s *Service) CreateCard(ctx context.Context, input CreateCardInput) (*Card, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.UseCase) == "" || strings.TrimSpace(input.PromptBody) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"title, use case, and prompt are required", nil, "1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e")
	}

	result, err := s.classifier.SafetyCheck(ctx, input.Title, input.UseCase, input.PromptBody)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "safety check failed")
	}
	if !result.Safe {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"prompt rejected by safety screening", nil, "2c3d4e5f-6a7b-4c8d-9e0f-1a2b3c4d5e6f",
			map[string]any{"issues": result.Issues})
	}

	id, err := s.newID()
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"generate card id", err, "3d4e5f6a-7b8c-4d9e-8f0a-1b2c3d4e5f60")
	}

	now := s.now()
	card := &Card{
		ID:         id,
		Title:      input.Title,
		UseCase:    input.UseCase,
		PromptBody: input.PromptBody,
		Tags:       mergeTags(input.Tags, result.SuggestedTags),
		AuthorName: input.AuthorName,
		AuthorRole: input.AuthorRole,
		SessionID:  input.SessionID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cardTTL),
	}
	if err := s.repo.Create(ctx, card); err != nil {
		return nil, err
	}

	s.log.Info().Str("prompt_id", card.ID).Strs("tags", card.Tags).Msg("card published")
	return card, nil
}

// RateCard records a star rating in [1,5] on a card.
func (s *Service) RateCard(ctx context.Context, cardID string, stars int) error {
	if stars < 1 || stars > 5 {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"rating must be between 1 and 5 stars", nil, "4e5f6a7b-8c9d-4e0f-9a1b-2c3d4e5f6071")
	}
	if _, err := s.repo.GetByID(ctx, cardID); err != nil {
		return err
	}
	return s.repo.AddRating(ctx, &Rating{
		ID:        s.mustID("rat"),
		PromptID:  cardID,
		Stars:     stars,
		CreatedAt: s.now(),
	})
}

// CommentCard records a comment on a card.
func (s *Service) CommentCard(ctx context.Context, cardID, authorName, text string) error {
	if strings.TrimSpace(text) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"comment text is required", nil, "5f6a7b8c-9d0e-4f1a-8b2c-3d4e5f607182")
	}
	if _, err := s.repo.GetByID(ctx, cardID); err != nil {
		return err
	}
	return s.repo.AddComment(ctx, &Comment{
		ID:         s.mustID("cmt"),
		PromptID:   cardID,
		AuthorName: authorName,
		Text:       text,
		CreatedAt:  s.now(),
	})
}

// DeleteCard removes a card from the catalog.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	if _, err := s.repo.GetByID(ctx, cardID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, cardID)
}

// ReportInput flags a card or comment for review.
type ReportInput struct {
	PromptID  string
	CommentID string
	Reason    string
}

// ReportContent files a pending moderation report.
func (s *Service) ReportContent(ctx context.Context, input ReportInput) (*Report, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"report reason is required", nil, "6a7b8c9d-0e1f-4a2b-9c3d-4e5f60718293")
	}
	if input.PromptID == "" && input.CommentID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"a report must target a prompt or a comment", nil, "7b8c9d0e-1f2a-4b3c-8d4e-5f6071829304")
	}

	report := &Report{
		ID:        s.mustID("rep"),
		PromptID:  input.PromptID,
		CommentID: input.CommentID,
		Reason:    input.Reason,
		Status:    ReportPending,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ResolveReport marks a report as handled.
func (s *Service) ResolveReport(ctx context.Context, reportID string) error {
	return s.repo.ResolveReport(ctx, reportID)
}

// AttachPhoto sniffs, stores, and links a proof-of-use image to a card.
func (s *Service) AttachPhoto(ctx context.Context, cardID string, data []byte, order int) (*Photo, error) {
	if _, err := s.repo.GetByID(ctx, cardID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"photo payload is empty", nil, "8c9d0e1f-2a3b-4c4d-9e5f-607182930415")
	}

	mime := mimetype.Detect(data).String()
	if !allowedPhotoMIMEs[mime] {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"unsupported photo content type "+mime, nil, "9d0e1f2a-3b4c-4d5e-8f6a-718293041526")
	}

	key := photoid.New()
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), mime); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"store photo", err, "0e1f2a3b-4c5d-4e6f-9a7b-829304152637")
	}

	photo := &Photo{
		ID:        key,
		PromptID:  cardID,
		URL:       s.storage.PublicURL(key),
		Order:     order,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// SearchPrompts answers a free-text query with assistant recommendations
// grounded on the live catalog.
func (s *Service) SearchPrompts(ctx context.Context, query string) (*safety.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"query is required", nil, "1f2a3b4c-5d6e-4f7a-8b9c-930415263748")
	}

	cards, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	candidates := make([]safety.Candidate, 0, len(cards))
	for _, card := range cards {
		candidates = append(candidates, safety.Candidate{
			ID:      card.ID,
			Title:   card.Title,
			UseCase: card.UseCase,
			Tags:    card.Tags,
		})
	}

	result, err := s.assistant.FindPrompts(ctx, query, candidates)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "assistant search failed")
	}
	return result, nil
}

// PurgeExpired removes cards whose expiry has passed. Run from the cron
// schedule.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("expired cards removed")
	}
	return purged, nil
}

func (s *Service) mustID(prefix string) string {
	id, err := idgen.GenerateSecureID(prefix, 16)
	if err != nil {
		// crypto/rand failures are not recoverable at this layer
		panic(err)
	}
	return id
}

func mergeTags(submitted, suggested []string) []string {
	seen := make(map[string]bool)
	merged := make([]string, 0, len(submitted)+len(suggested))
	for _, tag := range append(append([]string{}, submitted...), suggested...) {
		tag = strings.TrimSpace(strings.ToLower(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}
	return merged
}
