package prompt

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompthub/services/library-api/internal/domain/safety"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	cards    map[string]*Card
	ratings  []*Rating
	comments []*Comment
	photos   []*Photo
	reports  map[string]*Report
	views    map[string]int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		cards:   make(map[string]*Card),
		reports: make(map[string]*Report),
		views:   make(map[string]int),
	}
}

func (m *mockRepository) Create(ctx context.Context, card *Card) error {
	m.cards[card.ID] = card
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Card, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"prompt card not found", nil, "")
	}
	copied := *card
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, filter Filter) ([]*Card, error) {
	out := []*Card{}
	for _, card := range m.cards {
		out = append(out, card)
	}
	return out, nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	delete(m.cards, id)
	return nil
}

func (m *mockRepository) IncrementViewCount(ctx context.Context, id string) error {
	m.views[id]++
	return nil
}

func (m *mockRepository) AddRating(ctx context.Context, rating *Rating) error {
	m.ratings = append(m.ratings, rating)
	return nil
}

func (m *mockRepository) AddComment(ctx context.Context, comment *Comment) error {
	m.comments = append(m.comments, comment)
	return nil
}

func (m *mockRepository) AddPhoto(ctx context.Context, photo *Photo) error {
	m.photos = append(m.photos, photo)
	return nil
}

func (m *mockRepository) CreateReport(ctx context.Context, report *Report) error {
	m.reports[report.ID] = report
	return nil
}

func (m *mockRepository) ResolveReport(ctx context.Context, id string) error {
	report, ok := m.reports[id]
	if !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"report not found", nil, "")
	}
	report.Status = ReportResolved
	return nil
}

func (m *mockRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	for id, card := range m.cards {
		if card.ExpiresAt.Before(before) {
			delete(m.cards, id)
			purged++
		}
	}
	return purged, nil
}

// mockClassifier returns a canned safety verdict.
type mockClassifier struct {
	result *safety.Result
	err    error
	calls  int
}

func (m *mockClassifier) SafetyCheck(ctx context.Context, title, useCase, prompt string) (*safety.Result, error) {
	m.calls++
	return m.result, m.err
}

// mockAssistant records the candidates it was shown.
type mockAssistant struct {
	result     *safety.SearchResult
	candidates []safety.Candidate
}

func (m *mockAssistant) FindPrompts(ctx context.Context, query string, candidates []safety.Candidate) (*safety.SearchResult, error) {
	m.candidates = candidates
	return m.result, nil
}

// mockStorage records uploads.
type mockStorage struct {
	keys []string
}

func (m *mockStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	m.keys = append(m.keys, key)
	return nil
}

func (m *mockStorage) PublicURL(key string) string {
	return "https://photos.example.com/" + key
}

func newTestService(repo Repository, classifier safety.Classifier, assistant safety.Assistant, storage PhotoStorage) *Service {
	return NewService(repo, classifier, assistant, storage, 30*24*time.Hour, zerolog.Nop())
}

func TestCreateCard_PublishesWithMergedTags(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	classifier := &mockClassifier{result: &safety.Result{
		Safe:          true,
		SuggestedTags: []string{"Email", "drafting"},
	}}
	svc := newTestService(repo, classifier, &mockAssistant{}, &mockStorage{})

	card, err := svc.CreateCard(ctx, CreateCardInput{
		Title:      "Weekly report drafter",
		UseCase:    "Reporting",
		PromptBody: "Summarize the following notes...",
		Tags:       []string{"email", "reporting"},
		AuthorName: "Ann",
		AuthorRole: "contributor",
	})
	require.NoError(t, err)
	require.NotNil(t, card)

	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, []string{"email", "reporting", "drafting"}, card.Tags)
	assert.True(t, card.ExpiresAt.After(card.CreatedAt))
	assert.Contains(t, repo.cards, card.ID)
}

func TestCreateCard_RejectsUnsafeContent(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	classifier := &mockClassifier{result: &safety.Result{
		Safe:   false,
		Issues: []string{"contains an email address"},
	}}
	svc := newTestService(repo, classifier, &mockAssistant{}, &mockStorage{})

	_, err := svc.CreateCard(ctx, CreateCardInput{
		Title:      "T",
		UseCase:    "U",
		PromptBody: "contact me at ann@example.com",
	})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
	assert.Empty(t, repo.cards)
}

func TestCreateCard_Validation(t *testing.T) {
	ctx := context.Background()
	classifier := &mockClassifier{result: &safety.Result{Safe: true}}
	svc := newTestService(newMockRepository(), classifier, &mockAssistant{}, &mockStorage{})

	_, err := svc.CreateCard(ctx, CreateCardInput{Title: "x"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
	// validation happens before the classifier is consulted
	assert.Equal(t, 0, classifier.calls)
}

func TestGetCard_CountsView(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.cards["prm_1"] = &Card{ID: "prm_1", Title: "T"}
	svc := newTestService(repo, &mockClassifier{}, &mockAssistant{}, &mockStorage{})

	card, err := svc.GetCard(ctx, "prm_1")
	require.NoError(t, err)
	assert.Equal(t, 1, card.ViewCount)
	assert.Equal(t, 1, repo.views["prm_1"])
}

func TestRateCard_Bounds(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.cards["prm_1"] = &Card{ID: "prm_1"}
	svc := newTestService(repo, &mockClassifier{}, &mockAssistant{}, &mockStorage{})

	require.NoError(t, svc.RateCard(ctx, "prm_1", 5))
	require.Len(t, repo.ratings, 1)

	for _, stars := range []int{0, 6} {
		err := svc.RateCard(ctx, "prm_1", stars)
		require.Error(t, err)
		assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
	}
}

func TestCommentCard_UnknownCard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockRepository(), &mockClassifier{}, &mockAssistant{}, &mockStorage{})

	err := svc.CommentCard(ctx, "missing", "Ann", "nice")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))
}

func TestReportContent_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestService(repo, &mockClassifier{}, &mockAssistant{}, &mockStorage{})

	report, err := svc.ReportContent(ctx, ReportInput{PromptID: "prm_1", Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, ReportPending, report.Status)

	require.NoError(t, svc.ResolveReport(ctx, report.ID))
	assert.Equal(t, ReportResolved, repo.reports[report.ID].Status)

	_, err = svc.ReportContent(ctx, ReportInput{Reason: "spam"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
}

func TestAttachPhoto_SniffsContentType(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.cards["prm_1"] = &Card{ID: "prm_1"}
	storage := &mockStorage{}
	svc := newTestService(repo, &mockClassifier{}, &mockAssistant{}, storage)

	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	photo, err := svc.AttachPhoto(ctx, "prm_1", pngHeader, 0)
	require.NoError(t, err)
	assert.Contains(t, photo.URL, photo.ID)
	require.Len(t, storage.keys, 1)

	_, err = svc.AttachPhoto(ctx, "prm_1", []byte("plain text, not an image"), 0)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
}

func TestSearchPrompts_GroundsAssistantOnCatalog(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.cards["prm_1"] = &Card{ID: "prm_1", Title: "Email drafter", UseCase: "email", Tags: []string{"email"}}
	assistant := &mockAssistant{result: &safety.SearchResult{
		Answer:         "Try the email drafter.",
		RecommendedIDs: []string{"prm_1"},
	}}
	svc := newTestService(repo, &mockClassifier{}, assistant, &mockStorage{})

	result, err := svc.SearchPrompts(ctx, "help me write emails")
	require.NoError(t, err)
	assert.Equal(t, []string{"prm_1"}, result.RecommendedIDs)
	require.Len(t, assistant.candidates, 1)
	assert.Equal(t, "prm_1", assistant.candidates[0].ID)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.cards["old"] = &Card{ID: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	repo.cards["new"] = &Card{ID: "new", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestService(repo, &mockClassifier{}, &mockAssistant{}, &mockStorage{})

	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.NotContains(t, repo.cards, "old")
	assert.Contains(t, repo.cards, "new")
}
