package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompthub/services/library-api/internal/infrastructure/kvstore"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

// recordingMirror captures mirror calls and optionally fails them.
type recordingMirror struct {
	calls [][2]string
	err   error
}

func (m *recordingMirror) MirrorCreate(ctx context.Context, sessionID, ownerID string) error {
	m.calls = append(m.calls, [2]string{sessionID, ownerID})
	return m.err
}

func newTestStore(kv kvstore.Store, opts ...Option) *Store {
	return NewStore(kv, zerolog.Nop(), opts...)
}

func TestCreateSession_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		ownerID   string
		wantOwner string
	}{
		{"authenticated owner", "admin-42", "admin-42"},
		{"no owner falls back to sentinel", "", OwnerSentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(kvstore.NewMemoryStore())

			id, err := store.CreateSession(ctx, tt.ownerID)
			require.NoError(t, err)
			require.NotEmpty(t, id)

			record, err := store.GetSession(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, id, record.ID)
			assert.Equal(t, tt.wantOwner, record.OwnerID)
			assert.Empty(t, record.Participants)
			assert.Empty(t, record.FeedItems)
			assert.False(t, record.CreatedAt.IsZero())

			records, err := store.ListSessions(ctx, tt.ownerID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, id, records[0].ID)
		})
	}
}

func TestCreateSession_MirrorFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	mirror := &recordingMirror{err: errors.New("system of record unavailable")}
	store := newTestStore(kvstore.NewMemoryStore(), WithMirror(mirror))

	id, err := store.CreateSession(ctx, "admin-1")
	require.NoError(t, err)

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, record)

	require.Len(t, mirror.calls, 1)
	assert.Equal(t, [2]string{id, "admin-1"}, mirror.calls[0])
}

func TestCreateSession_NoMirrorForAnonymousOwner(t *testing.T) {
	ctx := context.Background()
	mirror := &recordingMirror{}
	store := newTestStore(kvstore.NewMemoryStore(), WithMirror(mirror))

	_, err := store.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, mirror.calls)
}

func TestGetSession_AbsentAndMalformed(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	store := newTestStore(kv)

	record, err := store.GetSession(ctx, "never-created")
	require.NoError(t, err)
	assert.Nil(t, record)

	// A document that no longer parses is treated as absent, not recovered.
	require.NoError(t, kv.Set(ctx, "feed_session_corrupt", []byte("{not json")))
	record, err = store.GetSession(ctx, "corrupt")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestListSessions_SkipsStaleIndexEntries(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	store := newTestStore(kv)

	id, err := store.CreateSession(ctx, "owner-1")
	require.NoError(t, err)

	// Point the index at one live and one missing session.
	raw, err := json.Marshal([]string{id, "gone"})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "feed_sessions_list_owner-1", raw))

	records, err := store.ListSessions(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
}

func TestJoinSession_RemembersParticipantButAppendsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)

	first, err := store.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)

	remembered, err := store.LocalParticipant(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, remembered)
	assert.Equal(t, "Ann", remembered.Name)
	assert.Equal(t, first.ID, remembered.ID)

	// Rejoining appends a second participant instead of replacing the first.
	second, err := store.JoinSession(ctx, id, "Ann", "Sales")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	require.Len(t, record.Participants, 2)
	assert.Equal(t, "Eng", record.Participants[0].Department)
	assert.Equal(t, "Sales", record.Participants[1].Department)
}

func TestJoinSession_Validation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)

	_, err = store.JoinSession(ctx, id, "", "Eng")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))

	_, err = store.JoinSession(ctx, id, "Ann", "   ")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))

	// No participant was registered by the rejected joins.
	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, record.Participants)
}

func TestJoinSession_PlaceholderWhenJoinRacesCreation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	participant, err := store.JoinSession(ctx, "not-synced-yet", "Ann", "Eng")
	require.NoError(t, err)
	require.NotNil(t, participant)

	record, err := store.GetSession(ctx, "not-synced-yet")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, OwnerSentinel, record.OwnerID)
	require.Len(t, record.Participants, 1)
}

func TestAddFeedItem_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = store.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)

	for _, title := range []string{"A", "B", "C"} {
		_, err := store.AddFeedItem(ctx, id, AddFeedItemInput{
			Kind:       KindText,
			Title:      title,
			UseCase:    "review",
			PromptBody: "prompt " + title,
		})
		require.NoError(t, err)
	}

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	require.Len(t, record.FeedItems, 3)
	assert.Equal(t, "C", record.FeedItems[0].Title)
	assert.Equal(t, "B", record.FeedItems[1].Title)
	assert.Equal(t, "A", record.FeedItems[2].Title)

	item := record.FeedItems[0]
	assert.Equal(t, "Ann", item.AuthorName)
	assert.Equal(t, "Eng", item.AuthorDepartment)
	assert.Equal(t, id, item.SessionID)
}

func TestAddFeedItem_RequiresJoin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)

	_, err = store.AddFeedItem(ctx, id, AddFeedItemInput{
		Kind:       KindText,
		Title:      "T",
		UseCase:    "U",
		PromptBody: "P",
	})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeForbidden))
}

func TestAddFeedItem_Validation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = store.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input AddFeedItemInput
	}{
		{"unknown kind", AddFeedItemInput{Kind: "video", Title: "T", UseCase: "U", PromptBody: "P"}},
		{"empty title", AddFeedItemInput{Kind: KindText, UseCase: "U", PromptBody: "P"}},
		{"empty use case", AddFeedItemInput{Kind: KindText, Title: "T", PromptBody: "P"}},
		{"empty prompt", AddFeedItemInput{Kind: KindLink, Title: "T", UseCase: "U"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AddFeedItem(ctx, id, tt.input)
			require.Error(t, err)
			assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
		})
	}

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, record.FeedItems)
}

func TestToggleLike_MonotonicIncrement(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = store.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)
	item, err := store.AddFeedItem(ctx, id, AddFeedItemInput{Kind: KindText, Title: "T", UseCase: "U", PromptBody: "P"})
	require.NoError(t, err)

	// The like counter is a plain counter, not capped at one per participant.
	for i := 0; i < 5; i++ {
		require.NoError(t, store.ToggleLike(ctx, id, item.ID))
	}

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, record.FeedItems[0].LikeCount)
}

func TestToggleLike_MissingItemIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)

	require.NoError(t, store.ToggleLike(ctx, id, "nope"))

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, record.FeedItems)
}

func TestRateItem_AverageDerivation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = store.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)
	item, err := store.AddFeedItem(ctx, id, AddFeedItemInput{Kind: KindText, Title: "T", UseCase: "U", PromptBody: "P"})
	require.NoError(t, err)

	require.NoError(t, store.RateItem(ctx, id, item.ID, 4))
	require.NoError(t, store.RateItem(ctx, id, item.ID, 2))

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	got := record.FeedItems[0]
	assert.Equal(t, []int{4, 2}, got.Ratings)
	assert.InDelta(t, 3.0, got.AverageRating(), 1e-9)
}

func TestRateItem_RejectsOutOfRangeStars(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)

	for _, stars := range []int{0, 6, -1} {
		err := store.RateItem(ctx, id, "item", stars)
		require.Error(t, err)
		assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
	}
}

func TestAddComment_RequiresTextAndJoin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)

	err = store.AddComment(ctx, id, "item", "  ")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))

	err = store.AddComment(ctx, id, "item", "hello")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeForbidden))
}

func TestMutation_MissingSessionIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(kvstore.NewMemoryStore())

	err := store.ToggleLike(ctx, "ghost", "item")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))
}

// Two Store instances over one backing store simulate two tabs. A commits,
// B resyncs (the explicit equivalent of a received change notification),
// and B's in-memory state converges on the persisted document.
func TestCrossInstanceConvergence(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	tabA := newTestStore(kv, WithClientID("browser-1"))
	tabB := newTestStore(kv, WithClientID("browser-1"))

	id, err := tabA.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = tabA.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)

	require.NoError(t, tabB.Attach(ctx, id))

	// Both tabs share the browser's remembered participant.
	participant, err := tabB.LocalParticipant(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, participant)
	assert.Equal(t, "Ann", participant.Name)

	_, err = tabA.AddFeedItem(ctx, id, AddFeedItemInput{Kind: KindText, Title: "T", UseCase: "U", PromptBody: "P"})
	require.NoError(t, err)

	require.NoError(t, tabB.Resync(ctx))

	persisted, err := tabB.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, persisted, tabB.Current())
	require.Len(t, tabB.Current().FeedItems, 1)
}

func TestWatch_RefreshesOnChangeNotification(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	tabA := newTestStore(kv, WithClientID("browser-1"))
	tabB := newTestStore(kv, WithClientID("browser-1"))
	defer tabB.Close()

	id, err := tabA.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = tabA.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)

	require.NoError(t, tabB.Attach(ctx, id))
	tabB.Watch()

	_, err = tabA.AddFeedItem(ctx, id, AddFeedItemInput{Kind: KindText, Title: "T", UseCase: "U", PromptBody: "P"})
	require.NoError(t, err)

	// The in-process store delivers notifications synchronously, so B's
	// cache is already fresh.
	require.Len(t, tabB.Current().FeedItems, 1)
	assert.Equal(t, "T", tabB.Current().FeedItems[0].Title)
}

func TestWatch_RefreshesSessionListOnIndexChange(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	watcher := newTestStore(kv, WithClientID("browser-1"), WithOwnerID("owner-1"))
	defer watcher.Close()
	watcher.Watch()
	require.Empty(t, watcher.Sessions())

	other := newTestStore(kv, WithClientID("browser-2"))

	id, err := other.CreateSession(ctx, "owner-1")
	require.NoError(t, err)

	sessions := watcher.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)

	// Only the watched owner's index triggers a refresh; another owner's
	// sessions never show up in the cached list.
	_, err = other.CreateSession(ctx, "owner-2")
	require.NoError(t, err)
	sessions = watcher.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)
}

// A and B both load the session; A commits a comment, then B commits from
// its stale cache. B's whole-document write discards A's comment: last
// write wins, with no merge. The asymmetry is deliberate and preserved.
func TestLastWriteWinsRace(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	tabA := newTestStore(kv, WithClientID("browser-1"))
	tabB := newTestStore(kv, WithClientID("browser-1"))

	id, err := tabA.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = tabA.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)
	item, err := tabA.AddFeedItem(ctx, id, AddFeedItemInput{Kind: KindText, Title: "T", UseCase: "U", PromptBody: "P"})
	require.NoError(t, err)

	require.NoError(t, tabB.Attach(ctx, id))

	require.NoError(t, tabA.AddComment(ctx, id, item.ID, "x"))
	require.NoError(t, tabB.AddComment(ctx, id, item.ID, "y"))

	record, err := tabA.GetSession(ctx, id)
	require.NoError(t, err)
	comments := record.FeedItems[0].Comments
	require.Len(t, comments, 1)
	assert.Equal(t, "y", comments[0].Text)

	// When B resynchronizes before writing, its read-modify-write starts
	// from the fresh document and both comments survive.
	require.NoError(t, tabB.Resync(ctx))
	require.NoError(t, tabB.AddComment(ctx, item.SessionID, item.ID, "z"))

	record, err = tabA.GetSession(ctx, id)
	require.NoError(t, err)
	texts := []string{}
	for _, c := range record.FeedItems[0].Comments {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"y", "z"}, texts)
}

func TestStore_DeterministicClockAndIDs(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	store := newTestStore(kvstore.NewMemoryStore(),
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string {
			seq++
			return map[int]string{1: "sess-1", 2: "part-1", 3: "item-1"}[seq]
		}),
	)

	id, err := store.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)

	participant, err := store.JoinSession(ctx, id, "Ann", "Eng")
	require.NoError(t, err)
	assert.Equal(t, "part-1", participant.ID)
	assert.Equal(t, fixed, participant.JoinedAt)

	record, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, record.CreatedAt.Equal(fixed))
}
