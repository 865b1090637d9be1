package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/infrastructure/kvstore"
	"prompthub/services/library-api/internal/utils/platformerrors"
)

// MirrorRepository mirrors session existence to the system of record.
// Mirroring is best effort: a failed mirror write never rolls back or
// blocks the local commit.
type MirrorRepository interface {
	MirrorCreate(ctx context.Context, sessionID, ownerID string) error
}

// Store is one client context over the shared backing store: it caches the
// attached session document and the locally remembered participant, and
// applies every mutation as a whole-document read-modify-write. Two Store
// instances sharing a client id model two tabs of the same browser;
// distinct client ids model distinct browsers.
//
// Concurrent stores race on the same document with last-write-wins
// semantics. There is no merge and no compare-and-swap; that tradeoff is
// part of the contract, not an oversight.
type Store struct {
	kv       kvstore.Store
	mirror   MirrorRepository
	log      zerolog.Logger
	clientID string
	ownerID  string
	now      func() time.Time
	newID    func() string

	mu          sync.Mutex
	sessionID   string
	current     *Record
	participant *Participant
	sessions    []Record
	cancelWatch func()
}

// Option customizes a Store.
type Option func(*Store)

// WithClientID sets the client namespace for remembered participants.
func WithClientID(clientID string) Option {
	return func(s *Store) { s.clientID = clientID }
}

// WithOwnerID sets the owner whose session index this store tracks.
func WithOwnerID(ownerID string) Option {
	return func(s *Store) { s.ownerID = ownerID }
}

// WithMirror enables best-effort mirroring of created sessions.
func WithMirror(mirror MirrorRepository) Option {
	return func(s *Store) { s.mirror = mirror }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore builds a client context over the given backing store.
func NewStore(kv kvstore.Store, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		log:   log.With().Str("component", "session-store").Logger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clientID == "" {
		s.clientID = uuid.NewString()
	}
	return s
}

// ClientID returns the client namespace of this store.
func (s *Store) ClientID() string { return s.clientID }

// CreateSession creates an empty session owned by ownerID (or the owner
// sentinel when empty), registers it in the owner index, and returns its
// id. Mirroring to the system of record is attempted only for
// authenticated owners and never fails the local commit.
func (s *Store) CreateSession(ctx context.Context, ownerID string) (string, error) {
	id := s.newID()
	record := &Record{
		ID:           id,
		OwnerID:      ownerID,
		Participants: []Participant{},
		FeedItems:    []FeedItem{},
		CreatedAt:    s.now(),
	}
	if record.OwnerID == "" {
		record.OwnerID = OwnerSentinel
	}

	if s.mirror != nil && ownerID != "" {
		if err := s.mirror.MirrorCreate(ctx, id, ownerID); err != nil {
			s.log.Warn().Err(err).Str("session_id", id).Msg("session mirror write failed")
		}
	}

	if err := s.writeRecord(ctx, record); err != nil {
		return "", err
	}

	ids, err := s.readIndex(ctx, ownerID)
	if err != nil {
		return "", err
	}
	ids = append(ids, id)
	if err := s.writeIndex(ctx, ownerID, ids); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessionID = id
	s.current = record.clone()
	s.participant = nil
	s.mu.Unlock()

	return id, nil
}

// GetSession loads a session document. A missing key returns (nil, nil);
// so does a document that no longer parses, which is treated as absent
// rather than partially recovered.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Record, error) {
	return s.readRecord(ctx, sessionID)
}

// ListSessions resolves the owner index and loads every listed session,
// silently skipping ids whose document is missing. Stale index entries are
// tolerated, not repaired.
func (s *Store) ListSessions(ctx context.Context, ownerID string) ([]Record, error) {
	ids, err := s.readIndex(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		record, err := s.readRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		if record == nil {
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

// Attach makes sessionID this store's active session and loads the
// document plus the locally remembered participant into the cache. A
// missing document leaves the cache empty; callers present a restricted
// view in that case.
func (s *Store) Attach(ctx context.Context, sessionID string) error {
	record, err := s.readRecord(ctx, sessionID)
	if err != nil {
		return err
	}
	participant, err := s.LocalParticipant(ctx, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.current = record
	s.participant = participant
	s.mu.Unlock()
	return nil
}

// Watch subscribes to backing-store change notifications and resynchronizes
// the cache whenever the active session document or the watched owner's
// session index changes. It is idempotent; Close cancels the subscription.
func (s *Store) Watch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelWatch != nil {
		return
	}
	s.cancelWatch = s.kv.Subscribe(func(key string) {
		s.handleChange(key)
	})
}

// Close cancels the change subscription, if any.
func (s *Store) Close() {
	s.mu.Lock()
	cancel := s.cancelWatch
	s.cancelWatch = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Store) handleChange(key string) {
	s.mu.Lock()
	active := s.sessionID
	s.mu.Unlock()

	ctx := context.Background()
	switch {
	case active != "" && key == sessionKey(active):
		record, err := s.readRecord(ctx, active)
		if err != nil {
			s.log.Error().Err(err).Str("session_id", active).Msg("resync session after change")
			return
		}
		s.mu.Lock()
		if s.sessionID == active {
			s.current = record
		}
		s.mu.Unlock()
	case key == indexKey(s.ownerID):
		records, err := s.ListSessions(ctx, s.ownerID)
		if err != nil {
			s.log.Error().Err(err).Msg("resync session index after change")
			return
		}
		s.mu.Lock()
		s.sessions = records
		s.mu.Unlock()
	}
}

// Resync forces a reload of the active session, the remembered
// participant, and the owner's session list from the backing store. It is
// the explicit equivalent of receiving a change notification.
func (s *Store) Resync(ctx context.Context) error {
	s.mu.Lock()
	active := s.sessionID
	s.mu.Unlock()

	if active != "" {
		if err := s.Attach(ctx, active); err != nil {
			return err
		}
	}

	records, err := s.ListSessions(ctx, s.ownerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions = records
	s.mu.Unlock()
	return nil
}

// Current returns the cached copy of the active session, which may be
// stale until the next notification or Resync.
func (s *Store) Current() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.clone()
}

// Sessions returns the cached owner session list.
func (s *Store) Sessions() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// JoinSession registers a participant against the session and remembers
// them as this client's identity for the session. Joining tolerates a join
// racing ahead of creation-sync by materializing a placeholder document.
// Duplicate participants are permitted.
func (s *Store) JoinSession(ctx context.Context, sessionID, name, department string) (*Participant, error) {
	name = strings.TrimSpace(name)
	department = strings.TrimSpace(department)
	if name == "" || department == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"name and department are required to join a session", nil, "3f6f3f0a-96cf-4f0e-9c1d-0b6a4c2e8d11")
	}

	record, err := s.readRecord(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &Record{
			ID:           sessionID,
			OwnerID:      OwnerSentinel,
			Participants: []Participant{},
			FeedItems:    []FeedItem{},
			CreatedAt:    s.now(),
		}
	}

	participant := Participant{
		ID:         s.newID(),
		Name:       name,
		Department: department,
		JoinedAt:   s.now(),
	}
	record.Participants = append(record.Participants, participant)

	if err := s.writeRecord(ctx, record); err != nil {
		return nil, err
	}
	if err := s.writeParticipant(ctx, sessionID, &participant); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.current = record.clone()
	s.participant = &participant
	s.mu.Unlock()

	return &participant, nil
}

// LocalParticipant returns this client's remembered participant for the
// session, or nil when the client has not joined from this store's client
// namespace.
func (s *Store) LocalParticipant(ctx context.Context, sessionID string) (*Participant, error) {
	raw, ok, err := s.kv.Get(ctx, participantKey(s.clientID, sessionID))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"read remembered participant", err, "5a1d22fb-1f64-4f83-8e96-7d9b30d5c442")
	}
	if !ok {
		return nil, nil
	}
	var participant Participant
	if err := json.Unmarshal(raw, &participant); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("malformed participant entry treated as absent")
		return nil, nil
	}
	return &participant, nil
}

// AddFeedItemInput carries the post fields for AddFeedItem.
type AddFeedItemInput struct {
	Kind       Kind
	Title      string
	UseCase    string
	PromptBody string
	ImageURL   string
	LinkURL    string
}

// AddFeedItem prepends a new post to the session feed, stamped with the
// local participant's denormalized identity. The feed stays newest-first.
func (s *Store) AddFeedItem(ctx context.Context, sessionID string, input AddFeedItemInput) (*FeedItem, error) {
	if !input.Kind.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"unknown feed item kind", nil, "9cf3d2a4-6f21-4af5-b2c8-54d1e0a7b3f6")
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.UseCase) == "" || strings.TrimSpace(input.PromptBody) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"title, use case, and prompt are required", nil, "0d4e7b92-8a3c-4d15-9e6f-2b8c1a5d7e30")
	}

	participant, err := s.LocalParticipant(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"join the session before posting", nil, "b3a91c57-2e48-47d0-8f6a-c94d5e1b0a28")
	}

	record, err := s.loadForMutation(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item := FeedItem{
		ID:               s.newID(),
		SessionID:        sessionID,
		Kind:             input.Kind,
		Title:            input.Title,
		UseCase:          input.UseCase,
		PromptBody:       input.PromptBody,
		ImageURL:         input.ImageURL,
		LinkURL:          input.LinkURL,
		AuthorName:       participant.Name,
		AuthorDepartment: participant.Department,
		CreatedAt:        s.now(),
		Ratings:          []int{},
		Comments:         []Comment{},
	}
	record.FeedItems = append([]FeedItem{item}, record.FeedItems...)

	if err := s.commit(ctx, record); err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleLike increments the item's like counter by exactly one. Despite
// the name it is not a per-user toggle: the counter only ever grows, and
// repeated likes from the same participant all count. Missing items are a
// no-op.
func (s *Store) ToggleLike(ctx context.Context, sessionID, itemID string) error {
	record, err := s.loadForMutation(ctx, sessionID)
	if err != nil {
		return err
	}

	item := record.findItem(itemID)
	if item == nil {
		return nil
	}
	item.LikeCount++

	return s.commit(ctx, record)
}

// AddComment appends an immutable comment to the item, stamped with the
// local participant's name.
func (s *Store) AddComment(ctx context.Context, sessionID, itemID, text string) error {
	if strings.TrimSpace(text) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"comment text is required", nil, "6e2f8a1b-4c5d-4e9f-a0b1-c2d3e4f5a6b7")
	}

	participant, err := s.LocalParticipant(ctx, sessionID)
	if err != nil {
		return err
	}
	if participant == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"join the session before commenting", nil, "f1e2d3c4-b5a6-4978-8a9b-0c1d2e3f4a5b")
	}

	record, err := s.loadForMutation(ctx, sessionID)
	if err != nil {
		return err
	}

	item := record.findItem(itemID)
	if item == nil {
		return nil
	}
	item.Comments = append(item.Comments, Comment{
		ID:         s.newID(),
		AuthorName: participant.Name,
		Text:       text,
		CreatedAt:  s.now(),
	})

	return s.commit(ctx, record)
}

// RateItem appends a star rating in [1,5] to the item. Ratings are never
// deduplicated by rater and never removed; the displayed average is
// derived on read.
func (s *Store) RateItem(ctx context.Context, sessionID, itemID string, stars int) error {
	if stars < 1 || stars > 5 {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"rating must be between 1 and 5 stars", nil, "7c8d9e0f-1a2b-4c3d-8e5f-6a7b8c9d0e1f")
	}

	record, err := s.loadForMutation(ctx, sessionID)
	if err != nil {
		return err
	}

	item := record.findItem(itemID)
	if item == nil {
		return nil
	}
	item.Ratings = append(item.Ratings, stars)

	return s.commit(ctx, record)
}

// loadForMutation returns a mutable copy of the session document, taking
// the cached copy when the session is attached. Using the possibly-stale
// cache is deliberate: concurrent writers race with last-write-wins, and a
// writer that has not resynchronized overwrites effects it never observed.
func (s *Store) loadForMutation(ctx context.Context, sessionID string) (*Record, error) {
	s.mu.Lock()
	if s.current != nil && s.current.ID == sessionID {
		record := s.current.clone()
		s.mu.Unlock()
		return record, nil
	}
	s.mu.Unlock()

	record, err := s.readRecord(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"session not found", nil, "2a3b4c5d-6e7f-4890-a1b2-c3d4e5f6a7b8")
	}
	return record, nil
}

// commit persists the whole document and refreshes the cache. The write
// itself broadcasts the change notification.
func (s *Store) commit(ctx context.Context, record *Record) error {
	if err := s.writeRecord(ctx, record); err != nil {
		return err
	}
	s.mu.Lock()
	if s.sessionID == record.ID || s.sessionID == "" {
		s.sessionID = record.ID
		s.current = record.clone()
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) readRecord(ctx context.Context, sessionID string) (*Record, error) {
	raw, ok, err := s.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"read session document", err, "8b9c0d1e-2f3a-4b4c-9d5e-6f7a8b9c0d1e")
	}
	if !ok {
		return nil, nil
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("malformed session document treated as absent")
		return nil, nil
	}
	return &record, nil
}

func (s *Store) writeRecord(ctx context.Context, record *Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"encode session document", err, "c4d5e6f7-a8b9-4c0d-8e1f-2a3b4c5d6e7f")
	}
	if err := s.kv.Set(ctx, sessionKey(record.ID), raw); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"write session document", err, "d5e6f7a8-b9c0-4d1e-9f2a-3b4c5d6e7f80")
	}
	return nil
}

func (s *Store) writeParticipant(ctx context.Context, sessionID string, participant *Participant) error {
	raw, err := json.Marshal(participant)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"encode participant", err, "e6f7a8b9-c0d1-4e2f-8a3b-4c5d6e7f8091")
	}
	if err := s.kv.Set(ctx, participantKey(s.clientID, sessionID), raw); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"write participant", err, "f7a8b9c0-d1e2-4f3a-9b4c-5d6e7f809102")
	}
	return nil
}

func (s *Store) readIndex(ctx context.Context, ownerID string) ([]string, error) {
	raw, ok, err := s.kv.Get(ctx, indexKey(ownerID))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"read session index", err, "a8b9c0d1-e2f3-4a4b-8c5d-6e7f80910213")
	}
	if !ok {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.log.Warn().Err(err).Str("owner_id", ownerID).Msg("malformed session index treated as empty")
		return []string{}, nil
	}
	return ids, nil
}

func (s *Store) writeIndex(ctx context.Context, ownerID string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"encode session index", err, "b9c0d1e2-f3a4-4b5c-9d6e-7f8091021324")
	}
	if err := s.kv.Set(ctx, indexKey(ownerID), raw); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"write session index", err, "c0d1e2f3-a4b5-4c6d-8e7f-809102132435")
	}
	return nil
}

// clone deep-copies the record so cached state never aliases a value a
// caller may mutate.
func (r *Record) clone() *Record {
	out := *r
	out.Participants = make([]Participant, len(r.Participants))
	copy(out.Participants, r.Participants)
	out.FeedItems = make([]FeedItem, len(r.FeedItems))
	for i, item := range r.FeedItems {
		cloned := item
		cloned.Ratings = make([]int, len(item.Ratings))
		copy(cloned.Ratings, item.Ratings)
		cloned.Comments = make([]Comment, len(item.Comments))
		copy(cloned.Comments, item.Comments)
		out.FeedItems[i] = cloned
	}
	return &out
}
