package session

import (
	"sync"

	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/infrastructure/kvstore"
)

// Manager hands out one watching Store per client id so every HTTP client
// gets its own browser-equivalent context over the shared backing store.
type Manager struct {
	kv     kvstore.Store
	mirror MirrorRepository
	log    zerolog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager builds a manager over the shared backing store.
func NewManager(kv kvstore.Store, mirror MirrorRepository, log zerolog.Logger) *Manager {
	return &Manager{
		kv:     kv,
		mirror: mirror,
		log:    log,
		stores: make(map[string]*Store),
	}
}

// StoreFor returns the Store bound to clientID, creating and starting it on
// first use. The store watches ownerID's session index; the owner seen on
// first use sticks for the lifetime of the store.
func (m *Manager) StoreFor(clientID, ownerID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[clientID]; ok {
		return store
	}

	opts := []Option{WithClientID(clientID), WithOwnerID(ownerID)}
	if m.mirror != nil {
		opts = append(opts, WithMirror(m.mirror))
	}
	store := NewStore(m.kv, m.log, opts...)
	store.Watch()
	m.stores[clientID] = store
	return store
}

// Close stops every managed store's change subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, store := range m.stores {
		store.Close()
	}
	m.stores = make(map[string]*Store)
}
