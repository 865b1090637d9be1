// Package kvstore provides the durable key-value substrate backing
// collaboration sessions, together with its change-notification contract:
// every successful write notifies every subscriber, including any
// subscriptions held by the writer itself, exactly once per write.
package kvstore

import "context"

// Store is a string-keyed document store shared by all session clients.
type Store interface {
	// Get returns the value stored under key. ok is false when the key has
	// never been written (or its entry has been lost).
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set overwrites the full value under key and broadcasts a change
	// notification for that key to all subscribers.
	Set(ctx context.Context, key string, value []byte) error

	// Subscribe registers fn to be invoked with the key of every subsequent
	// write. The returned cancel function removes the subscription.
	Subscribe(fn func(key string)) (cancel func())
}
