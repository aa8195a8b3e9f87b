// Package kvstore is the durable key-value mirror for identity and ledger state.
package kvstore

import "context"

// Store is a string key-value store. Get reports ok=false for a missing key.
// Set replaces the whole value in one write.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
