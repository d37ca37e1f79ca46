package kvstore

import "context"

// Store is a device-local key-value store. An absent key is reported as
// (_, false, nil) and is a normal outcome, not an error. A single Set is
// durable on its own; there is no atomicity across keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
