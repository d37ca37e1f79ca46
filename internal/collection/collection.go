// Package collection provides the shared read-modify-write plumbing for
// repositories that persist one entity collection as a JSON array under
// a single store key.
package collection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/storefront/internal/infrastructure/kvstore"
)

// Load reads the collection stored under key. An absent key yields an
// empty collection.
func Load[E any](ctx context.Context, store kvstore.Store, key string) ([]E, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	var items []E
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

// Save writes the full collection back under key.
func Save[E any](ctx context.Context, store kvstore.Store, key string, items []E) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Filter returns the items for which keep is true.
func Filter[E any](items []E, keep func(E) bool) []E {
	out := make([]E, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
