package cart

import (
	"context"
	"errors"
	"log"
	"maps"
	"sync"

	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/kvstore"
)

const storageKey = "user_cart"

var (
	ErrInvalidProduct = errors.New("product id is required")
	ErrNoActiveCart   = errors.New("no user cart loaded")
)

// CartItem is a line in a cart. Product is a denormalized snapshot of
// the catalog entry at the time it was added; RefreshFromProducts keeps
// it in sync after catalog edits.
type CartItem struct {
	Product            product.Product   `json:"product"`
	Quantity           int               `json:"quantity"`
	SelectedVariations map[string]string `json:"selected_variations,omitempty"`
}

// UserCart is the persisted shard for one user. Unlike the other
// collections the cart store is keyed per user, not flat.
type UserCart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"cart_items"`
}

// Repository owns the cart collection and the loaded user's items.
type Repository struct {
	store kvstore.Store

	mu     sync.RWMutex
	items  []CartItem
	userID string
}

func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// LoadForUser materializes userID's cart. Load failures are recovered
// as an empty cart.
func (r *Repository) LoadForUser(ctx context.Context, userID string) []CartItem {
	carts, err := collection.Load[UserCart](ctx, r.store, storageKey)
	if err != nil {
		log.Printf("[Cart] Failed to load cart: %v", err)
		carts = nil
	}

	var items []CartItem
	for _, c := range carts {
		if c.UserID == userID {
			items = c.Items
			break
		}
	}

	r.mu.Lock()
	r.items = items
	r.userID = userID
	r.mu.Unlock()
	return items
}

// AddItem merges the product into the cart: an existing line with the
// same product id and variation selection gains quantity 1, otherwise a
// new line with quantity 1 is appended.
func (r *Repository) AddItem(ctx context.Context, p product.Product, selectedVariations map[string]string) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}

	r.mu.RLock()
	userID := r.userID
	updated := make([]CartItem, len(r.items))
	copy(updated, r.items)
	r.mu.RUnlock()

	if userID == "" {
		return ErrNoActiveCart
	}

	merged := false
	for i := range updated {
		if updated[i].Product.ID == p.ID && maps.Equal(updated[i].SelectedVariations, selectedVariations) {
			updated[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		updated = append(updated, CartItem{
			Product:            p,
			Quantity:           1,
			SelectedVariations: selectedVariations,
		})
	}

	return r.persist(ctx, userID, updated)
}

// SetQuantity replaces the quantity of the lines holding productID.
// Zero or negative removes them.
func (r *Repository) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, productID)
	}

	r.mu.RLock()
	userID := r.userID
	updated := make([]CartItem, len(r.items))
	copy(updated, r.items)
	r.mu.RUnlock()

	if userID == "" {
		return ErrNoActiveCart
	}

	for i := range updated {
		if updated[i].Product.ID == productID {
			updated[i].Quantity = quantity
		}
	}
	return r.persist(ctx, userID, updated)
}

// RemoveItem drops every line holding productID, regardless of
// variation selection.
func (r *Repository) RemoveItem(ctx context.Context, productID string) error {
	r.mu.RLock()
	userID := r.userID
	items := r.items
	r.mu.RUnlock()

	if userID == "" {
		return ErrNoActiveCart
	}

	updated := collection.Filter(items, func(item CartItem) bool {
		return item.Product.ID != productID
	})
	return r.persist(ctx, userID, updated)
}

// Clear empties the loaded user's cart.
func (r *Repository) Clear(ctx context.Context) error {
	r.mu.RLock()
	userID := r.userID
	r.mu.RUnlock()

	if userID == "" {
		return ErrNoActiveCart
	}
	return r.persist(ctx, userID, []CartItem{})
}

// RefreshFromProducts replaces stale product snapshots with the current
// catalog data, matched by product id. Lines whose product no longer
// exists are kept unchanged so the cart never loses rows on a catalog
// delete.
func (r *Repository) RefreshFromProducts(ctx context.Context, products []product.Product) error {
	r.mu.RLock()
	userID := r.userID
	updated := make([]CartItem, len(r.items))
	copy(updated, r.items)
	r.mu.RUnlock()

	if userID == "" {
		return nil
	}

	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for i := range updated {
		if p, ok := byID[updated[i].Product.ID]; ok {
			updated[i].Product = p
		}
	}
	return r.persist(ctx, userID, updated)
}

// Total sums effective price times quantity over the loaded cart.
func (r *Repository) Total() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, item := range r.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount sums quantities over the loaded cart.
func (r *Repository) ItemCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int
	for _, item := range r.items {
		count += item.Quantity
	}
	return count
}

// Items returns a copy of the loaded cart.
func (r *Repository) Items() []CartItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]CartItem, len(r.items))
	copy(items, r.items)
	return items
}

// ClearScope drops the in-memory cart without touching persisted data.
func (r *Repository) ClearScope() {
	r.mu.Lock()
	r.items = nil
	r.userID = ""
	r.mu.Unlock()
}

// OnSessionChange implements session.Observer. An empty userID means
// the user signed out.
func (r *Repository) OnSessionChange(ctx context.Context, userID string) {
	if userID == "" {
		r.ClearScope()
		return
	}
	r.LoadForUser(ctx, userID)
}

// persist writes userID's shard back into the per-user cart collection
// and, on success, publishes the new in-memory view.
func (r *Repository) persist(ctx context.Context, userID string, items []CartItem) error {
	carts, err := collection.Load[UserCart](ctx, r.store, storageKey)
	if err != nil {
		return err
	}

	found := false
	for i := range carts {
		if carts[i].UserID == userID {
			carts[i].Items = items
			found = true
			break
		}
	}
	if !found {
		carts = append(carts, UserCart{UserID: userID, Items: items})
	}

	if err := collection.Save(ctx, r.store, storageKey, carts); err != nil {
		return err
	}

	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return nil
}
