package product

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/infrastructure/kvstore"
)

const storageKey = "products"

var (
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	ErrInvalidUser     = errors.New("user id is required")
)

// Variation is a named axis of product options, e.g. Size -> S/M/L.
type Variation struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Product is a catalog entry owned by the user who created it. Price is
// always the effective price; OriginalPrice and DiscountPercentage are
// zero unless a discount is set.
type Product struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	Price              float64     `json:"price"`
	OriginalPrice      float64     `json:"original_price,omitempty"`
	DiscountPercentage float64     `json:"discount_percentage,omitempty"`
	Variations         []Variation `json:"variations,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UserID             string      `json:"user_id"`
}

// Discounted reports whether a discount is applied.
func (p Product) Discounted() bool {
	return p.DiscountPercentage > 0
}

// Repository owns the product collection. All products live in one flat
// persisted array across users; the in-memory view holds the current
// user's slice of it.
type Repository struct {
	store kvstore.Store

	mu     sync.RWMutex
	view   []Product
	userID string
}

func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// LoadForUser re-reads the full collection and materializes the view
// for userID. Load failures are recovered as an empty catalog.
func (r *Repository) LoadForUser(ctx context.Context, userID string) []Product {
	all, err := collection.Load[Product](ctx, r.store, storageKey)
	if err != nil {
		log.Printf("[Product] Failed to load products: %v", err)
		all = nil
	}

	view := collection.Filter(all, func(p Product) bool { return p.UserID == userID })

	r.mu.Lock()
	r.view = view
	r.userID = userID
	r.mu.Unlock()
	return view
}

// Create validates, applies any discount, appends to the persisted
// collection and refreshes the view for the creating user. A discount
// of zero means no discount.
func (r *Repository) Create(ctx context.Context, name, description string, price float64, userID string, variations []Variation, discountPercentage float64) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if discountPercentage < 0 || discountPercentage > 100 {
		return nil, ErrInvalidDiscount
	}

	p := Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Price:       price,
		Variations:  variations,
		CreatedAt:   time.Now(),
		UserID:      userID,
	}
	if discountPercentage > 0 {
		p.OriginalPrice = price
		p.DiscountPercentage = discountPercentage
		p.Price = roundCents(price * (1 - discountPercentage/100))
	}

	all, err := collection.Load[Product](ctx, r.store, storageKey)
	if err != nil {
		return nil, err
	}
	all = append(all, p)
	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return nil, err
	}

	view := collection.Filter(all, func(q Product) bool { return q.UserID == userID })
	r.mu.Lock()
	r.view = view
	r.mu.Unlock()
	return &p, nil
}

// Update replaces the mutable fields of the product with the given id.
// Passing nil variations clears stored variations, and a zero discount
// clears a stored discount; callers must re-send fields they want kept.
// An unknown id is a no-op.
func (r *Repository) Update(ctx context.Context, id, name, description string, price float64, variations []Variation, discountPercentage float64) error {
	if name == "" {
		return ErrInvalidName
	}
	if price <= 0 {
		return ErrInvalidPrice
	}
	if discountPercentage < 0 || discountPercentage > 100 {
		return ErrInvalidDiscount
	}

	all, err := collection.Load[Product](ctx, r.store, storageKey)
	if err != nil {
		return err
	}

	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].Name = name
		all[i].Description = description
		all[i].Price = price
		all[i].Variations = variations
		all[i].OriginalPrice = 0
		all[i].DiscountPercentage = 0
		if discountPercentage > 0 {
			all[i].OriginalPrice = price
			all[i].DiscountPercentage = discountPercentage
			all[i].Price = roundCents(price * (1 - discountPercentage/100))
		}
	}

	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return err
	}

	r.refreshView(all)
	return nil
}

// Delete removes the product with the given id. An unknown id is a
// no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	all, err := collection.Load[Product](ctx, r.store, storageKey)
	if err != nil {
		return err
	}

	all = collection.Filter(all, func(p Product) bool { return p.ID != id })
	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return err
	}

	r.refreshView(all)
	return nil
}

// ClearScope drops the in-memory view without touching persisted data.
func (r *Repository) ClearScope() {
	r.mu.Lock()
	r.view = nil
	r.userID = ""
	r.mu.Unlock()
}

// Products returns a copy of the current user's view.
func (r *Repository) Products() []Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view := make([]Product, len(r.view))
	copy(view, r.view)
	return view
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

func (r *Repository) refreshView(all []Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID == "" {
		return
	}
	userID := r.userID
	r.view = collection.Filter(all, func(p Product) bool { return p.UserID == userID })
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
