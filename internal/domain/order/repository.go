package order

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/infrastructure/kvstore"
)

const storageKey = "user_orders"

var (
	ErrEmptyOrder    = errors.New("order must contain at least one item")
	ErrInvalidUser   = errors.New("user id is required")
	ErrInvalidStatus = errors.New("unknown order status")
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// Order is a checkout-time snapshot of a cart. Everything except Status
// and UpdatedAt is immutable after creation; Total is persisted, never
// recomputed.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Items     []cart.CartItem `json:"items"`
	Total     float64         `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Repository owns the order collection. Orders are stored in one flat
// persisted array across users.
type Repository struct {
	store kvstore.Store

	mu     sync.RWMutex
	view   []Order
	userID string
}

func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// LoadForUser materializes userID's order history. Load failures are
// recovered as an empty history.
func (r *Repository) LoadForUser(ctx context.Context, userID string) []Order {
	all, err := collection.Load[Order](ctx, r.store, storageKey)
	if err != nil {
		log.Printf("[Order] Failed to load orders: %v", err)
		all = nil
	}

	view := collection.Filter(all, func(o Order) bool { return o.UserID == userID })

	r.mu.Lock()
	r.view = view
	r.userID = userID
	r.mu.Unlock()
	return view
}

// Create appends a new Pending order holding the given cart snapshot.
func (r *Repository) Create(ctx context.Context, userID string, items []cart.CartItem, total float64) (*Order, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	now := time.Now()
	o := Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     items,
		Total:     total,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	all, err := collection.Load[Order](ctx, r.store, storageKey)
	if err != nil {
		return nil, err
	}
	all = append(all, o)
	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return nil, err
	}

	view := collection.Filter(all, func(q Order) bool { return q.UserID == userID })
	r.mu.Lock()
	r.view = view
	r.mu.Unlock()
	return &o, nil
}

// UpdateStatus moves the order with the given id to status and stamps
// UpdatedAt. An unknown id is a no-op.
func (r *Repository) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	all, err := collection.Load[Order](ctx, r.store, storageKey)
	if err != nil {
		return err
	}

	for i := range all {
		if all[i].ID == orderID {
			all[i].Status = status
			all[i].UpdatedAt = time.Now()
		}
	}

	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != "" {
		userID := r.userID
		r.view = collection.Filter(all, func(o Order) bool { return o.UserID == userID })
	}
	return nil
}

// OrderByID looks up an order in the loaded view.
func (r *Repository) OrderByID(orderID string) (*Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.view {
		if o.ID == orderID {
			return &o, true
		}
	}
	return nil, false
}

// Orders returns a copy of the loaded view.
func (r *Repository) Orders() []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view := make([]Order, len(r.view))
	copy(view, r.view)
	return view
}

// ClearScope drops the in-memory view without touching persisted data.
func (r *Repository) ClearScope() {
	r.mu.Lock()
	r.view = nil
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
