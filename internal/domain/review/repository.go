package review

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

const storageKey = "product_reviews"

var (
	ErrInvalidProduct = errors.New("product id is required")
	ErrInvalidUser    = errors.New("user id is required")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// Review is one user's rating of one product. At most one review exists
// per (product, user) pair.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository owns the review collection. The view is scoped either by
// product (product detail screen) or by user (profile screen),
// whichever was loaded last.
type Repository struct {
	store kvstore.Store

	mu        sync.RWMutex
	view      []Review
	productID string
	userID    string
}

func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// LoadForProduct materializes the reviews of one product. Load failures
// are recovered as an empty list.
func (r *Repository) LoadForProduct(ctx context.Context, productID string) []Review {
	all, err := collection.Load[Review](ctx, r.store, storageKey)
	if err != nil {
		log.Printf("[Review] Failed to load reviews: %v", err)
		all = nil
	}

	view := collection.Filter(all, func(v Review) bool { return v.ProductID == productID })

	r.mu.Lock()
	r.view = view
	r.productID = productID
	r.userID = ""
	r.mu.Unlock()
	return view
}

// LoadForUser materializes the reviews written by one user.
func (r *Repository) LoadForUser(ctx context.Context, userID string) []Review {
	all, err := collection.Load[Review](ctx, r.store, storageKey)
	if err != nil {
		log.Printf("[Review] Failed to load reviews: %v", err)
		all = nil
	}

	view := collection.Filter(all, func(v Review) bool { return v.UserID == userID })

	r.mu.Lock()
	r.view = view
	r.userID = userID
	r.productID = ""
	r.mu.Unlock()
	return view
}

// Create upserts the (productID, userID) review: a resubmission
// replaces the prior rating, comment and username while keeping the
// original id and creation time.
func (r *Repository) Create(ctx context.Context, productID, userID, username string, rating int, comment string) (*Review, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	all, err := collection.Load[Review](ctx, r.store, storageKey)
	if err != nil {
		return nil, err
	}

	v := Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Username:  username,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	replaced := false
	for i := range all {
		if all[i].ProductID == productID && all[i].UserID == userID {
			v.ID = all[i].ID
			v.CreatedAt = all[i].CreatedAt
			all[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, v)
	}

	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return nil, err
	}

	r.refreshView(all)
	return &v, nil
}

// Update replaces the rating and comment of the review with the given
// id. An unknown id is a no-op.
func (r *Repository) Update(ctx context.Context, reviewID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	all, err := collection.Load[Review](ctx, r.store, storageKey)
	if err != nil {
		return err
	}

	for i := range all {
		if all[i].ID == reviewID {
			all[i].Rating = rating
			all[i].Comment = comment
		}
	}

	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return err
	}

	r.refreshView(all)
	return nil
}

// Delete removes the review with the given id. An unknown id is a
// no-op.
func (r *Repository) Delete(ctx context.Context, reviewID string) error {
	all, err := collection.Load[Review](ctx, r.store, storageKey)
	if err != nil {
		return err
	}

	all = collection.Filter(all, func(v Review) bool { return v.ID != reviewID })
	if err := collection.Save(ctx, r.store, storageKey, all); err != nil {
		return err
	}

	r.refreshView(all)
	return nil
}

// AverageRating is the mean rating of productID over the loaded view,
// rounded to one decimal. Zero when the product has no reviews.
func (r *Repository) AverageRating(productID string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum, n int
	for _, v := range r.view {
		if v.ProductID == productID {
			sum += v.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

// ReviewCount counts productID's reviews in the loaded view.
func (r *Repository) ReviewCount(productID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int
	for _, v := range r.view {
		if v.ProductID == productID {
			n++
		}
	}
	return n
}

// UserReview looks up the (productID, userID) review in the loaded
// view.
func (r *Repository) UserReview(productID, userID string) (*Review, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.view {
		if v.ProductID == productID && v.UserID == userID {
			return &v, true
		}
	}
	return nil, false
}

// Reviews returns a copy of the loaded view.
func (r *Repository) Reviews() []Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view := make([]Review, len(r.view))
	copy(view, r.view)
	return view
}

// ClearScope drops the in-memory view without touching persisted data.
func (r *Repository) ClearScope() {
	r.mu.Lock()
	r.view = nil
	r.productID = ""
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

// refreshView recomputes the view from the full collection using the
// last-loaded scope.
func (r *Repository) refreshView(all []Review) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.productID != "":
		productID := r.productID
		r.view = collection.Filter(all, func(v Review) bool { return v.ProductID == productID })
	case r.userID != "":
		userID := r.userID
		r.view = collection.Filter(all, func(v Review) bool { return v.UserID == userID })
	}
}
