package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/review"
	"github.com/example/storefront/internal/infrastructure/kvstore"
	"github.com/example/storefront/internal/session"
)

// ============================================
// Summarize Tests
// ============================================

func TestSummarize_EmptyCart(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.Subtotal)
	assert.Zero(t, s.OriginalSubtotal)
	assert.Zero(t, s.Shipping, "no shipping on an empty cart")
	assert.Zero(t, s.Tax)
	assert.Zero(t, s.Total)
}

func TestSummarize_Breakdown(t *testing.T) {
	items := []cart.CartItem{
		{Product: product.Product{ID: "p1", Price: 10.00}, Quantity: 2},
	}

	s := Summarize(items)

	assert.InDelta(t, 20.00, s.Subtotal, 0.001)
	assert.InDelta(t, 6.95, s.Shipping, 0.001)
	assert.InDelta(t, 1.88, s.Tax, 0.001)
	assert.InDelta(t, 28.83, s.Total, 0.001)
}

func TestSummarize_DiscountedCart(t *testing.T) {
	items := []cart.CartItem{
		{
			Product: product.Product{
				ID:                 "p1",
				Price:              40.00,
				OriginalPrice:      50.00,
				DiscountPercentage: 20,
			},
			Quantity: 1,
		},
	}

	s := Summarize(items)

	assert.InDelta(t, 40.00, s.Subtotal, 0.001, "subtotal uses the discounted price")
	assert.InDelta(t, 50.00, s.OriginalSubtotal, 0.001)
	assert.InDelta(t, 10.00, s.Discount(), 0.001)
	assert.InDelta(t, 6.95, s.Shipping, 0.001)
	assert.InDelta(t, 3.76, s.Tax, 0.001, "tax is charged on the discounted subtotal")
	assert.InDelta(t, 50.71, s.Total, 0.001)
}

// ============================================
// Place Order Tests
// ============================================

func newTestCheckout(t *testing.T) (*Service, *cart.Repository, *order.Repository) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	carts := cart.NewRepository(store)
	orders := order.NewRepository(store)
	return NewService(carts, orders), carts, orders
}

func TestService_PlaceOrder_EmptyCart(t *testing.T) {
	svc, carts, _ := newTestCheckout(t)
	carts.LoadForUser(context.Background(), "alice")

	_, err := svc.PlaceOrder(context.Background(), "alice")

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestService_PlaceOrder(t *testing.T) {
	svc, carts, orders := newTestCheckout(t)
	ctx := context.Background()
	carts.LoadForUser(ctx, "alice")
	orders.LoadForUser(ctx, "alice")

	widget := product.Product{ID: "p1", Name: "Widget", Price: 10.00, UserID: "alice"}
	require.NoError(t, carts.AddItem(ctx, widget, nil))
	require.NoError(t, carts.AddItem(ctx, widget, nil))

	placed, err := svc.PlaceOrder(ctx, "alice")

	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, placed.Status)
	assert.InDelta(t, 28.83, placed.Total, 0.001)
	assert.Empty(t, carts.Items(), "checkout clears the cart")

	history := orders.LoadForUser(ctx, "alice")
	require.Len(t, history, 1)
	assert.Equal(t, placed.ID, history[0].ID)
}

func TestService_PlaceOrder_DiscountedCart(t *testing.T) {
	svc, carts, orders := newTestCheckout(t)
	ctx := context.Background()
	carts.LoadForUser(ctx, "alice")
	orders.LoadForUser(ctx, "alice")

	gadget := product.Product{
		ID:                 "p1",
		Name:               "Gadget",
		Price:              40.00,
		OriginalPrice:      50.00,
		DiscountPercentage: 20,
		UserID:             "alice",
	}
	require.NoError(t, carts.AddItem(ctx, gadget, nil))

	placed, err := svc.PlaceOrder(ctx, "alice")

	require.NoError(t, err)
	assert.InDelta(t, 50.71, placed.Total, 0.001, "order charges the discounted price")

	history := orders.LoadForUser(ctx, "alice")
	require.Len(t, history, 1)
	assert.InDelta(t, 50.71, history[0].Total, 0.001)
}

// ============================================
// End-To-End Scenario
// ============================================

// TestStorefrontScenario drives the full alice flow: login, create a
// product, buy it twice, check out, review it, log out.
func TestStorefrontScenario(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	products := product.NewRepository(store)
	carts := cart.NewRepository(store)
	orders := order.NewRepository(store)
	reviews := review.NewRepository(store)

	sessions := session.NewManager(store)
	sessions.Register(products)
	sessions.Register(carts)
	sessions.Register(orders)
	sessions.Register(reviews)
	sessions.Restore(ctx)
	require.NoError(t, sessions.Login(ctx, "alice", "secret"))

	widget, err := products.Create(ctx, "Widget", "A useful widget", 10.00, "alice", nil, 0)
	require.NoError(t, err)

	require.NoError(t, carts.AddItem(ctx, *widget, nil))
	require.NoError(t, carts.AddItem(ctx, *widget, nil))
	assert.InDelta(t, 20.00, carts.Total(), 0.001)
	assert.Equal(t, 2, carts.ItemCount())

	placed, err := NewService(carts, orders).PlaceOrder(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 20.00+6.95+20.00*0.094, placed.Total, 0.001)
	assert.Empty(t, carts.Items())

	history := orders.LoadForUser(ctx, "alice")
	require.Len(t, history, 1)
	assert.Equal(t, order.StatusPending, history[0].Status)

	_, err = reviews.Create(ctx, widget.ID, "alice", "alice", 5, "Does what it says")
	require.NoError(t, err)
	reviews.LoadForProduct(ctx, widget.ID)
	assert.Equal(t, 5.0, reviews.AverageRating(widget.ID))

	// Logout clears every scoped view; bob starts clean.
	require.NoError(t, sessions.Logout(ctx))
	assert.Empty(t, products.Products())
	assert.Empty(t, carts.Items())
	assert.Empty(t, orders.Orders())
	assert.Empty(t, reviews.Reviews())

	require.NoError(t, sessions.Login(ctx, "bob", "secret"))
	assert.Empty(t, products.Products(), "alice's catalog must not leak to bob")
	assert.Empty(t, carts.Items())
	assert.Empty(t, orders.Orders())
}

// TestDiscountScenario covers the discounted product end to end: the
// stored prices, the cart total and the checkout subtotal.
func TestDiscountScenario(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	products := product.NewRepository(store)
	carts := cart.NewRepository(store)

	gadget, err := products.Create(ctx, "Gadget", "", 50.00, "alice", nil, 20)
	require.NoError(t, err)
	assert.Equal(t, 40.00, gadget.Price)
	assert.Equal(t, 50.00, gadget.OriginalPrice)
	assert.Equal(t, 20.0, gadget.DiscountPercentage)

	carts.LoadForUser(ctx, "alice")
	require.NoError(t, carts.AddItem(ctx, *gadget, nil))

	assert.InDelta(t, 40.00, carts.Total(), 0.001, "cart total uses the discounted price")

	s := Summarize(carts.Items())
	assert.InDelta(t, 40.00, s.Subtotal, 0.001)
	assert.InDelta(t, 50.00, s.OriginalSubtotal, 0.001)
	assert.InDelta(t, 40.00+6.95+40.00*0.094, s.Total, 0.001)
}

// TestCatalogEditPropagation covers the explicit cross-repository
// refresh after a product update and delete.
func TestCatalogEditPropagation(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	products := product.NewRepository(store)
	carts := cart.NewRepository(store)

	widget, err := products.Create(ctx, "Widget", "", 10.00, "alice", nil, 0)
	require.NoError(t, err)
	products.LoadForUser(ctx, "alice")
	carts.LoadForUser(ctx, "alice")
	require.NoError(t, carts.AddItem(ctx, *widget, nil))

	require.NoError(t, products.Update(ctx, widget.ID, "Widget", "", 12.00, nil, 0))
	require.NoError(t, carts.RefreshFromProducts(ctx, products.Products()))
	assert.InDelta(t, 12.00, carts.Total(), 0.001)

	require.NoError(t, products.Delete(ctx, widget.ID))
	require.NoError(t, carts.RefreshFromProducts(ctx, products.Products()))
	items := carts.Items()
	require.Len(t, items, 1, "orphaned cart lines keep their last snapshot")
	assert.InDelta(t, 12.00, items[0].Product.Price, 0.001)
}
