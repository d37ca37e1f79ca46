// Package checkout turns the loaded cart into an order.
package checkout

import (
	"context"
	"errors"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
)

const (
	shippingFlatRate = 6.95
	taxRate          = 0.094
)

var ErrEmptyCart = errors.New("cart is empty")

// Summary is the cost breakdown shown at checkout. Subtotal, Tax and
// Total are computed from the effective (discounted) line prices;
// OriginalSubtotal is the pre-discount figure, shown only so the saved
// amount can be presented next to it.
type Summary struct {
	Subtotal         float64
	OriginalSubtotal float64
	Shipping         float64
	Tax              float64
	Total            float64
}

// Discount is the amount saved by product discounts.
func (s Summary) Discount() float64 {
	return s.OriginalSubtotal - s.Subtotal
}

// Summarize computes the checkout cost breakdown for a cart.
func Summarize(items []cart.CartItem) Summary {
	var subtotal, originalSubtotal float64
	for _, item := range items {
		subtotal += item.Product.Price * float64(item.Quantity)

		originalPrice := item.Product.Price
		if item.Product.OriginalPrice > 0 {
			originalPrice = item.Product.OriginalPrice
		}
		originalSubtotal += originalPrice * float64(item.Quantity)
	}

	s := Summary{Subtotal: subtotal, OriginalSubtotal: originalSubtotal}
	if len(items) > 0 {
		s.Shipping = shippingFlatRate
	}
	s.Tax = subtotal * taxRate
	s.Total = s.Subtotal + s.Shipping + s.Tax
	return s
}

// Service orchestrates checkout across the cart and order repositories.
type Service struct {
	carts  *cart.Repository
	orders *order.Repository
}

func NewService(carts *cart.Repository, orders *order.Repository) *Service {
	return &Service{carts: carts, orders: orders}
}

// PlaceOrder snapshots the loaded cart into a new Pending order and
// clears the cart. The order survives even if the cart clear fails; the
// caller may retry the clear.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*order.Order, error) {
	items := s.carts.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	summary := Summarize(items)
	o, err := s.orders.Create(ctx, userID, items, summary.Total)
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx); err != nil {
		return o, err
	}
	return o, nil
}
