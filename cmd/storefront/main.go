package main

import (
	"context"
	"flag"
	"log"

	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/review"
	"github.com/example/storefront/internal/infrastructure/kvstore"
	"github.com/example/storefront/internal/session"
)

func main() {
	configPath := flag.String("config", "storefront.yaml", "path to the config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Storefront] Failed to load config: %v", err)
	}

	log.Println("[Storefront] ========================================")
	log.Println("[Storefront] Storefront - Client Data Layer Demo")
	log.Println("[Storefront] ========================================")
	log.Printf("[Storefront] Store backend: %s", cfg.Store.Backend)

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[Storefront] Failed to open store: %v", err)
	}

	// Repositories, one per entity collection.
	products := product.NewRepository(store)
	carts := cart.NewRepository(store)
	orders := order.NewRepository(store)
	reviews := review.NewRepository(store)

	// Session manager drives scope changes into every repository.
	sessions := session.NewManager(store)
	sessions.Register(products)
	sessions.Register(carts)
	sessions.Register(orders)
	sessions.Register(reviews)
	sessions.Restore(ctx)

	if sessions.IsLoggedIn() {
		log.Printf("[Storefront] Restored session for %q", sessions.Username())
	} else {
		log.Println("[Storefront] No previous session, signing in as alice")
		if err := sessions.Login(ctx, "alice", "secret"); err != nil {
			log.Fatalf("[Storefront] Login failed: %v", err)
		}
	}
	user := sessions.Username()

	// Catalog: create a product with a discount and one without.
	widget, err := products.Create(ctx, "Widget", "A useful widget", 10.00, user, nil, 0)
	if err != nil {
		log.Fatalf("[Storefront] Failed to create product: %v", err)
	}
	gadget, err := products.Create(ctx, "Gadget", "A shiny gadget", 50.00, user,
		[]product.Variation{{Name: "Color", Options: []string{"Black", "Silver"}}}, 20)
	if err != nil {
		log.Fatalf("[Storefront] Failed to create product: %v", err)
	}
	log.Printf("[Storefront] Catalog: %d products (gadget price %.2f, was %.2f)",
		len(products.Products()), gadget.Price, gadget.OriginalPrice)

	// Cart: two widgets and one black gadget.
	if err := carts.AddItem(ctx, *widget, nil); err != nil {
		log.Fatalf("[Storefront] Failed to add to cart: %v", err)
	}
	if err := carts.AddItem(ctx, *widget, nil); err != nil {
		log.Fatalf("[Storefront] Failed to add to cart: %v", err)
	}
	if err := carts.AddItem(ctx, *gadget, map[string]string{"Color": "Black"}); err != nil {
		log.Fatalf("[Storefront] Failed to add to cart: %v", err)
	}
	log.Printf("[Storefront] Cart: %d items, total %.2f", carts.ItemCount(), carts.Total())

	// Catalog edit followed by the explicit cart snapshot refresh.
	if err := products.Update(ctx, widget.ID, "Widget", "A very useful widget", 12.00, nil, 0); err != nil {
		log.Fatalf("[Storefront] Failed to update product: %v", err)
	}
	if err := carts.RefreshFromProducts(ctx, products.Products()); err != nil {
		log.Fatalf("[Storefront] Failed to refresh cart: %v", err)
	}
	log.Printf("[Storefront] Cart after catalog edit: total %.2f", carts.Total())

	// Checkout.
	checkoutSvc := checkout.NewService(carts, orders)
	summary := checkout.Summarize(carts.Items())
	log.Printf("[Storefront] Checkout: subtotal %.2f shipping %.2f tax %.2f total %.2f",
		summary.Subtotal, summary.Shipping, summary.Tax, summary.Total)
	placed, err := checkoutSvc.PlaceOrder(ctx, user)
	if err != nil {
		log.Fatalf("[Storefront] Checkout failed: %v", err)
	}
	log.Printf("[Storefront] Order %s placed, status %s, total %.2f", placed.ID, placed.Status, placed.Total)

	// Review the widget.
	if _, err := reviews.Create(ctx, widget.ID, user, user, 5, "Does what it says"); err != nil {
		log.Fatalf("[Storefront] Failed to create review: %v", err)
	}
	reviews.LoadForProduct(ctx, widget.ID)
	log.Printf("[Storefront] Widget rating: %.1f (%d reviews)",
		reviews.AverageRating(widget.ID), reviews.ReviewCount(widget.ID))

	// Sign out; every repository clears its view.
	if err := sessions.Logout(ctx); err != nil {
		log.Fatalf("[Storefront] Logout failed: %v", err)
	}
	log.Printf("[Storefront] Signed out, cart view now holds %d items", carts.ItemCount())
}

func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return kvstore.NewMemoryStore(), nil
	case config.BackendPostgres:
		db, err := kvstore.ConnectPostgres(cfg.Store.Postgres.URL)
		if err != nil {
			return nil, err
		}
		store := kvstore.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendDynamo:
		client, err := kvstore.NewDynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		return kvstore.NewDynamoStore(client, cfg.Store.Dynamo.Table), nil
	default:
		return kvstore.NewFileStore(cfg.Store.Path), nil
	}
}
