package usecase

import (
	"context"

	"github.com/aq2208/storefront-checkout/internal/catalog"
	"github.com/aq2208/storefront-checkout/internal/entity"
)

// CartService edits a shopper's cart. Prices always come from the catalog,
// never from the client.
type CartService struct {
	store   SessionStore
	catalog *catalog.Catalog
	locks   *UserLocks
}

func NewCartService(store SessionStore, cat *catalog.Catalog, locks *UserLocks) *CartService {
	return &CartService{store: store, catalog: cat, locks: locks}
}

func loadCart(ctx context.Context, store SessionStore, userID string) (entity.Cart, error) {
	var c entity.Cart
	if _, err := store.Get(ctx, userID, CollectionCart, &c); err != nil {
		return entity.Cart{}, err
	}
	return c, nil
}

func (s *CartService) Get(ctx context.Context, userID string) (entity.Cart, error) {
	return loadCart(ctx, s.store, userID)
}

func (s *CartService) mutate(ctx context.Context, userID string, fn func(*entity.Cart) error) (entity.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := loadCart(ctx, s.store, userID)
	if err != nil {
		return entity.Cart{}, err
	}
	if err := fn(&c); err != nil {
		return entity.Cart{}, err
	}
	if err := s.store.Set(ctx, userID, CollectionCart, c); err != nil {
		return entity.Cart{}, err
	}
	return c, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (entity.Cart, error) {
	p, err := s.catalog.Get(productID)
	if err != nil {
		return entity.Cart{}, err
	}
	return s.mutate(ctx, userID, func(c *entity.Cart) error {
		return c.Add(p.LineItem(qty))
	})
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, qty int) (entity.Cart, error) {
	return s.mutate(ctx, userID, func(c *entity.Cart) error {
		return c.SetQuantity(productID, qty)
	})
}

func (s *CartService) Increment(ctx context.Context, userID, productID string) (entity.Cart, error) {
	return s.mutate(ctx, userID, func(c *entity.Cart) error {
		return c.Increment(productID)
	})
}

func (s *CartService) Decrement(ctx context.Context, userID, productID string) (entity.Cart, error) {
	return s.mutate(ctx, userID, func(c *entity.Cart) error {
		return c.Decrement(productID)
	})
}

func (s *CartService) Remove(ctx context.Context, userID, productID string) (entity.Cart, error) {
	return s.mutate(ctx, userID, func(c *entity.Cart) error {
		return c.Remove(productID)
	})
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.store.Remove(ctx, userID, CollectionCart)
}
