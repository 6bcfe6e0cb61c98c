package usecase

import (
	"context"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

// Per-user session collections.
const (
	CollectionCart     = "cart"
	CollectionPromo    = "promo"
	CollectionCheckout = "checkout"
)

// SessionStore keeps small per-user JSON documents, one per named
// collection. Get reports false when nothing is stored.
type SessionStore interface {
	Get(ctx context.Context, userID, collection string, dst any) (bool, error)
	Set(ctx context.Context, userID, collection string, v any) error
	Remove(ctx context.Context, userID string, collections ...string) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Order, error)
	// UpdateStatusIf moves the order to `to` only when it is currently in
	// `from`; it reports whether a row changed.
	UpdateStatusIf(ctx context.Context, id string, from, to entity.Status) (bool, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderEvents interface {
	PublishOrderPlaced(ctx context.Context, msg OrderPlacedMsg) error
}

type OrderStatusCache interface {
	SetStatus(ctx context.Context, orderID string, status entity.Status) error
	// SeedStatus writes status only when nothing is cached for the order.
	SeedStatus(ctx context.Context, orderID string, status entity.Status) error
	GetStatus(ctx context.Context, orderID string) (entity.Status, bool, error)
}
