package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/logging"
)

// OrderQuery serves a shopper's own orders. Orders belonging to someone
// else are reported as not found.
type OrderQuery struct {
	repo  OrderRepo
	cache OrderStatusCache
}

func NewOrderQuery(repo OrderRepo, cache OrderStatusCache) *OrderQuery {
	return &OrderQuery{repo: repo, cache: cache}
}

func (q *OrderQuery) Get(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	o, err := q.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// List returns the shopper's orders, newest first.
func (q *OrderQuery) List(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := q.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Status answers from the cache when it can and falls back to the store.
func (q *OrderQuery) Status(ctx context.Context, userID, orderID string) (entity.Status, error) {
	o, err := q.Get(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if st, ok, err := q.cache.GetStatus(ctx, orderID); err == nil && ok {
		return st, nil
	} else if err != nil {
		logging.FromCtx(ctx).Warn("status cache read", "order_id", orderID, "err", err)
	}
	return o.Status, nil
}

// DeliveryTracker applies fulfilment events to stored orders.
type DeliveryTracker struct {
	repo  OrderRepo
	cache OrderStatusCache
}

func NewDeliveryTracker(repo OrderRepo, cache OrderStatusCache) *DeliveryTracker {
	return &DeliveryTracker{repo: repo, cache: cache}
}

// RecordPlaced seeds the status cache for a newly placed order. A late or
// redelivered event never overwrites a status already cached.
func (t *DeliveryTracker) RecordPlaced(ctx context.Context, msg OrderPlacedMsg) error {
	return t.cache.SeedStatus(ctx, msg.OrderID, entity.StatusConfirmed)
}

// MarkDelivered moves a confirmed order to delivered. Redelivered or stale
// events for orders already delivered are ignored.
func (t *DeliveryTracker) MarkDelivered(ctx context.Context, msg ShipmentDeliveredMsg) error {
	changed, err := t.repo.UpdateStatusIf(ctx, msg.OrderID, entity.StatusConfirmed, entity.StatusDelivered)
	if err != nil {
		return err
	}
	if !changed {
		if _, err := t.repo.GetByID(ctx, msg.OrderID); errors.Is(err, ErrOrderNotFound) {
			logging.FromCtx(ctx).Warn("delivery for unknown order", "order_id", msg.OrderID)
			return nil
		}
	}
	return t.cache.SetStatus(ctx, msg.OrderID, entity.StatusDelivered)
}
