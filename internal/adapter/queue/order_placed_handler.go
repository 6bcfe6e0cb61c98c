package queue

import (
	"context"

	"github.com/aq2208/storefront-checkout/internal/usecase"
)

// StatusRecorder is satisfied by usecase.DeliveryTracker.
type StatusRecorder interface {
	RecordPlaced(ctx context.Context, msg usecase.OrderPlacedMsg) error
}

// NewOrderPlacedHandler seeds the status cache from order.placed events.
func NewOrderPlacedHandler(rec StatusRecorder) Handler {
	return JSONHandler[usecase.OrderPlacedMsg]{HandleFunc: rec.RecordPlaced}
}
