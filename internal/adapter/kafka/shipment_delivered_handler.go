package kafka

import (
	"context"

	"github.com/aq2208/storefront-checkout/internal/usecase"
)

// DeliveryMarker is satisfied by usecase.DeliveryTracker.
type DeliveryMarker interface {
	MarkDelivered(ctx context.Context, msg usecase.ShipmentDeliveredMsg) error
}

type ShipmentDeliveredHandler struct {
	Tracker DeliveryMarker
}

func NewShipmentDeliveredHandler(t DeliveryMarker) *ShipmentDeliveredHandler {
	return &ShipmentDeliveredHandler{Tracker: t}
}

func (h *ShipmentDeliveredHandler) Handle(ctx context.Context, ev usecase.ShipmentDeliveredMsg) error {
	return h.Tracker.MarkDelivered(ctx, ev)
}
