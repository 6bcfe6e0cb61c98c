// Package observ holds the business counters exported on /metrics.
package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/promo"
)

var (
	promoApplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_apply_total",
			Help: "Promo code apply attempts by outcome",
		},
		[]string{"result"},
	)

	ordersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders placed by payment method",
		},
		[]string{"payment_method"},
	)

	stepRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_step_rejections_total",
			Help: "Checkout steps blocked by validation",
		},
		[]string{"step"},
	)
)

func PromoApplied(res promo.Result) {
	label := "applied"
	if !res.Success {
		label = string(res.Reason)
	}
	promoApplies.WithLabelValues(label).Inc()
}

func OrderPlaced(o entity.Order) {
	ordersPlaced.WithLabelValues(string(o.PaymentMethod)).Inc()
}

func StepRejected(step string) {
	stepRejections.WithLabelValues(step).Inc()
}
