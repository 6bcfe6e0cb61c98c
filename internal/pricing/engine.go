// Package pricing turns a cart and an optional applied promo into an
// itemized order summary. Everything here is pure: no I/O, no clocks.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

// Default rates, in currency units.
const (
	FreeShippingThreshold    = 2500
	StandardShippingFee      = 500
	TaxRate                  = 0.08
	LoyaltyDiscountThreshold = 150
	LoyaltyDiscountRate      = 0.05
)

const places = 2

var hundred = decimal.NewFromInt(100)

// Rates parameterizes the engine. Thresholds are strict: a subtotal must be
// greater than the threshold to qualify.
type Rates struct {
	FreeShippingThreshold    decimal.Decimal
	StandardShippingFee      decimal.Decimal
	TaxRate                  decimal.Decimal
	LoyaltyDiscountThreshold decimal.Decimal
	LoyaltyDiscountRate      decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		FreeShippingThreshold:    decimal.NewFromInt(FreeShippingThreshold),
		StandardShippingFee:      decimal.NewFromInt(StandardShippingFee),
		TaxRate:                  decimal.NewFromFloat(TaxRate),
		LoyaltyDiscountThreshold: decimal.NewFromInt(LoyaltyDiscountThreshold),
		LoyaltyDiscountRate:      decimal.NewFromFloat(LoyaltyDiscountRate),
	}
}

type Engine struct {
	rates Rates
}

func NewEngine(r Rates) *Engine {
	return &Engine{rates: r}
}

var defaultEngine = NewEngine(DefaultRates())

// ComputeSummary prices cart with the default rates.
func ComputeSummary(cart entity.Cart, applied *entity.Promo) entity.OrderSummary {
	return defaultEngine.ComputeSummary(cart, applied)
}

// ComputeSummary derives the order summary. Each displayed component is
// rounded half-up to two places on its own; the total is taken from the
// exact components, floored at zero and only then rounded. Loyalty and
// promo discounts stack.
func (e *Engine) ComputeSummary(cart entity.Cart, applied *entity.Promo) entity.OrderSummary {
	subtotal := cart.Subtotal()

	shipping := e.rates.StandardShippingFee
	if subtotal.GreaterThan(e.rates.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(e.rates.TaxRate)

	loyalty := decimal.Zero
	if subtotal.GreaterThan(e.rates.LoyaltyDiscountThreshold) {
		loyalty = subtotal.Mul(e.rates.LoyaltyDiscountRate)
	}

	promo := PromoDiscount(subtotal, applied)

	total := subtotal.Add(shipping).Add(tax).Sub(loyalty).Sub(promo)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return entity.OrderSummary{
		Subtotal:        subtotal.Round(places),
		ShippingFee:     shipping.Round(places),
		EstimatedTax:    tax.Round(places),
		LoyaltyDiscount: loyalty.Round(places),
		PromoDiscount:   promo.Round(places),
		Total:           total.Round(places),
	}
}

// MinimumMet reports whether subtotal reaches the promo's minimum order
// amount. A nil promo never meets it.
func MinimumMet(subtotal decimal.Decimal, p *entity.Promo) bool {
	return p != nil && !subtotal.LessThan(p.MinOrderAmount)
}

// PromoDiscount is the unrounded discount p grants on subtotal. A promo
// below its minimum grants nothing; it is not an error.
func PromoDiscount(subtotal decimal.Decimal, p *entity.Promo) decimal.Decimal {
	if !MinimumMet(subtotal, p) {
		return decimal.Zero
	}
	if p.IsFlat() {
		return p.DiscountAmountFlat.Decimal
	}
	return subtotal.Mul(p.DiscountPercent).Div(hundred)
}
