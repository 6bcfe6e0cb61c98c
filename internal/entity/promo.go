package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promo is a redeemable discount definition. When DiscountAmountFlat is set
// the promo deducts that fixed amount and DiscountPercent is ignored.
type Promo struct {
	Code               string              `json:"code"`
	DiscountPercent    decimal.Decimal     `json:"discountPercent"`
	DiscountAmountFlat decimal.NullDecimal `json:"discountAmountFlat"`
	MinOrderAmount     decimal.Decimal     `json:"minOrderAmount"`
	MaxUses            int                 `json:"maxUses"`
	CurrentUses        int                 `json:"currentUses"`
	ExpiryDate         time.Time           `json:"expiryDate"`
	Active             bool                `json:"active"`
	Description        string              `json:"description"`
}

func (p Promo) IsFlat() bool {
	return p.DiscountAmountFlat.Valid
}

func (p Promo) Exhausted() bool {
	return p.CurrentUses >= p.MaxUses
}

func (p Promo) ExpiredAt(now time.Time) bool {
	return p.ExpiryDate.Before(now)
}
