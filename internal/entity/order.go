package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
)

type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "card"
	PaymentNetBanking PaymentMethod = "netbanking"
	PaymentUPI        PaymentMethod = "upi"
	PaymentWallet     PaymentMethod = "wallet"
	PaymentCOD        PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentNetBanking, PaymentUPI, PaymentWallet, PaymentCOD:
		return true
	}
	return false
}

type Address struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
}

// OrderSummary is the itemized price breakdown of a cart. It is always
// derived from a cart and the applied promo, never edited in place.
type OrderSummary struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	EstimatedTax    decimal.Decimal `json:"estimatedTax"`
	LoyaltyDiscount decimal.Decimal `json:"loyaltyDiscount"`
	PromoDiscount   decimal.Decimal `json:"promoDiscount"`
	Total           decimal.Decimal `json:"total"`
}

// Order is the immutable record written when checkout is placed.
type Order struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	Items             []LineItem    `json:"items"`
	ShippingAddress   Address       `json:"shippingAddress"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	Summary           OrderSummary  `json:"orderSummary"`
	PromoCode         string        `json:"promoCode,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	EstimatedDelivery time.Time     `json:"estimatedDelivery"`
	Status            Status        `json:"status"`
}
