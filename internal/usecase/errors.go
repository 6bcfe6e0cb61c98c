package usecase

import "errors"

var (
	ErrDuplicate     = errors.New("duplicate idempotency key")
	ErrEmptyCart     = errors.New("cart is empty, nothing to checkout")
	ErrOrderNotFound = errors.New("order not found")
	ErrNoCheckout    = errors.New("no checkout in progress")
)
