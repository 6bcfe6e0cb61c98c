// Package checkout is the step machine a shopper walks through to turn a
// cart into an order: address, payment, review, placed.
package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

var ErrIllegalTransition = errors.New("illegal transition of checkout step")

const DefaultCountry = "India"

// Session is one shopper's progress through checkout. Field values entered
// at earlier steps survive moving back and forth, except the card number
// and CVV, which are never kept.
type Session struct {
	Step          Step                 `json:"step"`
	Address       entity.Address       `json:"address"`
	PaymentMethod entity.PaymentMethod `json:"paymentMethod"`
	Card          CardDetails          `json:"card"`
	CardLast4     string               `json:"cardLast4,omitempty"`
	OrderID       string               `json:"orderId,omitempty"`
}

func NewSession() *Session {
	return &Session{Step: StepAddress, PaymentMethod: entity.PaymentCard}
}

func (s *Session) Clone() *Session {
	c := *s
	return &c
}

func (s *Session) require(step Step) error {
	if s.Step != step {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.Step, next[step])
	}
	return nil
}

// SubmitAddress records a and moves on to payment selection. The address is
// kept even when it fails validation so the shopper can correct it.
func (s *Session) SubmitAddress(a entity.Address) error {
	if err := s.require(StepAddress); err != nil {
		return err
	}
	s.Address = a
	if bad := ValidateAddress(a); len(bad) > 0 {
		return &ValidationError{Step: StepAddress, Fields: bad}
	}
	if blank(s.Address.Country) {
		s.Address.Country = DefaultCountry
	}
	s.Step = StepPayment
	return nil
}

// SubmitPayment records the method and card, then moves on to review.
// Card details are only checked for card payments.
func (s *Session) SubmitPayment(m entity.PaymentMethod, card CardDetails) error {
	if err := s.require(StepPayment); err != nil {
		return err
	}
	bad := ValidatePayment(m, card)

	s.PaymentMethod = m
	s.Card = card.withoutSecrets()
	s.CardLast4 = ""
	if m == entity.PaymentCard && len(bad) == 0 {
		s.CardLast4 = card.Last4()
	}
	if len(bad) > 0 {
		return &ValidationError{Step: StepPayment, Fields: bad}
	}
	s.Step = StepReview
	return nil
}

// Back returns to the previous step. It is refused at the first step and
// once the order is placed.
func (s *Session) Back() error {
	to, ok := prev[s.Step]
	if !ok {
		return fmt.Errorf("%w: cannot go back from %s", ErrIllegalTransition, s.Step)
	}
	s.Step = to
	return nil
}

type PlaceInput struct {
	OrderID      string
	UserID       string
	Cart         entity.Cart
	Summary      entity.OrderSummary
	PromoCode    string
	Now          time.Time
	DeliveryDays int
}

// Place snapshots everything gathered so far into a confirmed order and
// marks the session placed. Persisting the order and clearing the cart are
// left to the caller.
func (s *Session) Place(in PlaceInput) (entity.Order, error) {
	if err := s.require(StepReview); err != nil {
		return entity.Order{}, err
	}
	if in.OrderID == "" {
		return entity.Order{}, errors.New("checkout: order id is required")
	}
	created := in.Now.UTC()
	o := entity.Order{
		ID:                in.OrderID,
		UserID:            in.UserID,
		Items:             in.Cart.Clone().Items,
		ShippingAddress:   s.Address,
		PaymentMethod:     s.PaymentMethod,
		Summary:           in.Summary,
		PromoCode:         in.PromoCode,
		CreatedAt:         created,
		EstimatedDelivery: created.AddDate(0, 0, in.DeliveryDays),
		Status:            entity.StatusConfirmed,
	}
	s.Step = StepPlaced
	s.OrderID = o.ID
	return o, nil
}

// NewOrderID builds ids of the form ORD-<unix millis>-<8 hex>.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
