package promo

import (
	"fmt"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

// Rejection classifies why a code could not be applied.
type Rejection string

const (
	RejectUnknown   Rejection = "unknown"
	RejectInactive  Rejection = "inactive"
	RejectExhausted Rejection = "usage_limit"
	RejectExpired   Rejection = "expired"
)

const (
	MsgInvalid   = "Invalid promo code"
	MsgInactive  = "This promo code is no longer active"
	MsgExhausted = "This promo code has reached its usage limit"
	MsgExpired   = "This promo code has expired"
	msgApplied   = "Promo code \"%s\" applied successfully!"
)

// Result is what Apply reports back to the shopper. Rejections are values,
// not errors.
type Result struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Reason  Rejection `json:"reason,omitempty"`
}

func rejected(r Rejection, msg string) Result {
	return Result{Message: msg, Reason: r}
}

// Slot is the per-session "applied promo" state. The zero value has no
// promo applied.
type Slot struct {
	Promo *entity.Promo `json:"promo,omitempty"`
}

func (s *Slot) Applied() *entity.Promo {
	if s == nil {
		return nil
	}
	return s.Promo
}

// Lifecycle applies and removes promos against a Slot. An applied promo
// stays applied until removed or replaced, even if it expires meanwhile.
type Lifecycle struct {
	registry *Registry
}

func NewLifecycle(r *Registry) *Lifecycle {
	return &Lifecycle{registry: r}
}

// Check runs the promo's own rules in order: existence, active, usage cap,
// expiry. The first failing rule decides the result.
func (l *Lifecycle) Check(code string) (entity.Promo, Result) {
	p, err := l.registry.FindByCode(code)
	if err != nil {
		return entity.Promo{}, rejected(RejectUnknown, MsgInvalid)
	}
	if !p.Active {
		return p, rejected(RejectInactive, MsgInactive)
	}
	if p.Exhausted() {
		return p, rejected(RejectExhausted, MsgExhausted)
	}
	if p.ExpiredAt(l.registry.Now()) {
		return p, rejected(RejectExpired, MsgExpired)
	}
	return p, Result{Success: true, Message: fmt.Sprintf(msgApplied, code)}
}

// Apply replaces whatever slot holds when code passes Check. On rejection
// the slot is left as it was.
func (l *Lifecycle) Apply(slot *Slot, code string) Result {
	p, res := l.Check(code)
	if res.Success {
		slot.Promo = &p
	}
	return res
}

func (l *Lifecycle) Remove(slot *Slot) {
	slot.Promo = nil
}

func (l *Lifecycle) Current(slot *Slot) *entity.Promo {
	return slot.Applied()
}
