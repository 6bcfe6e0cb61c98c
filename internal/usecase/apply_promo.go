package usecase

import (
	"context"

	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/logging"
	"github.com/aq2208/storefront-checkout/internal/pricing"
	"github.com/aq2208/storefront-checkout/internal/promo"
)

// PromoService manages the applied promo slot of each shopper and prices
// carts against it.
type PromoService struct {
	store     SessionStore
	registry  *promo.Registry
	lifecycle *promo.Lifecycle
	engine    *pricing.Engine
	locks     *UserLocks
	onApply   func(promo.Result)
}

func NewPromoService(store SessionStore, reg *promo.Registry, engine *pricing.Engine, locks *UserLocks) *PromoService {
	return &PromoService{
		store:     store,
		registry:  reg,
		lifecycle: promo.NewLifecycle(reg),
		engine:    engine,
		locks:     locks,
		onApply:   func(promo.Result) {},
	}
}

// OnApply registers a hook called with every apply outcome.
func (s *PromoService) OnApply(fn func(promo.Result)) {
	s.onApply = fn
}

func loadSlot(ctx context.Context, store SessionStore, userID string) (promo.Slot, error) {
	var slot promo.Slot
	if _, err := store.Get(ctx, userID, CollectionPromo, &slot); err != nil {
		return promo.Slot{}, err
	}
	return slot, nil
}

// Apply checks code and, on success, replaces the shopper's applied promo.
// A rejected code is reported in the result, not as an error.
func (s *PromoService) Apply(ctx context.Context, userID, code string) (promo.Result, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	slot, err := loadSlot(ctx, s.store, userID)
	if err != nil {
		return promo.Result{}, err
	}
	res := s.lifecycle.Apply(&slot, code)
	s.onApply(res)
	if !res.Success {
		logging.FromCtx(ctx).Info("promo rejected", "user_id", userID, "code", code, "reason", res.Reason)
		return res, nil
	}
	if err := s.store.Set(ctx, userID, CollectionPromo, slot); err != nil {
		return promo.Result{}, err
	}
	return res, nil
}

func (s *PromoService) Remove(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.store.Remove(ctx, userID, CollectionPromo)
}

func (s *PromoService) Current(ctx context.Context, userID string) (*entity.Promo, error) {
	slot, err := loadSlot(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.Current(&slot), nil
}

func (s *PromoService) Available() []entity.Promo {
	return s.registry.ListAvailable()
}

type SummaryOutput struct {
	Cart         entity.Cart         `json:"cart"`
	Summary      entity.OrderSummary `json:"summary"`
	AppliedPromo *entity.Promo       `json:"appliedPromo"`
	// PromoMinimumNotMet is set when a promo is applied but the subtotal is
	// below its minimum, so it contributes nothing.
	PromoMinimumNotMet bool `json:"promoMinimumNotMet"`
}

// Summary prices the shopper's current cart with the applied promo.
func (s *PromoService) Summary(ctx context.Context, userID string) (SummaryOutput, error) {
	cart, err := loadCart(ctx, s.store, userID)
	if err != nil {
		return SummaryOutput{}, err
	}
	slot, err := loadSlot(ctx, s.store, userID)
	if err != nil {
		return SummaryOutput{}, err
	}
	return summarize(s.engine, cart, slot.Applied()), nil
}

func summarize(engine *pricing.Engine, cart entity.Cart, applied *entity.Promo) SummaryOutput {
	return SummaryOutput{
		Cart:               cart,
		Summary:            engine.ComputeSummary(cart, applied),
		AppliedPromo:       applied,
		PromoMinimumNotMet: applied != nil && !pricing.MinimumMet(cart.Subtotal(), applied),
	}
}
