package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/aq2208/storefront-checkout/internal/checkout"
	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/logging"
	"github.com/aq2208/storefront-checkout/internal/pricing"
	"github.com/aq2208/storefront-checkout/internal/promo"
)

type CheckoutConfig struct {
	// PaymentDelay simulates the payment gateway round trip.
	PaymentDelay time.Duration
	DeliveryDays int
}

type CheckoutService struct {
	store    SessionStore
	engine   *pricing.Engine
	registry *promo.Registry
	orders   OrderRepo
	idem     IdempotencyStore
	events   OrderEvents
	locks    *UserLocks
	cfg      CheckoutConfig

	now      func() time.Time
	newID    func(time.Time) string
	onPlaced func(entity.Order)
}

func NewCheckoutService(
	store SessionStore,
	engine *pricing.Engine,
	reg *promo.Registry,
	orders OrderRepo,
	idem IdempotencyStore,
	events OrderEvents,
	locks *UserLocks,
	cfg CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		store:    store,
		engine:   engine,
		registry: reg,
		orders:   orders,
		idem:     idem,
		events:   events,
		locks:    locks,
		cfg:      cfg,
		now:      time.Now,
		newID:    checkout.NewOrderID,
		onPlaced: func(entity.Order) {},
	}
}

// OnPlaced registers a hook called after every successfully stored order.
func (s *CheckoutService) OnPlaced(fn func(entity.Order)) {
	s.onPlaced = fn
}

func loadCheckout(ctx context.Context, store SessionStore, userID string) (*checkout.Session, bool, error) {
	var sess checkout.Session
	ok, err := store.Get(ctx, userID, CollectionCheckout, &sess)
	if err != nil || !ok {
		return nil, false, err
	}
	return &sess, true, nil
}

// State returns the shopper's checkout progress, or ErrNoCheckout.
func (s *CheckoutService) State(ctx context.Context, userID string) (*checkout.Session, error) {
	sess, ok, err := loadCheckout(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCheckout
	}
	return sess, nil
}

// Start opens a checkout at the address step. An existing checkout that is
// not yet placed is returned unchanged.
func (s *CheckoutService) Start(ctx context.Context, userID string) (*checkout.Session, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := loadCart(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	sess, ok, err := loadCheckout(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if ok && !sess.Step.IsTerminal() {
		return sess, nil
	}
	sess = checkout.NewSession()
	if err := s.store.Set(ctx, userID, CollectionCheckout, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// step runs fn against the stored session and saves the result. Entered
// values are saved even when fn reports a validation error.
func (s *CheckoutService) step(ctx context.Context, userID string, fn func(*checkout.Session) error) (*checkout.Session, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sess, ok, err := loadCheckout(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCheckout
	}
	stepErr := fn(sess)
	var verr *checkout.ValidationError
	if stepErr != nil && !errors.As(stepErr, &verr) {
		return nil, stepErr
	}
	if err := s.store.Set(ctx, userID, CollectionCheckout, sess); err != nil {
		return nil, err
	}
	return sess, stepErr
}

func (s *CheckoutService) SubmitAddress(ctx context.Context, userID string, a entity.Address) (*checkout.Session, error) {
	return s.step(ctx, userID, func(sess *checkout.Session) error {
		return sess.SubmitAddress(a)
	})
}

func (s *CheckoutService) SubmitPayment(ctx context.Context, userID string, m entity.PaymentMethod, card checkout.CardDetails) (*checkout.Session, error) {
	return s.step(ctx, userID, func(sess *checkout.Session) error {
		return sess.SubmitPayment(m, card)
	})
}

func (s *CheckoutService) Back(ctx context.Context, userID string) (*checkout.Session, error) {
	return s.step(ctx, userID, func(sess *checkout.Session) error {
		return sess.Back()
	})
}

type PlaceOrderInput struct {
	UserID, IdempotencyKey string
}

type PlaceOrderOutput struct {
	Order    *entity.Order
	Replayed bool
}

// PlaceOrder turns a reviewed checkout into a stored order. The order is
// written before any session state is cleared, so a failed write leaves
// the shopper at the review step with cart and promo intact.
func (s *CheckoutService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, error) {
	log := logging.FromCtx(ctx).With("user_id", in.UserID)
	stored := false

	if in.IdempotencyKey != "" {
		// Fast path: idempotency recall
		if id, ok, _ := s.idem.Recall(ctx, in.UserID, in.IdempotencyKey); ok {
			o, err := s.orders.GetByID(ctx, id)
			if err != nil {
				return PlaceOrderOutput{}, err
			}
			return PlaceOrderOutput{Order: o, Replayed: true}, nil
		}
		ok, err := s.idem.TryLock(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return PlaceOrderOutput{}, err
		}
		if !ok {
			return PlaceOrderOutput{}, ErrDuplicate
		}
		defer func() {
			if stored {
				return
			}
			if err := s.idem.Release(context.WithoutCancel(ctx), in.UserID, in.IdempotencyKey); err != nil {
				log.Warn("release idempotency key", "err", err)
			}
		}()
	}

	unlock := s.locks.Lock(in.UserID)
	defer unlock()

	sess, ok, err := loadCheckout(ctx, s.store, in.UserID)
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	if !ok {
		return PlaceOrderOutput{}, ErrNoCheckout
	}
	if sess.Step != checkout.StepReview {
		return PlaceOrderOutput{}, checkout.ErrIllegalTransition
	}
	cart, err := loadCart(ctx, s.store, in.UserID)
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	if cart.IsEmpty() {
		return PlaceOrderOutput{}, ErrEmptyCart
	}
	slot, err := loadSlot(ctx, s.store, in.UserID)
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	applied := slot.Applied()
	summary := s.engine.ComputeSummary(cart, applied)

	var promoCode string
	if pricing.MinimumMet(cart.Subtotal(), applied) {
		promoCode = applied.Code
	}

	if err := s.simulatePayment(ctx); err != nil {
		return PlaceOrderOutput{}, err
	}

	now := s.now()
	placed := sess.Clone()
	order, err := placed.Place(checkout.PlaceInput{
		OrderID:      s.newID(now),
		UserID:       in.UserID,
		Cart:         cart,
		Summary:      summary,
		PromoCode:    promoCode,
		Now:          now,
		DeliveryDays: s.cfg.DeliveryDays,
	})
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	if err := s.orders.Create(ctx, &order); err != nil {
		return PlaceOrderOutput{}, err
	}
	stored = true
	log = log.With("order_id", order.ID)

	if promoCode != "" {
		if _, err := s.registry.Redeem(promoCode); err != nil {
			log.Warn("promo redemption skipped", "code", promoCode, "err", err)
		}
	}
	if err := s.store.Remove(ctx, in.UserID, CollectionCart, CollectionPromo, CollectionCheckout); err != nil {
		log.Error("clear session after order", "err", err)
	}
	if err := s.events.PublishOrderPlaced(ctx, OrderPlacedMsg{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Total:         order.Summary.Total.StringFixed(2),
		PaymentMethod: string(order.PaymentMethod),
		PromoCode:     order.PromoCode,
		ItemCount:     cart.ItemCount(),
		PlacedAt:      order.CreatedAt,
	}); err != nil {
		log.Error("publish order placed", "err", err)
	}
	if in.IdempotencyKey != "" {
		if err := s.idem.Remember(ctx, in.UserID, in.IdempotencyKey, order.ID); err != nil {
			// the key stays locked until its TTL, so retries answer ErrDuplicate
			log.Warn("remember idempotency key", "key", in.IdempotencyKey, "err", err)
		}
	}
	s.onPlaced(order)
	log.Info("order placed", "total", order.Summary.Total.StringFixed(2), "payment_method", order.PaymentMethod)
	return PlaceOrderOutput{Order: &order}, nil
}

func (s *CheckoutService) simulatePayment(ctx context.Context) error {
	if s.cfg.PaymentDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.cfg.PaymentDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
