package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/storefront-checkout/internal/checkout"
	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/logging"
	"github.com/aq2208/storefront-checkout/internal/pricing"
	"github.com/aq2208/storefront-checkout/internal/promo"
)

type checkoutFixture struct {
	store    *memStore
	orders   *memOrders
	idem     *memIdem
	events   *memEvents
	registry *promo.Registry
	cart     *CartService
	promo    *PromoService
	checkout *CheckoutService
}

func newCheckoutFixture(t *testing.T, cfg CheckoutConfig) checkoutFixture {
	t.Helper()
	store, locks := newMemStore(), NewUserLocks()
	reg := newRegistry(t)
	engine := pricing.NewEngine(pricing.DefaultRates())
	f := checkoutFixture{
		store:    store,
		orders:   newMemOrders(),
		idem:     newMemIdem(),
		events:   &memEvents{},
		registry: reg,
		cart:     NewCartService(store, newCatalog(t), locks),
		promo:    NewPromoService(store, reg, engine, locks),
	}
	f.checkout = NewCheckoutService(store, engine, reg, f.orders, f.idem, f.events, locks, cfg)
	f.checkout.now = func() time.Time { return testNow }
	seq := 0
	f.checkout.newID = func(time.Time) string {
		seq++
		return "ORD-test-" + string(rune('0'+seq))
	}
	return f
}

func address() entity.Address {
	return entity.Address{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "9876543210",
		Street: "12 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001",
	}
}

func (f checkoutFixture) toReview(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.checkout.Start(ctx, userID)
	require.NoError(t, err)
	_, err = f.checkout.SubmitAddress(ctx, userID, address())
	require.NoError(t, err)
	_, err = f.checkout.SubmitPayment(ctx, userID, entity.PaymentUPI, checkout.CardDetails{})
	require.NoError(t, err)
}

func TestCheckoutService_StartRequiresItems(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutConfig{DeliveryDays: 5})
	_, err := f.checkout.Start(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.checkout.State(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoCheckout)
}

func TestCheckoutService_ValidationFailureKeepsInput(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{DeliveryDays: 5})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	_, err = f.checkout.Start(ctx, "u1")
	require.NoError(t, err)

	a := address()
	a.Phone = ""
	sess, err := f.checkout.SubmitAddress(ctx, "u1", a)
	var verr *checkout.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, checkout.StepAddress, sess.Step)

	stored, err := f.checkout.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StepAddress, stored.Step)
	assert.Equal(t, "Asha", stored.Address.FirstName)
}

func TestCheckoutService_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{DeliveryDays: 5})
	_, err := f.cart.AddItem(ctx, "u1", "5", 2)
	require.NoError(t, err)
	res, err := f.promo.Apply(ctx, "u1", "SAVE100")
	require.NoError(t, err)
	require.True(t, res.Success)
	f.toReview(t, "u1")

	var hooked []string
	f.checkout.OnPlaced(func(o entity.Order) { hooked = append(hooked, o.ID) })

	out, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	o := out.Order

	assert.Equal(t, "ORD-test-1", o.ID)
	assert.Equal(t, entity.StatusConfirmed, o.Status)
	assert.Equal(t, entity.PaymentUPI, o.PaymentMethod)
	assert.Equal(t, "SAVE100", o.PromoCode)
	assert.Equal(t, "1532.98", o.Summary.Total.StringFixed(2))
	assert.Equal(t, testNow.AddDate(0, 0, 5), o.EstimatedDelivery)
	assert.Equal(t, "India", o.ShippingAddress.Country)

	stored, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)

	assert.False(t, f.store.has("u1", CollectionCart))
	assert.False(t, f.store.has("u1", CollectionPromo))
	assert.False(t, f.store.has("u1", CollectionCheckout))

	p, err := f.registry.FindByCode("SAVE100")
	require.NoError(t, err)
	assert.Equal(t, 121, p.CurrentUses)

	require.Len(t, f.events.msgs, 1)
	assert.Equal(t, "1532.98", f.events.msgs[0].Total)
	assert.Equal(t, 2, f.events.msgs[0].ItemCount)
	assert.Equal(t, []string{o.ID}, hooked)
}

func TestCheckoutService_InertPromoIsNotRedeemed(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	_, err = f.promo.Apply(ctx, "u1", "FIRST50")
	require.NoError(t, err)
	f.toReview(t, "u1")

	out, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, out.Order.PromoCode)

	p, _ := f.registry.FindByCode("FIRST50")
	assert.Equal(t, 48, p.CurrentUses)
}

func TestCheckoutService_PlaceRequiresReview(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})

	_, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrNoCheckout)

	_, err = f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	_, err = f.checkout.Start(ctx, "u1")
	require.NoError(t, err)
	_, err = f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	assert.ErrorIs(t, err, checkout.ErrIllegalTransition)
}

func TestCheckoutService_CartEmptiedAfterReview(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")
	require.NoError(t, f.cart.Clear(ctx, "u1"))

	_, err = f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutService_FailedSaveKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")
	f.orders.createErr = errBoom

	_, err = f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	assert.ErrorIs(t, err, errBoom)

	sess, err := f.checkout.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StepReview, sess.Step)
	assert.True(t, f.store.has("u1", CollectionCart))
	assert.Empty(t, f.events.msgs)
}

func TestCheckoutService_PublishFailureDoesNotFailOrder(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	f.events.err = errBoom
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")

	out, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Order.ID)
}

func TestCheckoutService_RememberFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithCtx(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	f := newCheckoutFixture(t, CheckoutConfig{})
	f.idem.rememberErr = errBoom
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")

	out, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.Contains(t, f.orders.byID, out.Order.ID)
	assert.Contains(t, buf.String(), "remember idempotency key")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestCheckoutService_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")

	first, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	again, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)

	assert.True(t, again.Replayed)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Len(t, f.orders.byID, 1)
}

func TestCheckoutService_InFlightDuplicate(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutConfig{})
	ok, err := f.idem.TryLock(context.Background(), "u1", "k1")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.checkout.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "u1", IdempotencyKey: "k1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCheckoutService_PaymentDelayHonoursContext(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutConfig{PaymentDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")

	cancel()
	_, err = f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.orders.byID)
}

func TestCheckoutService_BackThenForward(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")

	sess, err := f.checkout.Back(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StepPayment, sess.Step)
	assert.Equal(t, entity.PaymentUPI, sess.PaymentMethod)

	_, err = f.checkout.Back(ctx, "u1")
	require.NoError(t, err)
	_, err = f.checkout.Back(ctx, "u1")
	assert.ErrorIs(t, err, checkout.ErrIllegalTransition)
}

func TestCheckoutService_ConcurrentPlaceCreatesOneOrder(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1"})
		}()
	}
	wg.Wait()
	assert.Len(t, f.orders.byID, 1)
}

func TestCheckoutService_FailedPlaceReleasesKey(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, CheckoutConfig{})
	_, err := f.cart.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	f.toReview(t, "u1")
	f.orders.createErr = errBoom

	_, err = f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1", IdempotencyKey: "k1"})
	require.ErrorIs(t, err, errBoom)

	f.orders.createErr = nil
	out, err := f.checkout.PlaceOrder(ctx, PlaceOrderInput{UserID: "u1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.False(t, out.Replayed)
}
