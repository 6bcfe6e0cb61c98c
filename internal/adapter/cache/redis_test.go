package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/promo"
)

// setupTestRedis creates a miniredis server and a client pointing at it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSessionStore_RoundTripAndTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()

	var cart entity.Cart
	require.NoError(t, cart.Add(entity.LineItem{ProductID: "1", UnitPrice: decimal.RequireFromString("299.99"), Quantity: 2}))
	require.NoError(t, store.Set(ctx, "u1", "cart", cart))

	assert.True(t, mr.Exists("session:u1:cart"))
	assert.Equal(t, time.Hour, mr.TTL("session:u1:cart"))

	var got entity.Cart
	ok, err := store.Get(ctx, "u1", "cart", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "599.98", got.Subtotal().StringFixed(2))

	var other entity.Cart
	ok, err = store.Get(ctx, "u2", "cart", &other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_PromoSlotKeepsFlatAmount(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisSessionStore(client, 0)
	ctx := context.Background()

	p := promo.DefaultCatalog()[1]
	require.NoError(t, store.Set(ctx, "u1", "promo", promo.Slot{Promo: &p}))

	var slot promo.Slot
	ok, err := store.Get(ctx, "u1", "promo", &slot)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, slot.Applied())
	assert.True(t, slot.Applied().IsFlat())
	assert.Equal(t, "100", slot.Applied().DiscountAmountFlat.Decimal.String())
	assert.True(t, p.ExpiryDate.Equal(slot.Applied().ExpiryDate))
}

func TestSessionStore_Remove(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisSessionStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1", "cart", entity.Cart{}))
	require.NoError(t, store.Set(ctx, "u1", "promo", promo.Slot{}))
	require.NoError(t, store.Set(ctx, "u1", "checkout", map[string]string{"step": "ADDRESS"}))

	require.NoError(t, store.Remove(ctx, "u1", "cart", "promo"))
	assert.False(t, mr.Exists("session:u1:cart"))
	assert.False(t, mr.Exists("session:u1:promo"))
	assert.True(t, mr.Exists("session:u1:checkout"))
	require.NoError(t, store.Remove(ctx, "u1"))
}

func TestSessionStore_CorruptValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisSessionStore(client, 0)
	require.NoError(t, mr.Set("session:u1:cart", "{not json"))

	var c entity.Cart
	_, err := store.Get(context.Background(), "u1", "cart", &c)
	assert.Error(t, err)
}

func TestSessionStore_ConnectionError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSessionStore(client, 0)

	var c entity.Cart
	_, err := store.Get(context.Background(), "u1", "cart", &c)
	assert.Error(t, err)
}

func TestIdempotencyStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisIdempotencyStore(client, time.Minute)
	ctx := context.Background()

	ok, err := store.TryLock(ctx, "u1", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.TryLock(ctx, "u1", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, "u1", "k"))
	ok, err = store.TryLock(ctx, "u1", "k")
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := store.Recall(ctx, "u1", "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Remember(ctx, "u1", "k", "ORD-1"))
	v, found, err := store.Recall(ctx, "u1", "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ORD-1", v)

	mr.FastForward(2 * time.Minute)
	_, found, err = store.Recall(ctx, "u1", "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatusCache(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisStatusCache(client, time.Hour)
	ctx := context.Background()

	_, ok, err := c.GetStatus(ctx, "ORD-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetStatus(ctx, "ORD-1", entity.StatusDelivered))
	st, ok, err := c.GetStatus(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entity.StatusDelivered, st)
}

func TestStatusCache_SeedDoesNotOverwrite(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisStatusCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.SeedStatus(ctx, "ORD-1", entity.StatusConfirmed))
	assert.Equal(t, time.Hour, mr.TTL("order:status:ORD-1"))

	require.NoError(t, c.SetStatus(ctx, "ORD-1", entity.StatusDelivered))
	require.NoError(t, c.SeedStatus(ctx, "ORD-1", entity.StatusConfirmed))

	st, ok, err := c.GetStatus(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entity.StatusDelivered, st)
}
