package repository

import (
	"context"
	"testing"

	"tableside/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisOrderStore(t *testing.T) {
	client := newTestRedis(t)
	logger := zerolog.Nop()
	store := NewRedisOrderStore(client, &logger)
	ctx := context.Background()

	t.Run("MissingKeyLoadsEmpty", func(t *testing.T) {
		orders, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		o := models.NewOrder("R1")
		o.AddItem("Burger", "dishes")
		o.AddItem("Burger", "dishes")

		require.NoError(t, store.SaveAll(ctx, []models.Order{*o}))

		loaded, err := store.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "R1", loaded[0].ID)
		assert.Equal(t, 2, loaded[0].Lines[0].Quantity)
	})

	t.Run("CorruptPayloadLoadsEmpty", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, models.KeyOrders, "{broken", 0).Err())

		orders, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("WrongShapePayloadLoadsEmpty", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, models.KeyOrders, `[{"id":"R1","lines":[]},5]`, 0).Err())

		orders, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestRedisMenuItemStore(t *testing.T) {
	client := newTestRedis(t)
	logger := zerolog.Nop()
	store := NewRedisMenuItemStore(client, &logger)
	ctx := context.Background()

	items := []models.MenuItem{{Category: "drinks", Name: "Water"}}
	require.NoError(t, store.SaveAll(ctx, items))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, loaded)
}

func TestRedisStoreNilClient(t *testing.T) {
	logger := zerolog.Nop()
	store := NewRedisOrderStore(nil, &logger)

	_, err := store.LoadAll(context.Background())
	assert.Error(t, err)

	err = store.SaveAll(context.Background(), nil)
	assert.Error(t, err)
}
