package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	radix "github.com/mediocregopher/radix/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goshop/internal/repository/sqldb/sqldbtest"
)

// stubRedis 内存版 Redis，只实现缓存用到的命令
func stubRedis(fail bool) (radix.Conn, map[string]string) {
	var mu sync.Mutex
	data := map[string]string{}
	conn := radix.Stub("tcp", "127.0.0.1:6379", func(args []string) interface{} {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return errors.New("ERR stub unavailable")
		}
		switch args[0] {
		case "GET":
			v, ok := data[args[1]]
			if !ok {
				return nil
			}
			return v
		case "SETEX":
			data[args[1]] = args[3]
			return "OK"
		case "DEL":
			delete(data, args[1])
			return 1
		}
		return errors.New("ERR unknown command " + args[0])
	})
	return conn, data
}

func placeOrder(t *testing.T, env *testEnv, userID, productID, qty int64) int64 {
	t.Helper()
	env.addToCart(t, userID, productID, qty)
	id, err := NewCheckoutService(env.store, nil, nil, nil).
		Checkout(context.Background(), &CheckoutRequest{UserID: userID, Address: env.home})
	require.NoError(t, err)
	return id
}

func TestOrderService_OwnershipIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	orderID := placeOrder(t, env, env.user.ID, p.ID, 1)
	stranger := sqldbtest.SeedUser(t, env.db, "stranger@example.com")

	svc := NewOrderService(env.store, nil, nil)
	_, err := svc.GetOrder(ctx, orderID, stranger.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = svc.GetOrder(ctx, orderID+1000, env.user.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	list, err := svc.ListOrders(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrderService_ListOrdersNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	first := placeOrder(t, env, env.user.ID, p.ID, 1)
	second := placeOrder(t, env, env.user.ID, p.ID, 2)

	list, err := NewOrderService(env.store, nil, nil).ListOrders(ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
	assert.Equal(t, "19.98", list[0].Total.StringFixed(2))

	_, err = time.Parse(time.RFC3339, list[0].CreatedAt)
	assert.NoError(t, err)
	assert.Contains(t, list[0].CreatedAt, "Z")

	recent, err := NewOrderService(env.store, nil, nil).ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second, recent[0].ID)
}

func TestOrderService_CacheHitKeepsOwnershipCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	orderID := placeOrder(t, env, env.user.ID, p.ID, 2)
	stranger := sqldbtest.SeedUser(t, env.db, "stranger@example.com")

	conn, data := stubRedis(false)
	svc := NewOrderService(env.store, NewOrderCache(conn, time.Minute), nil)

	got, err := svc.GetOrder(ctx, orderID, env.user.ID)
	require.NoError(t, err)
	assert.Len(t, data, 1)

	// 删掉数据库里的订单后仍能从缓存读到
	require.NoError(t, env.db.Exec("DELETE FROM order_items").Error)
	cached, err := svc.GetOrder(ctx, orderID, env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Total.String(), cached.Total.String())
	assert.Equal(t, got.Address, cached.Address)
	assert.Equal(t, env.user.ID, cached.UserID)

	_, err = svc.GetOrder(ctx, orderID, stranger.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_CacheErrorsFallBackToStore(t *testing.T) {
	env := newTestEnv(t)
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	orderID := placeOrder(t, env, env.user.ID, p.ID, 1)

	conn, _ := stubRedis(true)
	svc := NewOrderService(env.store, NewOrderCache(conn, time.Minute), nil)

	got, err := svc.GetOrder(context.Background(), orderID, env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, orderID, got.ID)
	assert.EqualValues(t, 2, GetMonitor().CacheErrors)
}

func TestOrderCache_CorruptEntryIsDropped(t *testing.T) {
	conn, data := stubRedis(false)
	data["order:summary:7"] = "{not json"
	c := NewOrderCache(conn, 0)

	s, ok, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.NotContains(t, data, "order:summary:7")
}
