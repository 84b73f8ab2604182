package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/repository/sqldb"
	"github.com/example/goshop/internal/repository/sqldb/sqldbtest"
)

func TestCheckout_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	env.addToCart(t, env.user.ID, p.ID, 2)

	svc := NewCheckoutService(env.store, nil, nil, nil)
	orderID, err := svc.Checkout(ctx, &CheckoutRequest{UserID: env.user.ID, Address: env.home})
	require.NoError(t, err)
	assert.NotZero(t, orderID)

	summary, err := NewOrderService(env.store, nil, nil).GetOrder(ctx, orderID, env.user.ID)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, p.ID, summary.Items[0].ProductID)
	assert.EqualValues(t, 2, summary.Items[0].Quantity)
	assert.Equal(t, "9.99", summary.Items[0].PricePerUnit.StringFixed(2))
	assert.Equal(t, "19.98", summary.Total.StringFixed(2))
	assert.Equal(t, env.home, summary.Address)

	lines, err := NewCartService(env.store).List(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// 默认不扣减库存
	stock, err := env.store.Repos().Inventory.StockOf(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, stock)

	stats := GetMonitor().GetStats()["checkout"].(map[string]interface{})
	assert.EqualValues(t, 1, stats["success"])
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCheckoutService(env.store, nil, nil, nil)

	_, err := svc.Checkout(context.Background(), &CheckoutRequest{UserID: env.user.ID, Address: env.home})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCartEmpty)

	var ce *CheckoutError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindCartEmpty, ce.Kind)
	assert.Equal(t, StateOrderCreated, ce.State)

	// 订单头和地址快照已在前面步骤写入，必须随事务回滚
	assert.EqualValues(t, 0, env.count(t, "orders"))
	assert.EqualValues(t, 0, env.count(t, "order_addresses"))
}

func TestCheckout_AddressMustMatchExactly(t *testing.T) {
	env := newTestEnv(t)
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	env.addToCart(t, env.user.ID, p.ID, 1)
	svc := NewCheckoutService(env.store, nil, nil, nil)

	spoofed := env.home
	spoofed.Street = "221B Baker Street"
	_, err := svc.Checkout(context.Background(), &CheckoutRequest{UserID: env.user.ID, Address: spoofed})
	assert.ErrorIs(t, err, ErrAddressInvalid)

	incomplete := env.home
	incomplete.PostalCode = ""
	_, err = svc.Checkout(context.Background(), &CheckoutRequest{UserID: env.user.ID, Address: incomplete})
	assert.ErrorIs(t, err, ErrAddressInvalid)

	assert.EqualValues(t, 0, env.count(t, "orders"))
	assert.EqualValues(t, 0, env.count(t, "order_addresses"))
	assert.EqualValues(t, 1, env.count(t, "cart_lines"))
}

func TestCheckout_InsufficientStockIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plenty := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 50)
	scarce := sqldbtest.SeedProduct(t, env.db, "Teapot", "30.00", 5)
	env.addToCart(t, env.user.ID, plenty.ID, 1)
	env.addToCart(t, env.user.ID, scarce.ID, 6)

	svc := NewCheckoutService(env.store, nil, nil, nil)
	_, err := svc.Checkout(ctx, &CheckoutRequest{UserID: env.user.ID, Address: env.home})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotContains(t, err.Error(), "Teapot")

	assert.EqualValues(t, 0, env.count(t, "orders"))
	assert.EqualValues(t, 0, env.count(t, "order_items"))

	lines, err := NewCartService(env.store).List(ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.EqualValues(t, 6, lines[1].Quantity)
}

func TestCheckout_MissingInventoryRowIsInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	p := sqldbtest.SeedProduct(t, env.db, "Ghost", "1.00", 5)
	env.addToCart(t, env.user.ID, p.ID, 1)
	require.NoError(t, env.db.Exec("DELETE FROM inventory WHERE product_id = ?", p.ID).Error)

	svc := NewCheckoutService(env.store, nil, nil, nil)
	_, err := svc.Checkout(context.Background(), &CheckoutRequest{UserID: env.user.ID, Address: env.home})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCheckout_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	env.addToCart(t, env.user.ID, p.ID, 3)

	orderID, err := NewCheckoutService(env.store, nil, nil, nil).
		Checkout(ctx, &CheckoutRequest{UserID: env.user.ID, Address: env.home})
	require.NoError(t, err)

	require.NoError(t, NewProductService(env.store).UpdatePrice(ctx, p.ID, decimal.RequireFromString("12.00")))

	summary, err := NewOrderService(env.store, nil, nil).GetOrder(ctx, orderID, env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.99", summary.Items[0].PricePerUnit.StringFixed(2))
	assert.Equal(t, "29.97", summary.Total.StringFixed(2))
}

func TestCheckout_RollsBackWhenAnyStepFails(t *testing.T) {
	cases := []struct {
		name   string
		inject func(r *sqldb.Repos)
		state  CheckoutState
	}{
		{
			name:   "order address insert",
			inject: func(r *sqldb.Repos) { r.Addresses = addressWriteThenFail{r.Addresses} },
			state:  StateAddressVerified,
		},
		{
			name:   "order insert",
			inject: func(r *sqldb.Repos) { r.Orders = ordersWriteThenFail{Repository: r.Orders, failCreate: true} },
			state:  StateOrderAddressCreated,
		},
		{
			name:   "cart lock",
			inject: func(r *sqldb.Repos) { r.Cart = cartFail{Repository: r.Cart, failList: true} },
			state:  StateOrderCreated,
		},
		{
			name:   "items insert",
			inject: func(r *sqldb.Repos) { r.Orders = ordersWriteThenFail{Repository: r.Orders, failItems: true} },
			state:  StateItemsValidated,
		},
		{
			name:   "cart clear",
			inject: func(r *sqldb.Repos) { r.Cart = cartFail{Repository: r.Cart, failClear: true} },
			state:  StateItemsWritten,
		},
		{
			name:   "cart changed underneath",
			inject: func(r *sqldb.Repos) { r.Cart = cartFail{Repository: r.Cart, shortClear: true} },
			state:  StateItemsWritten,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			p1 := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
			p2 := sqldbtest.SeedProduct(t, env.db, "Plate", "4.50", 5)
			env.addToCart(t, env.user.ID, p1.ID, 2)
			env.addToCart(t, env.user.ID, p2.ID, 1)

			store := &faultyStore{Store: env.store, inject: tc.inject}
			svc := NewCheckoutService(store, nil, &config.CheckoutConfig{ReserveStock: true}, nil)
			_, err := svc.Checkout(ctx, &CheckoutRequest{UserID: env.user.ID, Address: env.home})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInternal)
			assert.NotContains(t, err.Error(), "connection reset")
			var ce *CheckoutError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.state, ce.State)

			assert.EqualValues(t, 0, env.count(t, "order_addresses"))
			assert.EqualValues(t, 0, env.count(t, "orders"))
			assert.EqualValues(t, 0, env.count(t, "order_items"))
			assert.EqualValues(t, 2, env.count(t, "cart_lines"))
			stock, err := env.store.Repos().Inventory.StockOf(ctx, p1.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 5, stock)
		})
	}
}

func TestCheckout_ConcurrentSameUserPlacesOneOrder(t *testing.T) {
	env := newTestEnv(t)
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 100)
	env.addToCart(t, env.user.ID, p.ID, 2)
	svc := NewCheckoutService(env.store, nil, nil, nil)

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), &CheckoutRequest{UserID: env.user.ID, Address: env.home})
		}(i)
	}
	wg.Wait()

	var ok, empty int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrCartEmpty):
			empty++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, empty)
	assert.EqualValues(t, 1, env.count(t, "orders"))
	assert.EqualValues(t, 1, env.count(t, "order_items"))
}

func TestCheckout_ReserveStockAcrossUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := sqldbtest.SeedProduct(t, env.db, "Lamp", "20.00", 3)
	other := sqldbtest.SeedUser(t, env.db, "second@example.com")
	sqldbtest.SeedAddress(t, env.db, other.ID, env.home)
	env.addToCart(t, env.user.ID, p.ID, 2)
	env.addToCart(t, other.ID, p.ID, 2)

	svc := NewCheckoutService(env.store, nil, &config.CheckoutConfig{ReserveStock: true}, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []int64{env.user.ID, other.ID} {
		wg.Add(1)
		go func(i int, uid int64) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(ctx, &CheckoutRequest{UserID: uid, Address: env.home})
		}(i, uid)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if assert.ErrorIs(t, err, ErrInsufficientStock) {
			short++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)

	stock, err := env.store.Repos().Inventory.StockOf(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stock)
}

func TestCheckout_PublishesEventAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	env.addToCart(t, env.user.ID, p.ID, 2)

	pub := &recordingPublisher{}
	svc := NewCheckoutService(env.store, NewOrderEvents(pub, nil), nil, nil)
	orderID, err := svc.Checkout(ctx, &CheckoutRequest{UserID: env.user.ID, Address: env.home, RequestID: "req-1"})
	require.NoError(t, err)

	require.Len(t, pub.bodies, 1)
	ev, err := DecodeOrderPlaced(pub.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, orderID, ev.OrderID)
	assert.Equal(t, env.user.ID, ev.UserID)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, "19.98", ev.Total.StringFixed(2))
	assert.NotEmpty(t, ev.EventID)
}

func TestCheckout_PublishesEventAfterClientDisconnect(t *testing.T) {
	env := newTestEnv(t)
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	env.addToCart(t, env.user.ID, p.ID, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &recordingPublisher{}
	store := &cancelAfterCommit{Store: env.store, cancel: cancel}
	svc := NewCheckoutService(store, NewOrderEvents(pub, nil), nil, nil)

	orderID, err := svc.Checkout(ctx, &CheckoutRequest{UserID: env.user.ID, Address: env.home})
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	require.Len(t, pub.bodies, 1)
	ev, err := DecodeOrderPlaced(pub.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, orderID, ev.OrderID)
	assert.EqualValues(t, 0, GetMonitor().MQErrors)
}

func TestCheckout_PublishFailureDoesNotFailCheckout(t *testing.T) {
	env := newTestEnv(t)
	p := sqldbtest.SeedProduct(t, env.db, "Mug", "9.99", 5)
	env.addToCart(t, env.user.ID, p.ID, 1)

	pub := &recordingPublisher{err: errInjected}
	svc := NewCheckoutService(env.store, NewOrderEvents(pub, nil), nil, nil)
	_, err := svc.Checkout(context.Background(), &CheckoutRequest{UserID: env.user.ID, Address: env.home})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.count(t, "orders"))
	assert.EqualValues(t, 1, GetMonitor().MQErrors)
}

// 失败注入用的仓储包装

type ordersWriteThenFail struct {
	order.Repository
	failCreate bool
	failItems  bool
}

func (o ordersWriteThenFail) Create(ctx context.Context, in *order.Order) error {
	if err := o.Repository.Create(ctx, in); err != nil || !o.failCreate {
		return err
	}
	return errInjected
}

func (o ordersWriteThenFail) CreateItems(ctx context.Context, items []*order.Item) error {
	if err := o.Repository.CreateItems(ctx, items); err != nil || !o.failItems {
		return err
	}
	return errInjected
}

type cartFail struct {
	cart.Repository
	failList   bool
	failClear  bool
	shortClear bool
}

func (c cartFail) ListForUpdate(ctx context.Context, userID int64) ([]*cart.Line, error) {
	if c.failList {
		return nil, errInjected
	}
	return c.Repository.ListForUpdate(ctx, userID)
}

func (c cartFail) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := c.Repository.Clear(ctx, userID)
	if err != nil {
		return n, err
	}
	switch {
	case c.failClear:
		return n, errInjected
	case c.shortClear:
		return n - 1, nil
	}
	return n, nil
}
