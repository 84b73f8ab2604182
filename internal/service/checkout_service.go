package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/repository/sqldb"
)

// CheckoutState 结算状态机的状态
type CheckoutState string

const (
	StateStart               CheckoutState = "Start"
	StateAddressVerified     CheckoutState = "AddressVerified"
	StateOrderAddressCreated CheckoutState = "OrderAddressCreated"
	StateOrderCreated        CheckoutState = "OrderCreated"
	StateItemsValidated      CheckoutState = "ItemsValidated"
	StateItemsWritten        CheckoutState = "ItemsWritten"
	StateCartCleared         CheckoutState = "CartCleared"
	StateCommitted           CheckoutState = "Committed"
	StateRolledBack          CheckoutState = "RolledBack"
)

const eventPublishTimeout = 5 * time.Second

// CheckoutRequest 结算请求，Address 为客户端提交的收货地址
type CheckoutRequest struct {
	UserID    int64
	Address   address.Address
	RequestID string
}

// checkoutRun 单次结算过程中在各步骤之间传递的数据
type checkoutRun struct {
	req   *CheckoutRequest
	repos *sqldb.Repos
	state CheckoutState

	saved     *address.SavedAddress
	orderAddr *address.OrderAddress
	order     *order.Order
	lines     []*cart.Line
	items     []*order.Item
}

type checkoutStep struct {
	to  CheckoutState
	run func(ctx context.Context, r *checkoutRun) error
}

// CheckoutService 购物车转订单。所有步骤在同一个事务内顺序执行，
// 任一步骤失败即整体回滚，不做补偿写入。
type CheckoutService struct {
	store        TxStore
	events       *OrderEvents
	reserveStock bool
	log          *zap.Logger
	steps        []checkoutStep
}

// NewCheckoutService 创建结算服务，events 为 nil 时不发送下单事件
func NewCheckoutService(store TxStore, events *OrderEvents, cfg *config.CheckoutConfig, log *zap.Logger) *CheckoutService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CheckoutService{
		store:  store,
		events: events,
		log:    log.Named("checkout"),
	}
	if cfg != nil {
		s.reserveStock = cfg.ReserveStock
	}
	s.steps = []checkoutStep{
		{StateAddressVerified, s.verifyAddress},
		{StateOrderAddressCreated, s.createOrderAddress},
		{StateOrderCreated, s.createOrder},
		{StateItemsValidated, s.validateItems},
		{StateItemsWritten, s.writeItems},
		{StateCartCleared, s.clearCart},
	}
	return s
}

// Checkout 执行结算，成功返回新订单 ID；失败返回 *CheckoutError
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (int64, error) {
	mon := GetMonitor()
	mon.RecordCheckoutRequest()
	log := s.log.With(zap.Int64("user_id", req.UserID), zap.String("request_id", req.RequestID))

	if err := req.Address.Validate(); err != nil {
		return 0, s.fail(log, newCheckoutError(KindAddressInvalid, StateStart, err))
	}

	run := &checkoutRun{req: req, state: StateStart}
	err := s.store.InTx(ctx, func(r *sqldb.Repos) error {
		run.repos = r
		for _, step := range s.steps {
			if err := step.run(ctx, run); err != nil {
				return asCheckoutError(err, run.state)
			}
			log.Debug("checkout transition",
				zap.String("from", string(run.state)),
				zap.String("to", string(step.to)))
			run.state = step.to
		}
		return nil
	})
	if err != nil {
		// 提交失败时 run.state 已是 CartCleared
		return 0, s.fail(log, asCheckoutError(err, run.state))
	}

	run.state = StateCommitted
	mon.RecordCheckoutSuccess()
	log.Info("checkout committed", zap.Int64("order_id", run.order.ID), zap.Int("items", len(run.items)))

	if s.events != nil {
		// 订单已提交，客户端断开不应导致事件丢失
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
		defer cancel()
		s.events.OrderPlaced(pubCtx, NewOrderPlacedEvent(run.order, run.items, req.RequestID))
	}
	return run.order.ID, nil
}

func (s *CheckoutService) fail(log *zap.Logger, ce *CheckoutError) *CheckoutError {
	GetMonitor().RecordCheckoutFailure(ce.Kind)
	fields := []zap.Field{
		zap.String("state", string(ce.State)),
		zap.String("to", string(StateRolledBack)),
		zap.Stringer("kind", ce.Kind),
	}
	if ce.Cause() != nil {
		fields = append(fields, zap.Error(ce.Cause()))
	}
	switch {
	case ce.Kind == KindInternal && sqldb.IsConflict(ce.Cause()):
		// 死锁或序列化失败，不自动重试，由调用方决定
		GetMonitor().RecordDBError()
		log.Warn("checkout aborted by lock conflict", fields...)
	case ce.Kind == KindInternal:
		GetMonitor().RecordDBError()
		log.Error("checkout rolled back", fields...)
	default:
		log.Info("checkout rejected", fields...)
	}
	return ce
}

// verifyAddress Start -> AddressVerified
func (s *CheckoutService) verifyAddress(ctx context.Context, r *checkoutRun) error {
	saved, err := resolveSavedAddress(ctx, r.repos.Addresses, r.req.UserID, r.req.Address)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) || errors.Is(err, address.ErrIncomplete) {
			return newCheckoutError(KindAddressInvalid, r.state, err)
		}
		return err
	}
	r.saved = saved
	return nil
}

// createOrderAddress AddressVerified -> OrderAddressCreated，复制字段而不是引用已保存地址
func (s *CheckoutService) createOrderAddress(ctx context.Context, r *checkoutRun) error {
	oa, err := r.repos.Addresses.CreateOrderAddress(ctx, r.req.UserID, r.saved.Address)
	if err != nil {
		return fmt.Errorf("create order address: %w", err)
	}
	r.orderAddr = oa
	return nil
}

// createOrder OrderAddressCreated -> OrderCreated
func (s *CheckoutService) createOrder(ctx context.Context, r *checkoutRun) error {
	o := &order.Order{UserID: r.req.UserID, OrderAddressID: r.orderAddr.ID}
	if err := r.repos.Orders.Create(ctx, o); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	r.order = o
	return nil
}

// validateItems OrderCreated -> ItemsValidated。
// 先锁购物车行再按 product_id 升序锁库存行，价格和库存都在本事务内读取。
func (s *CheckoutService) validateItems(ctx context.Context, r *checkoutRun) error {
	lines, err := r.repos.Cart.ListForUpdate(ctx, r.req.UserID)
	if err != nil {
		return fmt.Errorf("lock cart: %w", err)
	}
	if len(lines) == 0 {
		return newCheckoutError(KindCartEmpty, r.state, nil)
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	stock, err := r.repos.Inventory.LockStock(ctx, ids)
	if err != nil {
		return fmt.Errorf("lock inventory: %w", err)
	}
	prices, err := r.repos.Products.PricesOf(ctx, ids)
	if err != nil {
		return fmt.Errorf("read prices: %w", err)
	}

	items := make([]*order.Item, 0, len(lines))
	for _, l := range lines {
		available, hasStock := stock[l.ProductID]
		price, hasPrice := prices[l.ProductID]
		// 商品或库存记录缺失同样按库存不足处理
		if !hasStock || !hasPrice || available < l.Quantity {
			return newCheckoutError(KindInsufficientStock, r.state,
				fmt.Errorf("product %d: requested %d, available %d", l.ProductID, l.Quantity, available))
		}
		items = append(items, &order.Item{
			OrderID:      r.order.ID,
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			PricePerUnit: price,
		})
	}
	r.lines = lines
	r.items = items
	return nil
}

// writeItems ItemsValidated -> ItemsWritten
func (s *CheckoutService) writeItems(ctx context.Context, r *checkoutRun) error {
	if err := r.repos.Orders.CreateItems(ctx, r.items); err != nil {
		return fmt.Errorf("create order items: %w", err)
	}
	if !s.reserveStock {
		return nil
	}
	for _, it := range r.items {
		ok, err := r.repos.Inventory.Reserve(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			return newCheckoutError(KindInsufficientStock, r.state,
				fmt.Errorf("product %d: reserve %d failed", it.ProductID, it.Quantity))
		}
	}
	return nil
}

// clearCart ItemsWritten -> CartCleared，删除行数必须与校验过的行数一致
func (s *CheckoutService) clearCart(ctx context.Context, r *checkoutRun) error {
	n, err := r.repos.Cart.Clear(ctx, r.req.UserID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if n != int64(len(r.lines)) {
		return fmt.Errorf("cart changed during checkout: validated %d lines, deleted %d", len(r.lines), n)
	}
	return nil
}
