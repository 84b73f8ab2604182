package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/order"
)

// OrderService 订单查询，只返回当前用户自己的订单
type OrderService struct {
	store TxStore
	cache *OrderCache
	log   *zap.Logger
}

// NewOrderService 创建订单服务，cache 可以为 nil
func NewOrderService(store TxStore, cache *OrderCache, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{store: store, cache: cache, log: log.Named("order")}
}

// ListOrders 查询用户全部订单，按创建时间倒序
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]*order.Summary, error) {
	list, err := s.store.Repos().Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, list)
}

// GetOrder 订单不存在或不属于该用户都返回 ErrOrderNotFound
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID int64) (*order.Summary, error) {
	cached, ok, err := s.cache.Get(ctx, orderID)
	if err != nil {
		GetMonitor().RecordCacheError()
		s.log.Warn("order cache get failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
	if ok {
		if cached.UserID != userID {
			return nil, ErrOrderNotFound
		}
		return cached, nil
	}

	o, err := s.store.Repos().Orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.summarize(ctx, []*order.Order{o})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, list[0]); err != nil {
		GetMonitor().RecordCacheError()
		s.log.Warn("order cache set failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return list[0], nil
}

// ListRecent 后台查询最新的订单记录
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*order.Summary, error) {
	list, err := s.store.Repos().Orders.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, list)
}

// summarize 批量查询地址快照和明细，避免逐单查询
func (s *OrderService) summarize(ctx context.Context, list []*order.Order) ([]*order.Summary, error) {
	out := make([]*order.Summary, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	repos := s.store.Repos()
	orderIDs := make([]int64, 0, len(list))
	addrIDs := make([]int64, 0, len(list))
	for _, o := range list {
		orderIDs = append(orderIDs, o.ID)
		addrIDs = append(addrIDs, o.OrderAddressID)
	}
	items, err := repos.Orders.ListItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	addrs, err := repos.Addresses.GetOrderAddresses(ctx, addrIDs)
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		out = append(out, order.NewSummary(o, addrs[o.OrderAddressID], items[o.ID]))
	}
	return out, nil
}
