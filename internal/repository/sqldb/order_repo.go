package sqldb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) CreateItems(ctx context.Context, items []*order.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *orderRepo) GetForUser(ctx context.Context, id, userID int64) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListItems(ctx context.Context, orderIDs []int64) (map[int64][]*order.Item, error) {
	out := make(map[int64][]*order.Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var list []*order.Item
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id, product_id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	for _, it := range list {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}
