package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/address"
)

// ErrNotFound 订单不存在或不属于当前用户，两种情况不做区分
var ErrNotFound = errors.New("order not found")

// TimeLayout 对外输出的时间格式
const TimeLayout = time.RFC3339

// Order 订单头，结算成功时创建一次，之后不再修改
type Order struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	OrderAddressID int64     `gorm:"not null" json:"order_address_id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// Item 订单明细，PricePerUnit 为下单时的价格快照
type Item struct {
	OrderID      int64           `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ProductID    int64           `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_unit"`
}

func (Item) TableName() string { return "order_items" }

// Subtotal 单行金额
func (i *Item) Subtotal() decimal.Decimal {
	return i.PricePerUnit.Mul(decimal.NewFromInt(i.Quantity))
}

// Summary 订单详情：订单头 + 地址快照 + 明细
type Summary struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"-"`
	CreatedAt string          `json:"created_at"`
	Address   address.Address `json:"address"`
	Items     []*Item         `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// NewSummary 组装订单详情，时间统一转为 UTC RFC3339
func NewSummary(o *Order, addr *address.OrderAddress, items []*Item) *Summary {
	s := &Summary{
		ID:        o.ID,
		UserID:    o.UserID,
		CreatedAt: o.CreatedAt.UTC().Format(TimeLayout),
		Items:     items,
		Total:     decimal.Zero,
	}
	if addr != nil {
		s.Address = addr.Address
	}
	if s.Items == nil {
		s.Items = []*Item{}
	}
	for _, it := range s.Items {
		s.Total = s.Total.Add(it.Subtotal())
	}
	return s
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	CreateItems(ctx context.Context, items []*Item) error
	// GetForUser 按 (id, user_id) 查询，不属于该用户时返回 ErrNotFound
	GetForUser(ctx context.Context, id, userID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	// ListItems 批量查询多个订单的明细，按 order_id 分组
	ListItems(ctx context.Context, orderIDs []int64) (map[int64][]*Item, error)
}
