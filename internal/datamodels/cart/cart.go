package cart

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Line 购物车条目，(user_id, product_id) 唯一；数量为 0 时行被删除
type Line struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProductID int64     `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Line) TableName() string { return "cart_lines" }

// DetailedLine 购物车展示用：联表带出当前价格、库存和评分。
// 仅用于展示，结算会在自己的事务内重新读取价格与库存。
type DetailedLine struct {
	ProductID     int64           `json:"product_id"`
	Quantity      int64           `json:"quantity"`
	Name          string          `json:"name"`
	ImageURL      string          `json:"image_url"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	Stock         int64           `json:"stock"`
	AverageRating float64         `json:"average_rating"`
	TotalReviews  int64           `json:"total_reviews"`
}

// Repository 购物车仓储接口
type Repository interface {
	// Upsert 不存在则插入，存在则 quantity += qty
	Upsert(ctx context.Context, userID, productID, qty int64) (*Line, error)
	// Decrement quantity = max(quantity - qty, 0)，结果为 0 时删除并返回 nil
	Decrement(ctx context.Context, userID, productID, qty int64) (*Line, error)
	List(ctx context.Context, userID int64) ([]*Line, error)
	// ListForUpdate 结算时加行锁读取，保证同一用户的并发结算串行化
	ListForUpdate(ctx context.Context, userID int64) ([]*Line, error)
	ListDetailed(ctx context.Context, userID int64) ([]*DetailedLine, error)
	// Clear 删除用户全部条目，返回删除行数
	Clear(ctx context.Context, userID int64) (int64, error)
}
