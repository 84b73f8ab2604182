package product

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

// Product 商品，由外部商品管理维护，结算流程只读
type Product struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	Description  string          `gorm:"size:1024" json:"description"`
	ImageURL     string          `gorm:"size:512" json:"image_url"`
	CategoryID   *int64          `gorm:"index" json:"category_id"`
	PricePerUnit decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_unit"`
	CreatedAt    time.Time       `json:"-"`
	UpdatedAt    time.Time       `json:"-"`
}

// Inventory 库存
type Inventory struct {
	ProductID int64 `gorm:"primaryKey;autoIncrement:false"`
	Quantity  int64 `gorm:"not null"`
	UpdatedAt time.Time
}

func (Inventory) TableName() string { return "inventory" }

// Rating 评分汇总，每次评论增删改后在同一事务内重算
type Rating struct {
	ProductID     int64   `gorm:"primaryKey;autoIncrement:false"`
	AverageRating float64 `gorm:"not null;default:0"`
	TotalReviews  int64   `gorm:"not null;default:0"`
	OneStar       int64   `gorm:"not null;default:0"`
	TwoStars      int64   `gorm:"not null;default:0"`
	ThreeStars    int64   `gorm:"not null;default:0"`
	FourStars     int64   `gorm:"not null;default:0"`
	FiveStars     int64   `gorm:"not null;default:0"`
}

func (Rating) TableName() string { return "product_ratings" }

// Detail 商品 + 库存 + 评分，缺失的评分按 0 处理
type Detail struct {
	Product
	Stock         int64   `json:"stock"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int64   `json:"total_reviews"`
	OneStar       int64   `json:"one_star"`
	TwoStars      int64   `json:"two_stars"`
	ThreeStars    int64   `json:"three_stars"`
	FourStars     int64   `json:"four_stars"`
	FiveStars     int64   `json:"five_stars"`
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Detail, error)
	ListAll(ctx context.Context) ([]*Detail, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// PricesOf 返回当前价格，不存在的商品不会出现在结果中
	PricesOf(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)

	// 以下为后台维护接口
	Create(ctx context.Context, p *Product, stock int64) error
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error
}

// InventoryOracle 库存只读视图；Reserve 仅在开启预占库存时使用
type InventoryOracle interface {
	StockOf(ctx context.Context, productID int64) (int64, error)
	// LockStock 在当前事务内按 product_id 升序加锁读取库存，缺失的商品不出现在结果中
	LockStock(ctx context.Context, productIDs []int64) (map[int64]int64, error)
	// Reserve 条件扣减：quantity >= qty 时扣减并返回 true
	Reserve(ctx context.Context, productID, qty int64) (bool, error)
	SetStock(ctx context.Context, productID, qty int64) error
}
