package sqldb

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/product"
)

const productDetailColumns = `products.*,
	inventory.quantity AS stock,
	COALESCE(product_ratings.average_rating, 0) AS average_rating,
	COALESCE(product_ratings.total_reviews, 0) AS total_reviews,
	COALESCE(product_ratings.one_star, 0) AS one_star,
	COALESCE(product_ratings.two_stars, 0) AS two_stars,
	COALESCE(product_ratings.three_stars, 0) AS three_stars,
	COALESCE(product_ratings.four_stars, 0) AS four_stars,
	COALESCE(product_ratings.five_stars, 0) AS five_stars`

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

// detailQuery 商品只有在有库存记录时才对外可见
func (r *productRepo) detailQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products").
		Select(productDetailColumns).
		Joins("JOIN inventory ON inventory.product_id = products.id").
		Joins("LEFT JOIN product_ratings ON product_ratings.product_id = products.id")
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Detail, error) {
	var list []*product.Detail
	if err := r.detailQuery(ctx).Where("products.id = ?", id).Limit(1).Scan(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, product.ErrNotFound
	}
	return list[0], nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Detail, error) {
	var list []*product.Detail
	if err := r.detailQuery(ctx).Order("products.id DESC").Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&product.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *productRepo) PricesOf(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Select("id", "price_per_unit").
		Where("id IN ?", ids).
		Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p.PricePerUnit
	}
	return out, nil
}

// Create 创建商品并初始化库存
func (r *productRepo) Create(ctx context.Context, p *product.Product, stock int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(&product.Inventory{ProductID: p.ID, Quantity: stock}).Error
	})
}

func (r *productRepo) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&product.Product{}).Where("id = ?", id).Update("price_per_unit", price)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}

type inventoryRepo struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存只读视图
func NewInventoryRepository(db *gorm.DB) product.InventoryOracle {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) StockOf(ctx context.Context, productID int64) (int64, error) {
	var inv product.Inventory
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, product.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return inv.Quantity, nil
}

func (r *inventoryRepo) LockStock(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var list []*product.Inventory
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("product_id IN ?", productIDs).
		Order("product_id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	for _, inv := range list {
		out[inv.ProductID] = inv.Quantity
	}
	return out, nil
}

func (r *inventoryRepo) Reserve(ctx context.Context, productID, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&product.Inventory{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *inventoryRepo) SetStock(ctx context.Context, productID, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&product.Inventory{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{"quantity": qty})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}
