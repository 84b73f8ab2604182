package sqldb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/goshop/internal/datamodels/cart"
)

type cartRepo struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepo{db: db}
}

func (r *cartRepo) Upsert(ctx context.Context, userID, productID, qty int64) (*cart.Line, error) {
	db := r.db.WithContext(ctx)
	line := cart.Line{UserID: userID, ProductID: productID, Quantity: qty}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_lines.quantity + ?", qty),
			"updated_at": time.Now(),
		}),
	}).Create(&line).Error; err != nil {
		return nil, err
	}

	var out cart.Line
	if err := db.Where("user_id = ? AND product_id = ?", userID, productID).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepo) Decrement(ctx context.Context, userID, productID, qty int64) (*cart.Line, error) {
	db := r.db.WithContext(ctx)
	var line cart.Line
	err := forUpdate(db).Where("user_id = ? AND product_id = ?", userID, productID).Take(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	remaining := line.Quantity - qty
	if remaining <= 0 {
		err = db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&cart.Line{}).Error
		return nil, err
	}
	if err := db.Model(&cart.Line{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", remaining).Error; err != nil {
		return nil, err
	}
	line.Quantity = remaining
	return &line, nil
}

func (r *cartRepo) List(ctx context.Context, userID int64) ([]*cart.Line, error) {
	var list []*cart.Line
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("product_id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepo) ListForUpdate(ctx context.Context, userID int64) ([]*cart.Line, error) {
	var list []*cart.Line
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("product_id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepo) ListDetailed(ctx context.Context, userID int64) ([]*cart.DetailedLine, error) {
	var list []*cart.DetailedLine
	if err := r.db.WithContext(ctx).
		Table("cart_lines AS c").
		Select(`c.product_id, c.quantity, p.name, p.image_url, p.price_per_unit,
			COALESCE(i.quantity, 0) AS stock,
			COALESCE(pr.average_rating, 0) AS average_rating,
			COALESCE(pr.total_reviews, 0) AS total_reviews`).
		Joins("JOIN products p ON p.id = c.product_id").
		Joins("LEFT JOIN inventory i ON i.product_id = c.product_id").
		Joins("LEFT JOIN product_ratings pr ON pr.product_id = c.product_id").
		Where("c.user_id = ?", userID).
		Order("c.product_id").
		Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepo) Clear(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&cart.Line{})
	return res.RowsAffected, res.Error
}
