package sqldb

import (
	"context"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/review"
)

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepository 创建评论仓储
func NewReviewRepository(db *gorm.DB) review.Repository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64) ([]*review.Detail, error) {
	var list []*review.Detail
	if err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, users.display_name AS user_display_name").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.id DESC").
		Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepo) Create(ctx context.Context, rv *review.Review) error {
	if err := r.db.WithContext(ctx).Create(rv).Error; err != nil {
		if IsDuplicateKey(err) {
			return review.ErrExists
		}
		return err
	}
	return nil
}

func (r *reviewRepo) Update(ctx context.Context, userID, productID int64, rating int, comment string) error {
	res := r.db.WithContext(ctx).
		Model(&review.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]interface{}{"rating": rating, "comment": comment})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return review.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) Delete(ctx context.Context, userID, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&review.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return review.ErrNotFound
	}
	return nil
}

// RefreshRating 按星级分组计数后整行覆盖 product_ratings，没有评论时各项归零
func (r *reviewRepo) RefreshRating(ctx context.Context, productID int64) (*product.Rating, error) {
	var rows []struct {
		Rating int
		N      int64
	}
	db := r.db.WithContext(ctx)
	if err := db.Model(&review.Review{}).
		Select("rating, COUNT(*) AS n").
		Where("product_id = ?", productID).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	rt := &product.Rating{ProductID: productID}
	var sum int64
	for _, row := range rows {
		switch row.Rating {
		case 1:
			rt.OneStar = row.N
		case 2:
			rt.TwoStars = row.N
		case 3:
			rt.ThreeStars = row.N
		case 4:
			rt.FourStars = row.N
		case 5:
			rt.FiveStars = row.N
		}
		rt.TotalReviews += row.N
		sum += int64(row.Rating) * row.N
	}
	if rt.TotalReviews > 0 {
		rt.AverageRating = math.Round(float64(sum)/float64(rt.TotalReviews)*100) / 100
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"average_rating", "total_reviews",
			"one_star", "two_stars", "three_stars", "four_stars", "five_stars",
		}),
	}).Create(rt).Error; err != nil {
		return nil, err
	}
	return rt, nil
}
