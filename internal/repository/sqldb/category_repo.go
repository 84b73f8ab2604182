package sqldb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/category"
)

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) category.Repository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	var list []*category.Category
	if err := r.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	var c category.Category
	err := r.db.WithContext(ctx).Take(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, category.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) Create(ctx context.Context, c *category.Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if IsDuplicateKey(err) {
			return category.ErrExists
		}
		return err
	}
	return nil
}
