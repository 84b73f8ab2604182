package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/goshop/internal/datamodels/category"
)

type CategoryService struct {
	store TxStore
}

func NewCategoryService(store TxStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context) ([]*category.Category, error) {
	return s.store.Repos().Categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*category.Category, error) {
	return s.store.Repos().Categories.GetByID(ctx, id)
}

// Create 后台新增分类，名称唯一
func (s *CategoryService) Create(ctx context.Context, name string) (*category.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 64 {
		return nil, fmt.Errorf("%w: category name must be 1-64 characters", ErrInvalidInput)
	}
	c := &category.Category{Name: name}
	if err := s.store.Repos().Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
