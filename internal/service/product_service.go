package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/product"
)

type ProductService struct {
	store TxStore
}

func NewProductService(store TxStore) *ProductService {
	return &ProductService{store: store}
}

// List 商品列表，keyword 非空时按名称做大小写不敏感的包含匹配
func (s *ProductService) List(ctx context.Context, keyword string) ([]*product.Detail, error) {
	list, err := s.store.Repos().Products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return list, nil
	}
	kw := strings.ToLower(keyword)
	filtered := make([]*product.Detail, 0, len(list))
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.Name), kw) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*product.Detail, error) {
	return s.store.Repos().Products.GetByID(ctx, id)
}

// Create 后台新增商品并设置初始库存
func (s *ProductService) Create(ctx context.Context, p *product.Product, stock int64) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !p.PricePerUnit.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	if p.CategoryID != nil {
		_, err := s.store.Repos().Categories.GetByID(ctx, *p.CategoryID)
		if errors.Is(err, ErrCategoryNotFound) {
			return fmt.Errorf("%w: unknown category %d", ErrInvalidInput, *p.CategoryID)
		}
		if err != nil {
			return err
		}
	}
	p.PricePerUnit = p.PricePerUnit.Round(2)
	return s.store.Repos().Products.Create(ctx, p, stock)
}

// UpdatePrice 只影响之后的结算，已生成订单的价格快照不变
func (s *ProductService) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return s.store.Repos().Products.UpdatePrice(ctx, id, price.Round(2))
}

func (s *ProductService) SetStock(ctx context.Context, id, qty int64) error {
	if qty < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	return s.store.Repos().Inventory.SetStock(ctx, id, qty)
}
