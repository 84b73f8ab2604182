package service

import (
	"context"

	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/repository/sqldb"
)

// CartService 购物车增删查，每个写操作单独一个事务
type CartService struct {
	store TxStore
}

func NewCartService(store TxStore) *CartService {
	return &CartService{store: store}
}

// Add 数量累加，商品不存在返回 ErrProductNotFound
func (s *CartService) Add(ctx context.Context, userID, productID, qty int64) (*cart.Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	var line *cart.Line
	err := s.store.InTx(ctx, func(r *sqldb.Repos) error {
		ok, err := r.Products.Exists(ctx, productID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrProductNotFound
		}
		line, err = r.Cart.Upsert(ctx, userID, productID, qty)
		return err
	})
	return line, err
}

// Remove 数量扣减，最低到 0，到 0 时删除并返回 nil
func (s *CartService) Remove(ctx context.Context, userID, productID, qty int64) (*cart.Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	var line *cart.Line
	err := s.store.InTx(ctx, func(r *sqldb.Repos) error {
		var err error
		line, err = r.Cart.Decrement(ctx, userID, productID, qty)
		return err
	})
	return line, err
}

func (s *CartService) List(ctx context.Context, userID int64) ([]*cart.Line, error) {
	return s.store.Repos().Cart.List(ctx, userID)
}

// ListDetailed 仅用于展示，价格可能在结算前变化
func (s *CartService) ListDetailed(ctx context.Context, userID int64) ([]*cart.DetailedLine, error) {
	return s.store.Repos().Cart.ListDetailed(ctx, userID)
}

// Clear 清空购物车，空购物车同样返回成功
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.store.InTx(ctx, func(r *sqldb.Repos) error {
		_, err := r.Cart.Clear(ctx, userID)
		return err
	})
}
