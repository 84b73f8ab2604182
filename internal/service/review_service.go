package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/review"
	"github.com/example/goshop/internal/repository/sqldb"
)

const maxCommentLen = 2048

// ReviewService 商品评论。评论写入和评分汇总重算放在同一个事务里。
type ReviewService struct {
	store TxStore
	log   *zap.Logger
}

func NewReviewService(store TxStore, log *zap.Logger) *ReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{store: store, log: log.Named("review")}
}

func validateReview(rating int, comment string) (string, error) {
	if rating < review.MinRating || rating > review.MaxRating {
		return "", ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return "", fmt.Errorf("%w: comment is too long", ErrInvalidInput)
	}
	return comment, nil
}

func requireProduct(ctx context.Context, repo product.Repository, productID int64) error {
	ok, err := repo.Exists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}

// List 商品的全部评论，最新的在前
func (s *ReviewService) List(ctx context.Context, productID int64) ([]*review.Detail, error) {
	repos := s.store.Repos()
	if err := requireProduct(ctx, repos.Products, productID); err != nil {
		return nil, err
	}
	return repos.Reviews.ListByProduct(ctx, productID)
}

// Add 新增评论，已评论过返回 ErrReviewExists
func (s *ReviewService) Add(ctx context.Context, userID, productID int64, rating int, comment string) (*review.Review, error) {
	comment, err := validateReview(rating, comment)
	if err != nil {
		return nil, err
	}
	rv := &review.Review{UserID: userID, ProductID: productID, Rating: rating, Comment: comment}
	err = s.write(ctx, productID, func(r *sqldb.Repos) error {
		return r.Reviews.Create(ctx, rv)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("review added", zap.Int64("user_id", userID), zap.Int64("product_id", productID), zap.Int("rating", rating))
	return rv, nil
}

// Edit 修改自己的评论
func (s *ReviewService) Edit(ctx context.Context, userID, productID int64, rating int, comment string) error {
	comment, err := validateReview(rating, comment)
	if err != nil {
		return err
	}
	return s.write(ctx, productID, func(r *sqldb.Repos) error {
		return r.Reviews.Update(ctx, userID, productID, rating, comment)
	})
}

// Delete 删除自己的评论
func (s *ReviewService) Delete(ctx context.Context, userID, productID int64) error {
	return s.write(ctx, productID, func(r *sqldb.Repos) error {
		return r.Reviews.Delete(ctx, userID, productID)
	})
}

func (s *ReviewService) write(ctx context.Context, productID int64, fn func(r *sqldb.Repos) error) error {
	return s.store.InTx(ctx, func(r *sqldb.Repos) error {
		if err := requireProduct(ctx, r.Products, productID); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		_, err := r.Reviews.RefreshRating(ctx, productID)
		return err
	})
}
