package service

import (
	"errors"
	"fmt"

	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/category"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/review"
	"github.com/example/goshop/internal/datamodels/user"
)

// 结算失败的四类原因，配合 errors.Is 使用
var (
	ErrAddressInvalid    = errors.New("address invalid")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInternal          = errors.New("internal error")
)

// 其余业务错误直接沿用数据模型层的定义
var (
	ErrInvalidQuantity    = cart.ErrInvalidQuantity
	ErrProductNotFound    = product.ErrNotFound
	ErrOrderNotFound      = order.ErrNotFound
	ErrUserExists         = user.ErrExists
	ErrReviewExists       = review.ErrExists
	ErrReviewNotFound     = review.ErrNotFound
	ErrCategoryExists     = category.ErrExists
	ErrCategoryNotFound   = category.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenRevoked       = errors.New("token issued before last password change")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidRating      = fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, review.MinRating, review.MaxRating)
)

// CheckoutErrorKind 结算失败类型
type CheckoutErrorKind int

const (
	KindInternal CheckoutErrorKind = iota
	KindAddressInvalid
	KindCartEmpty
	KindInsufficientStock
)

func (k CheckoutErrorKind) String() string {
	switch k {
	case KindAddressInvalid:
		return "AddressInvalid"
	case KindCartEmpty:
		return "CartEmpty"
	case KindInsufficientStock:
		return "InsufficientStock"
	default:
		return "InternalError"
	}
}

func (k CheckoutErrorKind) sentinel() error {
	switch k {
	case KindAddressInvalid:
		return ErrAddressInvalid
	case KindCartEmpty:
		return ErrCartEmpty
	case KindInsufficientStock:
		return ErrInsufficientStock
	default:
		return ErrInternal
	}
}

// CheckoutError 结算失败。Error() 只暴露失败类型，底层错误仅通过 Cause 用于日志。
type CheckoutError struct {
	Kind  CheckoutErrorKind
	State CheckoutState
	cause error
}

func newCheckoutError(kind CheckoutErrorKind, state CheckoutState, cause error) *CheckoutError {
	return &CheckoutError{Kind: kind, State: state, cause: cause}
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed: %s", e.Kind.sentinel())
}

// Unwrap 返回对应的哨兵错误，不返回底层数据库错误
func (e *CheckoutError) Unwrap() error { return e.Kind.sentinel() }

// Cause 原始错误，可能为 nil
func (e *CheckoutError) Cause() error { return e.cause }

// asCheckoutError 未分类的错误一律归为内部错误
func asCheckoutError(err error, state CheckoutState) *CheckoutError {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce
	}
	return newCheckoutError(KindInternal, state, err)
}
