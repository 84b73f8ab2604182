package server

import (
	"errors"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/middleware"
	"github.com/example/goshop/internal/service"
)

func ok(ctx iris.Context, data interface{}) {
	_ = ctx.JSON(iris.Map{"code": 0, "data": data})
}

func fail(ctx iris.Context, status int, msg string) {
	ctx.StopWithJSON(status, iris.Map{"code": status, "msg": msg})
}

// writeError 业务错误映射为 HTTP 状态码，未识别的错误只返回通用提示
func writeError(ctx iris.Context, log *zap.Logger, err error) {
	var ce *service.CheckoutError
	switch {
	case errors.As(err, &ce):
		switch ce.Kind {
		case service.KindAddressInvalid, service.KindCartEmpty:
			fail(ctx, iris.StatusBadRequest, ce.Error())
		case service.KindInsufficientStock:
			fail(ctx, iris.StatusConflict, ce.Error())
		default:
			fail(ctx, iris.StatusInternalServerError, ce.Error())
		}
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, address.ErrIncomplete):
		fail(ctx, iris.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, address.ErrNotFound):
		fail(ctx, iris.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrReviewExists),
		errors.Is(err, service.ErrCategoryExists):
		fail(ctx, iris.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(ctx, iris.StatusUnauthorized, err.Error())
	default:
		log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.String("path", ctx.Path()),
			zap.Error(err))
		fail(ctx, iris.StatusInternalServerError, "internal server error")
	}
}

func readJSON(ctx iris.Context, v interface{}) bool {
	if err := ctx.ReadJSON(v); err != nil {
		fail(ctx, iris.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
