package middleware

import (
	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID 透传或生成请求 ID，并记录访问日志
func RequestID(log *zap.Logger) iris.Handler {
	return func(ctx iris.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Values().Set(requestIDKey, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()

		log.Info("http request",
			zap.String("request_id", id),
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", ctx.GetStatusCode()),
		)
	}
}

// GetRequestID 读取当前请求 ID
func GetRequestID(ctx iris.Context) string {
	return ctx.Values().GetString(requestIDKey)
}
