package middleware

import (
	"context"
	"strings"

	"github.com/kataras/iris/v12"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/user"
)

const userIDKey = "user_id"

// ClaimsVerifier 校验 token 对应的用户，UserService 为默认实现
type ClaimsVerifier interface {
	VerifyClaims(ctx context.Context, claims *auth.Claims) (*user.User, error)
}

// RequireUser 要求请求携带有效的 Bearer token
func RequireUser(cfg *config.JWTConfig, verifier ClaimsVerifier) iris.Handler {
	return func(ctx iris.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"code": iris.StatusUnauthorized, "msg": "missing token"})
			return
		}
		claims, err := auth.ParseToken(cfg, token)
		if err != nil {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"code": iris.StatusUnauthorized, "msg": "invalid token"})
			return
		}
		u, err := verifier.VerifyClaims(ctx.Request().Context(), claims)
		if err != nil {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"code": iris.StatusUnauthorized, "msg": "invalid token"})
			return
		}
		ctx.Values().Set(userIDKey, u.ID)
		ctx.Next()
	}
}

// UserID 当前登录用户 ID，未登录时为 0
func UserID(ctx iris.Context) int64 {
	return ctx.Values().GetInt64Default(userIDKey, 0)
}
