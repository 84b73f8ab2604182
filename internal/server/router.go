package server

import (
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/middleware"
	"github.com/example/goshop/internal/service"
)

type registerRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type cartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type checkoutRequest struct {
	Address address.Address `json:"address"`
}

type addressesRequest struct {
	Addresses []address.Address `json:"addresses"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// RegisterRoutes 注册前台 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config, svc *Services, log *zap.Logger) {
	log = log.Named("http")
	app.Use(middleware.RequestID(log))

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		_ = ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	api.Post("/register", func(ctx iris.Context) {
		var req registerRequest
		if !readJSON(ctx, &req) {
			return
		}
		u, err := svc.Users.Register(ctx.Request().Context(), req.DisplayName, req.Email, req.Password)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, u)
	})

	api.Post("/login", func(ctx iris.Context) {
		var req loginRequest
		if !readJSON(ctx, &req) {
			return
		}
		token, u, err := svc.Users.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, iris.Map{"token": token, "user": u})
	})

	// 需要登录的接口
	authAPI := api.Party("/", middleware.RequireUser(&cfg.JWT, svc.Users))

	// 商品
	authAPI.Get("/products", func(ctx iris.Context) {
		list, err := svc.Products.List(ctx.Request().Context(), ctx.URLParam("q"))
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := svc.Products.Get(ctx.Request().Context(), id)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, p)
	})

	authAPI.Get("/categories", func(ctx iris.Context) {
		list, err := svc.Categories.List(ctx.Request().Context())
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Get("/categories/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		c, err := svc.Categories.Get(ctx.Request().Context(), id)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, c)
	})

	// 评论
	authAPI.Get("/products/{id:int64}/reviews", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		list, err := svc.Reviews.List(ctx.Request().Context(), id)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Post("/products/{id:int64}/review", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req reviewRequest
		if !readJSON(ctx, &req) {
			return
		}
		rv, err := svc.Reviews.Add(ctx.Request().Context(), middleware.UserID(ctx), id, req.Rating, req.Comment)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, rv)
	})

	authAPI.Put("/products/{id:int64}/review", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req reviewRequest
		if !readJSON(ctx, &req) {
			return
		}
		if err := svc.Reviews.Edit(ctx.Request().Context(), middleware.UserID(ctx), id, req.Rating, req.Comment); err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, nil)
	})

	authAPI.Delete("/products/{id:int64}/review", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := svc.Reviews.Delete(ctx.Request().Context(), middleware.UserID(ctx), id); err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, nil)
	})

	// 购物车
	authAPI.Get("/cart", func(ctx iris.Context) {
		list, err := svc.Cart.ListDetailed(ctx.Request().Context(), middleware.UserID(ctx))
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Post("/cart/add", func(ctx iris.Context) {
		var req cartRequest
		if !readJSON(ctx, &req) {
			return
		}
		line, err := svc.Cart.Add(ctx.Request().Context(), middleware.UserID(ctx), req.ProductID, req.Quantity)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, line)
	})

	authAPI.Post("/cart/remove", func(ctx iris.Context) {
		var req cartRequest
		if !readJSON(ctx, &req) {
			return
		}
		line, err := svc.Cart.Remove(ctx.Request().Context(), middleware.UserID(ctx), req.ProductID, req.Quantity)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, line)
	})

	authAPI.Post("/cart/clear", func(ctx iris.Context) {
		if err := svc.Cart.Clear(ctx.Request().Context(), middleware.UserID(ctx)); err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, nil)
	})

	// 结算
	authAPI.Post("/cart/checkout", middleware.CheckoutRateLimit(&cfg.Checkout), func(ctx iris.Context) {
		var req checkoutRequest
		if !readJSON(ctx, &req) {
			return
		}
		orderID, err := svc.Checkout.Checkout(ctx.Request().Context(), &service.CheckoutRequest{
			UserID:    middleware.UserID(ctx),
			Address:   req.Address,
			RequestID: middleware.GetRequestID(ctx),
		})
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, iris.Map{"order_id": orderID})
	})

	// 订单
	authAPI.Get("/orders", func(ctx iris.Context) {
		list, err := svc.Orders.ListOrders(ctx.Request().Context(), middleware.UserID(ctx))
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		s, err := svc.Orders.GetOrder(ctx.Request().Context(), id, middleware.UserID(ctx))
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, s)
	})

	// 用户设置
	authAPI.Get("/users/addresses", func(ctx iris.Context) {
		list, err := svc.Addresses.ListSaved(ctx.Request().Context(), middleware.UserID(ctx))
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Put("/users/addresses", func(ctx iris.Context) {
		var req addressesRequest
		if !readJSON(ctx, &req) {
			return
		}
		list, err := svc.Addresses.ReplaceSaved(ctx.Request().Context(), middleware.UserID(ctx), req.Addresses)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	// 结算前预检地址，与结算使用同一套匹配规则
	authAPI.Post("/users/addresses/verify", func(ctx iris.Context) {
		var req checkoutRequest
		if !readJSON(ctx, &req) {
			return
		}
		saved, err := svc.Addresses.ResolveForCheckout(ctx.Request().Context(), middleware.UserID(ctx), req.Address)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, saved)
	})

	authAPI.Post("/users/password", func(ctx iris.Context) {
		var req passwordRequest
		if !readJSON(ctx, &req) {
			return
		}
		if err := svc.Users.ChangePassword(ctx.Request().Context(), middleware.UserID(ctx), req.OldPassword, req.NewPassword); err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, nil)
	})
}
