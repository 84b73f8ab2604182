package server

import (
	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/middleware"
	"github.com/example/goshop/internal/service"
)

type productRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url"`
	CategoryID   *int64          `json:"category_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Stock        int64           `json:"stock"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type priceRequest struct {
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

type stockRequest struct {
	Quantity int64 `json:"quantity"`
}

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台 Web 服务分离，只应在内网暴露。
func RegisterAdminRoutes(app *iris.Application, svc *Services, log *zap.Logger) {
	log = log.Named("admin")
	app.Use(middleware.RequestID(log))

	api := app.Party("/api")

	// ---------- 监控 ----------
	api.Get("/stats", func(ctx iris.Context) {
		ok(ctx, service.GetMonitor().GetStats())
	})

	// ---------- 订单 ----------
	api.Get("/orders", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := svc.Orders.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	// ---------- 商品管理 ----------
	api.Get("/products", func(ctx iris.Context) {
		list, err := svc.Products.List(ctx.Request().Context(), ctx.URLParam("q"))
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	api.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if !readJSON(ctx, &req) {
			return
		}
		p := &product.Product{
			Name:         req.Name,
			Description:  req.Description,
			ImageURL:     req.ImageURL,
			CategoryID:   req.CategoryID,
			PricePerUnit: req.PricePerUnit,
		}
		if err := svc.Products.Create(ctx.Request().Context(), p, req.Stock); err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, p)
	})

	api.Put("/products/{id:int64}/price", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req priceRequest
		if !readJSON(ctx, &req) {
			return
		}
		if err := svc.Products.UpdatePrice(ctx.Request().Context(), id, req.PricePerUnit); err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, nil)
	})

	api.Put("/products/{id:int64}/stock", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req stockRequest
		if !readJSON(ctx, &req) {
			return
		}
		if err := svc.Products.SetStock(ctx.Request().Context(), id, req.Quantity); err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, nil)
	})

	// ---------- 分类 ----------
	api.Get("/categories", func(ctx iris.Context) {
		list, err := svc.Categories.List(ctx.Request().Context())
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, list)
	})

	api.Post("/categories", func(ctx iris.Context) {
		var req categoryRequest
		if !readJSON(ctx, &req) {
			return
		}
		c, err := svc.Categories.Create(ctx.Request().Context(), req.Name)
		if err != nil {
			writeError(ctx, log, err)
			return
		}
		ok(ctx, c)
	})
}
