package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/infra/logger"
	"github.com/example/goshop/internal/server"
	"github.com/example/goshop/internal/service"
)

// 简单 demo：写入几件商品和一个带收货地址的测试用户，用于手工走通结算流程
func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.Init(&cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	// seed 不需要缓存和事件
	cfg.Redis.Enabled = false
	cfg.RabbitMQ.Enabled = false
	svc, cleanup, err := server.Bootstrap(cfg, zl)
	if err != nil {
		zl.Fatal("bootstrap failed", zap.Error(err))
	}
	defer cleanup()
	ctx := context.Background()

	kitchen, err := svc.Categories.Create(ctx, "Kitchen")
	if errors.Is(err, service.ErrCategoryExists) {
		fmt.Println("分类已存在，跳过 seed")
		return
	}
	if err != nil {
		zl.Fatal("create category failed", zap.Error(err))
	}
	textiles, err := svc.Categories.Create(ctx, "Textiles")
	if err != nil {
		zl.Fatal("create category failed", zap.Error(err))
	}

	catalog := []struct {
		name     string
		price    string
		stock    int64
		category int64
	}{
		{"Stoneware Mug", "9.99", 50, kitchen.ID},
		{"Cast Iron Teapot", "34.50", 10, kitchen.ID},
		{"Linen Tea Towel", "6.25", 100, textiles.ID},
	}
	var firstID int64
	for _, c := range catalog {
		categoryID := c.category
		p := &product.Product{Name: c.name, PricePerUnit: decimal.RequireFromString(c.price), CategoryID: &categoryID}
		if err := svc.Products.Create(ctx, p, c.stock); err != nil {
			zl.Fatal("create product failed", zap.String("name", c.name), zap.Error(err))
		}
		fmt.Printf("商品 %-18s ID = %d，价格 = %s，库存 = %d\n", c.name, p.ID, c.price, c.stock)
		if firstID == 0 {
			firstID = p.ID
		}
	}

	u, err := svc.Users.Register(ctx, "Demo Buyer", "demo@example.com", "demo-password")
	if errors.Is(err, service.ErrUserExists) {
		fmt.Println("测试用户已存在，跳过")
		return
	}
	if err != nil {
		zl.Fatal("register demo user failed", zap.Error(err))
	}
	home := address.Address{
		Name:       "Demo Buyer",
		Street:     "1 Market Street",
		City:       "San Francisco",
		State:      "CA",
		PostalCode: "94105",
		Country:    "US",
	}
	if _, err := svc.Addresses.ReplaceSaved(ctx, u.ID, []address.Address{home}); err != nil {
		zl.Fatal("save address failed", zap.Error(err))
	}
	if _, err := svc.Reviews.Add(ctx, u.ID, firstID, 5, "Keeps tea hot."); err != nil {
		zl.Fatal("add review failed", zap.Error(err))
	}

	fmt.Printf("seed 完成，测试用户 demo@example.com / demo-password (ID = %d)\n", u.ID)
	fmt.Println("现在你可以：")
	fmt.Println("1) 启动 web 服务：go run ./cmd/web")
	fmt.Println("2) 启动事件消费：go run ./cmd/order-events")
	fmt.Println("3) 依次调用 /api/login、/api/cart/add、/api/cart/checkout、/api/orders 走通结算流程")
}
