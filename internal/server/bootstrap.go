package server

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/infra/redis"
	"github.com/example/goshop/internal/repository/sqldb"
	"github.com/example/goshop/internal/service"
)

// Services HTTP 层依赖的全部服务
type Services struct {
	Users      *service.UserService
	Products   *service.ProductService
	Cart       *service.CartService
	Addresses  *service.AddressService
	Checkout   *service.CheckoutService
	Orders     *service.OrderService
	Reviews    *service.ReviewService
	Categories *service.CategoryService
}

// NewServices 基于已有的存储组装服务，cache / events 可以为 nil
func NewServices(cfg *config.Config, store service.TxStore, cache *service.OrderCache, events *service.OrderEvents, log *zap.Logger) *Services {
	return &Services{
		Users:      service.NewUserService(store, &cfg.JWT, log),
		Products:   service.NewProductService(store),
		Cart:       service.NewCartService(store),
		Addresses:  service.NewAddressService(store, log),
		Checkout:   service.NewCheckoutService(store, events, &cfg.Checkout, log),
		Orders:     service.NewOrderService(store, cache, log),
		Reviews:    service.NewReviewService(store, log),
		Categories: service.NewCategoryService(store),
	}
}

// Bootstrap 按配置初始化数据库、Redis、MQ 并组装服务，返回的 cleanup 负责释放连接
func Bootstrap(cfg *config.Config, log *zap.Logger) (*Services, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := sqldb.Open(&cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() { _ = sqldb.Close(db) })
	store := sqldb.NewStore(db, cfg.Database.Isolation)

	var cache *service.OrderCache
	if cfg.Redis.Enabled {
		client, err := redis.Init(&cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		cache = service.NewOrderCache(client, cfg.Redis.TTL)
	}

	var events *service.OrderEvents
	if cfg.RabbitMQ.Enabled {
		conn, err := mq.Dial(&cfg.RabbitMQ)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		pub, err := mq.NewPublisher(conn, cfg.RabbitMQ.Queue)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		closers = append(closers, func() { _ = pub.Close() })
		events = service.NewOrderEvents(pub, log)
	}

	log.Info("services ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("order_cache", cache != nil),
		zap.Bool("order_events", events != nil),
		zap.Bool("reserve_stock", cfg.Checkout.ReserveStock))
	return NewServices(cfg, store, cache, events, log), cleanup, nil
}
