package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/logger"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/service"
)

// 消费下单成功事件。目前只记录日志，通知、履约等下游在这里接入。
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

	conn, err := mq.Dial(&cfg.RabbitMQ)
	if err != nil {
		zl.Fatal("dial rabbitmq", zap.Error(err))
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl.Info("order event consumer started", zap.String("queue", cfg.RabbitMQ.Queue))
	err = mq.Consume(ctx, conn, cfg.RabbitMQ.Queue, zl, func(ctx context.Context, body []byte) error {
		ev, err := service.DecodeOrderPlaced(body)
		if err != nil {
			service.GetMonitor().RecordEventConsumed(false)
			return err
		}
		service.GetMonitor().RecordEventConsumed(true)
		zl.Info("order placed",
			zap.String("event_id", ev.EventID),
			zap.Int64("order_id", ev.OrderID),
			zap.Int64("user_id", ev.UserID),
			zap.Int("items", len(ev.Items)),
			zap.String("total", ev.Total.StringFixed(2)),
			zap.String("request_id", ev.RequestID))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("consumer stopped", zap.Error(err))
	}
}
