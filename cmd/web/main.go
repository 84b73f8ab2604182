package main

import (
	"flag"
	"log"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/logger"
	"github.com/example/goshop/internal/server"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，留空时只使用默认值和 GOSHOP_ 环境变量")
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

	svc, cleanup, err := server.Bootstrap(cfg, zl)
	if err != nil {
		zl.Fatal("bootstrap failed", zap.Error(err))
	}
	defer cleanup()

	app := iris.New()
	server.RegisterRoutes(app, cfg, svc, zl)

	addr := cfg.Server.Addr()
	zl.Info("web server listening", zap.String("addr", addr))
	if err := app.Run(iris.Addr(addr), iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		zl.Error("web server stopped", zap.Error(err))
	}
}
