package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rl1809/my-basket/internal/adapter/handler"
	"github.com/rl1809/my-basket/internal/adapter/storage"
	"github.com/rl1809/my-basket/internal/core/service"
	"github.com/rl1809/my-basket/internal/metrics"
	"github.com/rl1809/my-basket/internal/server"
	"github.com/rl1809/my-basket/pkg/config"
	"github.com/rl1809/my-basket/pkg/logger"
	"github.com/rl1809/my-basket/pkg/shutdown"
)

func main() {
	cfg := config.Load(3001, 50061)
	log := logger.New(logger.Options{Service: "product-service", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	products := service.NewProductService(storage.NewMemoryProductRepository())
	catalog := service.DefaultCatalog(time.Now())
	if err := products.Seed(ctx, catalog); err != nil {
		log.WithError(err).Fatal("failed to seed catalog")
	}
	log.WithField("products", len(catalog)).Info("catalog seeded")

	m := metrics.New("product-service")
	router := server.NewRouter(log, m)
	handler.NewProductHandler(products, log).Register(router)

	err := server.Run(ctx, server.Options{
		Name:     "product-service",
		HTTPAddr: fmt.Sprintf(":%d", cfg.HTTPPort),
		GRPCAddr: fmt.Sprintf(":%d", cfg.GRPCPort),
		Handler:  router,
		Log:      log,
	})
	if err != nil {
		log.WithError(err).Error("server error")
		os.Exit(1)
	}
	log.Info("bye")
}
