package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/my-basket/internal/adapter/client"
	"github.com/rl1809/my-basket/internal/adapter/handler"
	"github.com/rl1809/my-basket/internal/adapter/storage"
	"github.com/rl1809/my-basket/internal/core/service"
	"github.com/rl1809/my-basket/internal/metrics"
	"github.com/rl1809/my-basket/internal/port"
	"github.com/rl1809/my-basket/internal/server"
	"github.com/rl1809/my-basket/pkg/config"
	"github.com/rl1809/my-basket/pkg/logger"
	"github.com/rl1809/my-basket/pkg/shutdown"
)

func main() {
	cfg := config.Load(3002, 50062)
	log := logger.New(logger.Options{Service: "cart-service", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var repo port.CartRepository
	switch cfg.CartStore {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		defer rdb.Close()

		redisRepo := storage.NewRedisCartRepository(rdb, cfg.CartTTL)
		if err := redisRepo.Ping(ctx); err != nil {
			log.WithError(err).Fatal("failed to connect redis")
		}
		log.WithField("addr", cfg.RedisAddr).Info("connected to redis")
		repo = redisRepo
	case "memory":
		repo = storage.NewMemoryCartRepository()
	default:
		log.WithField("store", cfg.CartStore).Fatal("unknown CART_STORE")
	}

	catalog := client.NewProductClient(client.Config{BaseURL: cfg.ProductServiceURL, Timeout: cfg.ClientTimeout})
	carts := service.NewCartService(repo, catalog)

	m := metrics.New("cart-service")
	router := server.NewRouter(log, m)
	handler.NewCartHandler(carts, log, m).Register(router)

	err := server.Run(ctx, server.Options{
		Name:     "cart-service",
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
