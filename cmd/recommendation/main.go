package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rl1809/my-basket/internal/adapter/handler"
	"github.com/rl1809/my-basket/internal/core/service"
	"github.com/rl1809/my-basket/internal/metrics"
	"github.com/rl1809/my-basket/internal/server"
	"github.com/rl1809/my-basket/pkg/config"
	"github.com/rl1809/my-basket/pkg/logger"
	"github.com/rl1809/my-basket/pkg/shutdown"
)

func main() {
	cfg := config.Load(3004, 50064)
	log := logger.New(logger.Options{Service: "ai-service", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	m := metrics.New("ai-service")
	router := server.NewRouter(log, m)
	handler.NewRecommendationHandler(service.NewRecommendationService(), log).Register(router)

	err := server.Run(ctx, server.Options{
		Name:     "ai-service",
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
