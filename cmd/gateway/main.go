package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/gateway"
	"github.com/rl1809/my-basket/internal/metrics"
	"github.com/rl1809/my-basket/internal/middleware"
	"github.com/rl1809/my-basket/internal/server"
	"github.com/rl1809/my-basket/pkg/config"
	"github.com/rl1809/my-basket/pkg/logger"
	"github.com/rl1809/my-basket/pkg/shutdown"
)

func main() {
	cfg := config.Load(3000, 50060)
	log := logger.New(logger.Options{Service: "api-gateway", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	registry, err := gateway.LoadRegistry(cfg.GatewayServicesFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load service registry")
	}
	for _, s := range registry.Services() {
		log.WithFields(logrus.Fields{
			"service": s.Name,
			"path":    s.Path,
			"target":  s.URL,
		}).Info("route registered")
	}

	m := metrics.New("api-gateway")
	gw := gateway.New(gateway.Options{
		Name:          cfg.GatewayName,
		Version:       cfg.GatewayVersion,
		Registry:      registry,
		ProxyTimeout:  cfg.ProxyTimeout,
		HealthTimeout: cfg.HealthTimeout,
		Log:           log,
		Metrics:       m,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	limiter.StartCleanup(time.Minute, ctx.Done())

	router := mux.NewRouter()
	router.Use(
		middleware.NewCORS(cfg.CORSAllowedOrigins).Handler,
		limiter.Handler,
		middleware.Logging(log),
		middleware.Metrics(m),
		middleware.Recover(log),
	)
	gw.Register(router)

	err = server.Run(ctx, server.Options{
		Name:         "api-gateway",
		HTTPAddr:     fmt.Sprintf(":%d", cfg.HTTPPort),
		GRPCAddr:     fmt.Sprintf(":%d", cfg.GRPCPort),
		Handler:      router,
		Log:          log,
		WriteTimeout: cfg.ProxyTimeout + 5*time.Second,
	})
	if err != nil {
		log.WithError(err).Error("server error")
		os.Exit(1)
	}
	log.Info("bye")
}
