package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/my-basket/internal/adapter/client"
	"github.com/rl1809/my-basket/internal/adapter/handler"
	"github.com/rl1809/my-basket/internal/adapter/messaging"
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
	cfg := config.Load(3003, 50063)
	log := logger.New(logger.Options{Service: "order-service", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var repo port.OrderRepository
	switch cfg.OrderStore {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.WithError(err).Fatal("failed to connect mysql")
		}
		defer db.Close()
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		mysqlRepo := storage.NewMySQLOrderRepository(db)
		if err := mysqlRepo.Ping(ctx); err != nil {
			log.WithError(err).Fatal("failed to ping mysql")
		}
		if err := mysqlRepo.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("failed to migrate orders table")
		}
		log.Info("connected to mysql")
		repo = mysqlRepo
	case "memory":
		repo = storage.NewMemoryOrderRepository()
	default:
		log.WithField("store", cfg.OrderStore).Fatal("unknown ORDER_STORE")
	}

	opts := []service.OrderOption{
		service.WithOrderLogger(log),
		service.WithPermissiveTransitions(cfg.PermissiveTransitions),
	}
	if cfg.RabbitMQURL != "" {
		publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL, messaging.OrderExchange, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect rabbitmq")
		}
		defer publisher.Close()
		opts = append(opts, service.WithEventPublisher(publisher))
		log.Info("publishing order events to rabbitmq")
	}
	if cfg.PermissiveTransitions {
		log.Warn("order status transitions are unchecked")
	}

	orders := service.NewOrderService(repo, opts...)
	carts := client.NewCartClient(client.Config{BaseURL: cfg.CartServiceURL, Timeout: cfg.ClientTimeout})

	m := metrics.New("order-service")
	router := server.NewRouter(log, m)
	handler.NewOrderHandler(orders, carts, log, m).Register(router)

	err := server.Run(ctx, server.Options{
		Name:     "order-service",
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
