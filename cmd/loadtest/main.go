// Command loadtest hammers one user's cart and one order from many
// goroutines and checks that no update was lost.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/my-basket/internal/adapter/storage"
	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/core/service"
	"github.com/rl1809/my-basket/internal/port"
	"github.com/rl1809/my-basket/pkg/config"
)

const (
	userID        = "loadtest-user"
	productID     = "1"
	totalRequests = 200
	cancelWorkers = 50
)

func main() {
	ctx := context.Background()
	cfg := config.Load(0, 0)

	var repo port.CartRepository = storage.NewMemoryCartRepository()
	if cfg.CartStore == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()
		rdb.Del(ctx, "cart:"+userID)
		repo = storage.NewRedisCartRepository(rdb, time.Hour)
	}

	products := service.NewProductService(storage.NewMemoryProductRepository())
	if err := products.Seed(ctx, service.DefaultCatalog(time.Now())); err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}
	carts := service.NewCartService(repo, products)

	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := carts.AddToCart(ctx, userID, productID, 1); err != nil {
				failCount.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	cart, err := carts.GetCart(ctx, userID)
	if err != nil {
		log.Fatalf("failed to read cart: %v", err)
	}

	fmt.Println("========== CART LOAD TEST ==========")
	fmt.Printf("Store:            %s\n", cfg.CartStore)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Final Quantity:   %d\n", cart.TotalItems)
	fmt.Printf("Final Total:      %s\n", cart.TotalAmount.StringFixed(2))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("====================================")

	ok := true
	if cart.TotalItems != totalRequests || failCount.Load() != 0 {
		fmt.Printf("FAIL: expected quantity %d, got %d\n", totalRequests, cart.TotalItems)
		ok = false
	} else {
		fmt.Printf("PASS: all %d additions applied\n", totalRequests)
	}

	if !cancelRace(ctx) {
		ok = false
	}
	if !ok {
		os.Exit(1)
	}
}

// cancelRace cancels the same order from many goroutines; exactly one may win.
func cancelRace(ctx context.Context) bool {
	orders := service.NewOrderService(storage.NewMemoryOrderRepository())
	addr := domain.Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"}
	order, err := orders.CreateOrder(ctx, userID, domain.CreateOrderInput{
		Items: []domain.OrderItem{{
			ProductID: productID,
			Name:      "Organic Apples",
			Price:     decimal.RequireFromString("3.99"),
			Quantity:  1,
		}},
		ShippingAddress: addr,
		BillingAddress:  addr,
		PaymentMethod:   domain.PaymentMethod{Type: domain.PaymentCreditCard},
	})
	if err != nil {
		log.Fatalf("failed to create order: %v", err)
	}

	var won atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < cancelWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if o, err := orders.CancelOrder(ctx, userID, order.ID); err == nil && o != nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()

	fmt.Println("========== CANCEL RACE ==========")
	fmt.Printf("Workers:          %d\n", cancelWorkers)
	fmt.Printf("Successful:       %d\n", won.Load())
	fmt.Println("=================================")

	if won.Load() != 1 {
		fmt.Printf("FAIL: expected exactly 1 cancellation, got %d\n", won.Load())
		return false
	}
	fmt.Println("PASS: exactly 1 cancellation")
	return true
}
