// Command progress avanza un paso todas las órdenes guardadas. Sirve para
// simular el avance de las entregas en demos.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"voice-order-service/internal/bootstrap"
	"voice-order-service/internal/config"
	"voice-order-service/internal/logger"
	"voice-order-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()
	repo, closeRepo, err := bootstrap.OrderRepository(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("opening order store", zap.Error(err))
	}
	defer closeRepo(ctx)

	results, err := service.NewOrderService(repo, service.WithLogger(zl)).AdvanceAll(ctx)
	if err != nil {
		zl.Fatal("listing orders", zap.Error(err))
	}
	if len(results) == 0 {
		fmt.Println("No orders found")
		return
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("Failed %s: %v\n", r.OrderID, r.Err)
			continue
		}
		fmt.Printf("Updated %s -> %s\n", r.OrderID, r.NewStatus)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
