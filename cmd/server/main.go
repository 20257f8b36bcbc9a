package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"voice-order-service/internal/bootstrap"
	"voice-order-service/internal/catalog"
	"voice-order-service/internal/config"
	"voice-order-service/internal/controller"
	"voice-order-service/internal/logger"
	"voice-order-service/internal/metrics"
	"voice-order-service/internal/rabbit"
	"voice-order-service/internal/repository"
	"voice-order-service/internal/service"
	"voice-order-service/internal/tools"
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

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Métricas
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Stores
	orderRepo, closeOrders, err := bootstrap.OrderRepository(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeOrders(context.Background())

	carts, closeCarts, err := bootstrap.CartStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeCarts(context.Background())

	drinks, err := repository.NewFileDrinkRepository(cfg.DrinkOrdersDir)
	if err != nil {
		return err
	}

	// Servicios
	opts := []service.Option{service.WithMetrics(m), service.WithLogger(zl)}
	drinkOpts := []tools.BaristaOption{tools.WithDrinkLogger(zl)}

	ch, closeRabbit, err := bootstrap.Rabbit(cfg, zl)
	if err != nil {
		return err
	}
	defer closeRabbit(context.Background())
	if ch != nil {
		if err := rabbit.DeclareExchanges(ch); err != nil {
			return err
		}
		pub := rabbit.NewPublisher(ch)
		opts = append(opts, service.WithEvents(pub))
		drinkOpts = append(drinkOpts, tools.WithDrinkEvents(pub))
	}

	cat := catalog.Load(cfg.CatalogPath, zl)
	orderService := service.NewOrderService(orderRepo, opts...)
	cartService := service.NewCartService(cat, carts, orderService, zl)

	if ch != nil {
		if err := rabbit.SetupConsumers(ctx, ch, orderService, zl); err != nil {
			return err
		}
	}

	// Tools de voz
	registry := tools.NewRegistry(m, zl)
	registry.MustRegister(tools.GroceryTools(cartService, orderService)...)
	registry.MustRegister(tools.BaristaTools(drinks, drinkOpts...)...)

	// Handlers
	if cfg.AppEnv == "production" || cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	orderCtl := controller.NewOrderController(cartService, orderService, zl)
	router := controller.NewRouter(controller.RouterConfig{
		Orders:   orderCtl,
		Tools:    controller.NewToolController(registry, tools.NewSessions(cfg.CartTTL), orderCtl),
		Metrics:  m,
		Logger:   zl,
		AdminKey: cfg.AdminKey,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("voice order service listening", zap.String("port", cfg.Port), zap.Int("catalog_items", cat.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
