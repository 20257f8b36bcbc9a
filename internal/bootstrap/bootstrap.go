// Package bootstrap abre las dependencias externas según la config. Lo
// comparten los binarios de cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"voice-order-service/internal/cart"
	"voice-order-service/internal/config"
	"voice-order-service/internal/repository"
	"voice-order-service/internal/service"
)

// CloseFunc libera lo abierto por un constructor de este paquete.
type CloseFunc func(ctx context.Context) error

func noop(context.Context) error { return nil }

// OrderRepository devuelve el store de órdenes configurado (archivos o Mongo).
func OrderRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.OrderRepository, CloseFunc, error) {
	if cfg.OrderStore != config.StoreMongo {
		repo, err := repository.NewFileOrderRepository(cfg.OrdersDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("order store ready", zap.String("kind", config.StoreFile), zap.String("dir", cfg.OrdersDir))
		return repo, noop, nil
	}

	// Conexión a MongoDB
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetRegistry(repository.NewBSONRegistry()))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("pinging mongo: %w", err)
	}

	repo := repository.NewMongoOrderRepository(client.Database(cfg.MongoDBName))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("creating order indexes: %w", err)
	}
	log.Info("order store ready", zap.String("kind", config.StoreMongo), zap.String("db", cfg.MongoDBName))
	return repo, client.Disconnect, nil
}

// CartStore devuelve el store de carritos configurado (memoria o Redis).
func CartStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (cart.Store, CloseFunc, error) {
	if cfg.CartStore != config.StoreRedis {
		log.Info("cart store ready", zap.String("kind", config.StoreMemory))
		return cart.NewMemoryStore(cart.WithMemoryTTL(cfg.CartTTL)), noop, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("pinging redis: %w", err)
	}
	log.Info("cart store ready", zap.String("kind", config.StoreRedis), zap.String("addr", cfg.RedisAddr))
	return cart.NewRedisStore(client, cart.WithTTL(cfg.CartTTL)),
		func(context.Context) error { return client.Close() },
		nil
}

// Rabbit abre conexión y canal con los exchanges declarados. Con RabbitURL
// vacía devuelve nil sin error: el servicio funciona sin mensajería.
func Rabbit(cfg *config.Config, log *zap.Logger) (*amqp091.Channel, CloseFunc, error) {
	if cfg.RabbitURL == "" {
		log.Info("messaging disabled")
		return nil, noop, nil
	}

	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	return ch, func(context.Context) error {
		_ = ch.Close()
		return conn.Close()
	}, nil
}
