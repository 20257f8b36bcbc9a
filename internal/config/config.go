// config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFile   = "file"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Port           string
	AppEnv         string
	CatalogPath    string
	OrdersDir      string
	DrinkOrdersDir string

	OrderStore  string // file | mongo
	MongoURI    string
	MongoDBName string

	CartStore string // memory | redis
	RedisAddr string
	CartTTL   time.Duration

	RabbitURL string // vacío = sin mensajería
	AdminKey  string // vacío = progreso de órdenes abierto
}

func Load() (*Config, error) {
	// .env.local es opcional
	_ = godotenv.Load(".env.local")

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AppEnv:         getEnv("APP_ENV", "development"),
		CatalogPath:    getEnv("CATALOG_PATH", "data/catalog.json"),
		OrdersDir:      getEnv("ORDERS_DIR", "orders"),
		DrinkOrdersDir: getEnv("DRINK_ORDERS_DIR", "orders/drinks"),
		OrderStore:     getEnv("ORDER_STORE", StoreFile),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "voice_orders"),
		CartStore:      getEnv("CART_STORE", StoreMemory),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CartTTL:        time.Duration(getEnvAsInt("CART_TTL_MINUTES", 120)) * time.Minute,
		RabbitURL:      getEnv("RABBIT_URL", ""),
		AdminKey:       getEnv("ADMIN_KEY", ""),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is empty")
	}
	if c.OrderStore != StoreFile && c.OrderStore != StoreMongo {
		return fmt.Errorf("ORDER_STORE %q is invalid (file|mongo)", c.OrderStore)
	}
	if c.CartStore != StoreMemory && c.CartStore != StoreRedis {
		return fmt.Errorf("CART_STORE %q is invalid (memory|redis)", c.CartStore)
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_MINUTES is invalid")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
