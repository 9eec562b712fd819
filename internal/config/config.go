package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_market/internal/pricing"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Env                string
	LogLevel           string
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	BackendURL         string
	BackendTimeout     time.Duration
	BreakerThreshold   uint32
	BreakerOpenTimeout time.Duration

	CartStorage   string
	CartTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	MongoURI      string
	MongoDBName   string

	KafkaBrokers []string

	DBDriver       string
	DBDSN          string
	MigrationsPath string

	Locale      string
	Currency    string
	TaxPercent  decimal.Decimal
	ServiceFee  decimal.Decimal
	ShippingFee decimal.Decimal
}

// Load reads the configuration from the environment. Values in a .env file in the working
// directory are used for variables that are not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	p := &parser{}
	cfg := &Config{
		Env:                getEnv("APP_ENV", "production"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     p.duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB

		BackendURL:         strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000/api"), "/"),
		BackendTimeout:     p.duration("BACKEND_TIMEOUT", 10*time.Second),
		BreakerThreshold:   uint32(p.integer("BREAKER_THRESHOLD", 5)),
		BreakerOpenTimeout: p.duration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		CartStorage:   getEnv("CART_STORAGE", StorageRedis),
		CartTTL:       p.duration("CART_TTL", 30*24*time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    p.duration("SESSION_TTL", 12*time.Hour),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "storefront"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),

		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBDSN:          getEnv("DB_DSN", "storefront.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/repository/migrations"),

		Locale:      getEnv("LOCALE", "en-US"),
		Currency:    getEnv("CURRENCY", "USD"),
		TaxPercent:  p.decimal("TAX_PERCENT", "8"),
		ServiceFee:  p.decimal("SERVICE_FEE", "0"),
		ShippingFee: p.decimal("SHIPPING_FEE", "0"),
	}
	if p.err != nil {
		return nil, p.err
	}

	switch cfg.CartStorage {
	case StorageRedis, StorageMongo, StorageMemory:
	default:
		return nil, fmt.Errorf("CART_STORAGE: unknown storage %q", cfg.CartStorage)
	}
	return cfg, nil
}

// BillOptions are the store-wide charges used to price a checkout.
func (c *Config) BillOptions() pricing.BillOptions {
	opts := pricing.BillOptions{
		Currency:   c.Currency,
		TaxPercent: c.TaxPercent,
		Shipping:   c.ShippingFee,
		Places:     pricing.DefaultPlaces,
	}
	if c.ServiceFee.IsPositive() {
		opts.Fees = append(opts.Fees, pricing.Fee{Description: "Service fee", Amount: c.ServiceFee})
	}
	return opts
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: invalid value %q: %w", key, value, err)
	}
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err == nil && n < 0 {
		err = errors.New("must not be negative")
	}
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) decimal(key, def string) decimal.Decimal {
	v := getEnv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(key, v, err)
		return decimal.Zero
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
