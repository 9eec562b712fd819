package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_market/internal/backend"
	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/config"
	h "github.com/fjod/go_market/internal/http"
	"github.com/fjod/go_market/internal/logger"
	"github.com/fjod/go_market/internal/poller"
	"github.com/fjod/go_market/internal/repository"
	"github.com/fjod/go_market/internal/session"
	"github.com/fjod/go_market/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locale, err := language.Parse(cfg.Locale)
	if err != nil {
		log.Fatal("invalid locale", zap.String("locale", cfg.Locale), zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	// Cart storage
	var carts *cart.Registry
	switch cfg.CartStorage {
	case config.StorageRedis:
		st := storage.NewRedisStorage(redisClient, cfg.CartTTL)
		carts = cart.NewRegistry(st, log)
		go func() {
			if err := carts.Watch(ctx, st); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("cart watch stopped", zap.Error(err))
			}
		}()
	case config.StorageMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal("mongodb connection failed", zap.Error(err))
		}
		defer db.Client().Disconnect(context.Background())
		log.Info("connected to mongodb", zap.String("db", cfg.MongoDBName))
		carts = cart.NewRegistry(storage.NewMongoStorage(db), log)
	default:
		log.Warn("carts are kept in memory and lost on restart")
		carts = cart.NewRegistry(storage.NewMemoryStorage(), log)
	}

	// Checkout attempt ledger
	repo, err := repository.NewRepository(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to open checkout ledger", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	client := backend.NewClient(backend.Config{
		BaseURL:          cfg.BackendURL,
		Timeout:          cfg.BackendTimeout,
		FailureThreshold: cfg.BreakerThreshold,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	}, log)

	sessions := checkout.NewSessions(client, repo, cfg.BillOptions(), log)
	tokens := session.NewTokenStore(redisClient, cfg.SessionTTL)

	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(log, cfg.KafkaBrokers, carts, sessions)
		defer p.Close()
		go p.Run(ctx)
		log.Info("listening for session events", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	router := h.NewRouter(h.RouterConfig{
		Tokens:             tokens,
		Cart:               h.NewCartHandler(carts, client, cfg.BillOptions(), locale, cfg.RequestTimeout, log),
		Checkout:           h.NewCheckoutHandler(carts, sessions, cfg.RequestTimeout),
		Session:            h.NewSessionHandler(tokens, client, carts, sessions, cfg.RequestTimeout, log),
		Profile:            h.NewProfileHandler(client, cfg.RequestTimeout),
		Product:            h.NewProductHandler(client, cfg.RequestTimeout),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort), zap.String("cart_storage", cfg.CartStorage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server exited")
}
