package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/internal/storage"
	"github.com/fjod/go_storefront/internal/toast"
	"github.com/fjod/go_storefront/internal/wishlist"
)

type Config struct {
	APIBaseURL     string
	DBPath         string
	MigrationsPath string
	RedisAddr      string
	PollInterval   time.Duration
}

func loadConfig() *Config {
	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8081"),
		DBPath:         getEnv("DB_PATH", "storefront.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/storage/migrations"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		PollInterval:   session.DefaultPollInterval,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("storefront starting...")
	cfg := loadConfig()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer store.Close()

	if err := store.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	gate := session.NewGate(store)

	client, err := api.NewClient(cfg.APIBaseURL, gate)
	if err != nil {
		log.Fatalf("failed to create api client: %v", err)
	}
	client.OnSessionExpired = func() {
		log.Println("session expired, please log in again")
	}

	// Catalog cache: redis when configured, in-process otherwise.
	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		cache = catalog.NewRedisCache(redisClient)
		log.Printf("using redis catalog cache at %s", cfg.RedisAddr)
	} else {
		cache = catalog.NewMemoryCache()
	}
	catalogService := catalog.NewService(client, cache)

	toasts := toast.NewManager(toast.DefaultTTL)
	cartService := cart.NewService(store, toasts)
	wishlistService := wishlist.NewService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := session.NewWatcher(gate, cfg.PollInterval)
	watcher.OnWarning = func(remaining int64) {
		log.Printf("session expires in %ds, consider re-logging in", remaining)
	}
	watcher.OnExpired = func() {
		log.Println("session expired")
	}
	go watcher.Run(ctx)

	cli := &cli{
		gate:     gate,
		client:   client,
		catalog:  catalogService,
		cart:     cartService,
		wishlist: wishlistService,
		toasts:   toasts,
		newCheckout: func() *checkout.Orchestrator {
			return checkout.NewOrchestrator(cartService, gate, client)
		},
	}

	done := make(chan struct{})
	go func() {
		cli.run(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	log.Println("shutting down storefront...")
	cancel()
	cartService.Flush()
	wishlistService.Flush()
}
