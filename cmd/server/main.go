package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/komanda-kiosk/api/internal/cache"
	"github.com/komanda-kiosk/api/internal/config"
	"github.com/komanda-kiosk/api/internal/printer"
	"github.com/komanda-kiosk/api/internal/router"
	"github.com/komanda-kiosk/api/internal/secrets"
	"github.com/komanda-kiosk/api/internal/service"
	"github.com/komanda-kiosk/api/internal/store"
	"github.com/komanda-kiosk/api/internal/ws"
)

const (
	menuCacheCapacity = 512
	menuCacheTTL      = 5 * time.Minute
	diskCacheMaxAge   = 24 * time.Hour
	prefetchDelay     = 200 * time.Millisecond
)

func main() {
	// Load .env file if present (development convenience)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := store.New(pool)

	secretsKey := cfg.SecretsKey
	if secretsKey == "" {
		secretsKey = cfg.JWTSecret
		log.Println("WARNING: SECRETS_KEY not set, deriving printer key encryption from JWT_SECRET. Set a dedicated key in production!")
	}
	box, err := secrets.NewBox(secretsKey)
	if err != nil {
		log.Fatalf("Unable to initialize secrets: %v", err)
	}

	// Order event fan-out to staff dashboards.
	hub := ws.NewHub()
	go hub.Run()

	// Menu item cache: memory tier over a tenant-scoped disk tier.
	memory := cache.NewMemory(menuCacheCapacity, menuCacheTTL)
	disk := cache.NewDiskStore(cfg.CacheDir, diskCacheMaxAge)
	catalogService := service.NewCatalogService(queries)
	loader := cache.NewLoader(memory, disk, catalogService)

	prefetcher := cache.NewPrefetcher(nil, prefetchDelay)
	go prefetcher.Run(ctx)

	printNode := printer.NewPrintNodeClient(cfg.PrintNodeAPIURL)
	dispatcher := printer.NewDispatcher(queries, box, printNode, nil)

	r := router.New(cfg, queries, pool, hub, loader, prefetcher, box, dispatcher)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
