package router

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/komanda-kiosk/api/internal/cache"
	"github.com/komanda-kiosk/api/internal/cart"
	"github.com/komanda-kiosk/api/internal/config"
	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/komanda-kiosk/api/internal/handler"
	mw "github.com/komanda-kiosk/api/internal/middleware"
	"github.com/komanda-kiosk/api/internal/printer"
	"github.com/komanda-kiosk/api/internal/secrets"
	"github.com/komanda-kiosk/api/internal/security"
	"github.com/komanda-kiosk/api/internal/service"
	"github.com/komanda-kiosk/api/internal/store"
	"github.com/komanda-kiosk/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// The public kiosk surface is rate limited; everything under
// /restaurants/{rid} outside the kiosk requires authentication and
// restaurant scoping.
func New(cfg *config.Config, queries *store.Queries, pool *pgxpool.Pool, hub *ws.Hub, loader *cache.Loader, prefetcher *cache.Prefetcher, box *secrets.Box, dispatcher *printer.Dispatcher) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Kiosk-Session"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	r.Route("/auth", authHandler.RegisterRoutes)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Shared service construction
	catalogService := service.NewCatalogService(queries)
	cartStore := cart.NewPGStore(queries)
	newOrderStore := func(db store.DBTX) service.OrderStore {
		return store.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore, queries, dispatcher, hub)

	// Public kiosk surface, rate limited per client IP.
	kioskLimiter := security.NewRateLimiter(120, time.Minute)
	r.Route("/restaurants/{rid}/kiosk", func(r chi.Router) {
		r.Use(mw.RateLimit(kioskLimiter))

		kioskHandler := handler.NewKioskHandler(catalogService, loader, prefetcher)
		kioskHandler.RegisterRoutes(r)

		cartHandler := handler.NewCartHandler(cartStore, loader)
		r.Route("/cart", cartHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(orderService, cartStore)
		orderHandler.RegisterKioskRoutes(r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Use(mw.RequireRestaurant)

			// Orders (all staff roles)
			orderHandler := handler.NewOrderHandler(orderService, cartStore)
			r.Route("/orders", orderHandler.RegisterStaffRoutes)

			// Menu management (admin and above)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleAdmin))

				menuHandler := handler.NewMenuAdminHandler(queries, loader)
				r.Route("/menu", menuHandler.RegisterRoutes)

				optionHandler := handler.NewOptionAdminHandler(queries, loader)
				optionHandler.RegisterRoutes(r)

				toppingHandler := handler.NewToppingAdminHandler(queries, loader)
				toppingHandler.RegisterRoutes(r)

				printerHandler := handler.NewPrinterHandler(queries, box, dispatcher)
				printerHandler.RegisterRoutes(r)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
