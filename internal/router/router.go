package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sajian-pos/api/internal/cache"
	"github.com/sajian-pos/api/internal/config"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/handler"
	mw "github.com/sajian-pos/api/internal/middleware"
	"github.com/sajian-pos/api/internal/service"
	"github.com/sajian-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and branch scoping middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, c cache.Cache, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
			"https://pos.sajian.app",
			"https://kitchen.sajian.app",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
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
	authHandler.RegisterRoutes(r)

	// WebSocket routes. Staff sockets authenticate via query param; table
	// sockets are public and only receive events for their own table.
	r.Get("/ws/branches/{bid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/tables/{tid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServePublicTableWS(hub, w, r)
	})

	// Services share the queue so order and payment state changes mirror
	// into the kitchen queue.
	newQueueStore := func(db database.DBTX) service.QueueStore { return database.New(db) }
	newOrderStore := func(db database.DBTX) service.OrderStore { return database.New(db) }
	newPaymentStore := func(db database.DBTX) service.PaymentStore { return database.New(db) }

	audit := service.NewDBAudit(queries)
	queueService := service.NewQueueService(pool, queries, newQueueStore, c, hub)
	orderService := service.NewOrderService(pool, newOrderStore, queueService, hub, audit, cfg.VATInclusive)
	paymentService := service.NewPaymentService(pool, queries, newPaymentStore, queueService, hub, audit, c)
	shiftService := service.NewShiftService(queries, c, hub, audit)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Branch-scoped routes
		r.Route("/branches/{bid}", func(r chi.Router) {
			r.Use(mw.RequireBranch)

			orderHandler := handler.NewOrderHandler(orderService, queries)
			r.Route("/orders", orderHandler.RegisterRoutes)

			paymentHandler := handler.NewPaymentHandler(paymentService)
			r.Route("/payments", paymentHandler.RegisterRoutes)

			shiftHandler := handler.NewShiftHandler(shiftService)
			r.Route("/shifts", shiftHandler.RegisterRoutes)

			queueHandler := handler.NewQueueHandler(queueService)
			r.Route("/queue", queueHandler.RegisterRoutes)
		})
	})

	return r
}
