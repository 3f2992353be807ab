package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/refunds"
	"github.com/angelmondragon/storefront-backend/internal/reports"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	rateLimiter redis.RateLimiter,
	metricsHandler http.Handler,
	productService products.Service,
	cartService cart.Service,
	ordersService orders.Service,
	refundsService refunds.Service,
	reportsService reports.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisP,
		}))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Eventing.RequestIdempotencyTTL, logg))

		r.Get("/order-statuses", controllers.OrderStatuses())
		r.Get("/products/{productId}", controllers.GetProduct(productService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.With(middleware.RateLimit(checkoutPolicy, rateLimiter, logg)).Post("/", controllers.OrderCreate(ordersService, logg))
			r.Post("/{orderIdentifier}/cancel", controllers.OrderCancel(ordersService, logg))
			r.Get("/{orderIdentifier}/invoice", controllers.OrderInvoice(reportsService, logg))
		})

		r.Route("/refunds", func(r chi.Router) {
			r.Get("/", controllers.RefundsList(refundsService, logg))
			r.Post("/{orderIdentifier}", controllers.RefundRequest(refundsService, logg))
		})

		r.Get("/notifications", controllers.ListNotifications(notificationsService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

			r.Post("/products", controllers.AdminCreateProduct(productService, logg))
			r.Put("/products/{productId}", controllers.AdminUpdateProduct(productService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(ordersService, logg))
				r.Get("/search", controllers.AdminOrderSearch(ordersService, logg))
				r.Get("/filter", controllers.AdminOrdersFilter(ordersService, logg))
				r.Get("/export", controllers.AdminOrdersExport(reportsService, logg))
				r.Patch("/{orderIdentifier}/status", controllers.AdminOrderUpdateStatus(ordersService, logg))
			})

			r.Route("/refunds", func(r chi.Router) {
				r.Get("/", controllers.AdminRefundsList(refundsService, logg))
				r.Post("/{refundId}/approve", controllers.AdminRefundApprove(refundsService, logg))
				r.Post("/{refundId}/reject", controllers.AdminRefundReject(refundsService, logg))
			})
		})
	})

	return r
}
