package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/rattanstore-backend/api/controllers"
	"github.com/angelmondragon/rattanstore-backend/api/middleware"
	"github.com/angelmondragon/rattanstore-backend/internal/cart"
	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	"github.com/angelmondragon/rattanstore-backend/internal/checkout"
	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
	"github.com/angelmondragon/rattanstore-backend/internal/notifications"
	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/internal/wizard"
	"github.com/angelmondragon/rattanstore-backend/pkg/config"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/rattanstore-backend/pkg/redis"
)

// RedisStore is the Redis surface the HTTP layer needs: readiness, idempotency
// records and rate-limit counters.
type RedisStore interface {
	pkgredis.IdempotencyStore
	Ping(context.Context) error
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type dbPinger interface {
	Ping(context.Context) error
}

type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbPinger
	Redis         RedisStore
	Catalog       catalog.Provider
	Carts         cart.Service
	Checkout      checkout.Service
	Orders        orders.Store
	Channel       delivery.Channel
	Wizard        *wizard.Manager
	Notifications notifications.Service
	Metrics       http.Handler
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	submitPolicy := middleware.NewRateLimitPolicy(
		"submit",
		cfg.Checkout.RateLimitWindow,
		cfg.Checkout.RateLimitIPLimit,
		cfg.Checkout.RateLimitPhoneMax,
	).TrustProxyHeaders(cfg.App.TrustProxyHeaders)
	idempotency := middleware.Idempotency(p.Redis, cfg.Checkout.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis, p.Orders))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(p.Catalog, logg))
		})

		r.Route("/cart/{sessionId}", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Carts, logg))
			r.Delete("/", controllers.CartClear(p.Carts, logg))
			r.Post("/items", controllers.CartAddItem(p.Carts, logg))
			r.Put("/items/{lineKey}", controllers.CartSetQuantity(p.Carts, logg))
			r.Delete("/items/{lineKey}", controllers.CartRemoveItem(p.Carts, logg))
		})

		r.With(
			middleware.RateLimit(submitPolicy, p.Redis, logg),
			idempotency,
		).Post("/orders/submit", controllers.SubmitOrder(p.Checkout, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminToken(cfg.Admin.Token, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(idempotency).Post("/", controllers.AdminCreateOrder(p.Orders, logg))
			r.Get("/", controllers.AdminListOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(p.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminUpdateOrderStatus(p.Orders, logg))
			r.Delete("/{orderId}", controllers.AdminDeleteOrder(p.Orders, logg))
		})
		r.Get("/stats", controllers.AdminOrderStats(p.Orders, logg))

		r.Get("/channels/discover", controllers.DiscoverChannels(p.Channel, logg))

		r.Route("/channel-wizard", func(r chi.Router) {
			r.Post("/", controllers.WizardStart(p.Wizard, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.WizardFetch(p.Wizard, logg))
				r.Delete("/", controllers.WizardDismiss(p.Wizard, logg))
				r.Post("/search", controllers.WizardSearch(p.Wizard, logg))
				r.Post("/skip", controllers.WizardEvent(p.Wizard, wizard.Skip, logg))
				r.Post("/back", controllers.WizardEvent(p.Wizard, wizard.Back, logg))
				r.Post("/proceed", controllers.WizardEvent(p.Wizard, wizard.Proceed, logg))
				r.Post("/done", controllers.WizardEvent(p.Wizard, wizard.Done, logg))
				r.Post("/select", controllers.WizardSelect(p.Wizard, logg))
				r.Post("/test", controllers.WizardTest(p.Wizard, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			r.Post("/{noticeId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
		})
	})

	return r
}
