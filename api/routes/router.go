package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pickupz-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/pickupz-backend/api/controllers/analytics"
	ordercontrollers "github.com/angelmondragon/pickupz-backend/api/controllers/orders"
	"github.com/angelmondragon/pickupz-backend/api/middleware"
	"github.com/angelmondragon/pickupz-backend/internal/analytics"
	"github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/internal/stores"
	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/angelmondragon/pickupz-backend/pkg/enums"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
	"github.com/angelmondragon/pickupz-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/pickupz-backend/pkg/redis"
)

// RedisStore is the subset of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	gatherer prometheus.Gatherer,
	storeService stores.Service,
	ordersService orders.Service,
	analyticsService analytics.Service,
	pricingRules pricing.Rules,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// nil interfaces keep the idempotency and rate limit middleware disabled
	var idempotencyStore pkgredis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisStore != nil {
		idempotencyStore = redisStore
		limiterStore = redisStore
		readiness["redis"] = redisStore
	}

	verifyPolicy := middleware.NewRateLimitPolicy(
		"verify_pickup",
		cfg.RateLimit.VerifyWindow,
		cfg.RateLimit.VerifyIPLimit,
		cfg.RateLimit.VerifyStoreLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", metrics.Handler(gatherer))

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/stores", controllers.StoreDirectory(storeService, logg))
		r.Get("/stores/{storeId}", controllers.StoreSummary(storeService, logg))
		r.Post("/pricing/quote", controllers.PricingQuote(pricingRules, storeService, logg))
		r.Post("/pricing/discount-preview", controllers.DiscountPreview(pricingRules.Scale, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleCustomer))
			r.Post("/v1/stores/{storeId}/orders", ordercontrollers.PlaceOrder(ordersService, logg))
			r.Get("/v1/orders/{orderId}", ordercontrollers.CustomerOrder(ordersService, logg))
		})

		r.Route("/v1/merchant", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleMerchant))
			r.Use(middleware.StoreContext(logg))

			r.Get("/store", controllers.StoreProfile(storeService, logg))
			r.Put("/store", controllers.StoreUpsert(storeService, logg))
			r.Put("/inventory", controllers.StoreInventory(storeService, logg))
			r.Get("/metrics", analyticscontrollers.StoreMetrics(analyticsService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.MerchantList(ordersService, logg))
				r.Get("/urgent", ordercontrollers.MerchantUrgent(ordersService, logg))
				r.Get("/{orderId}", ordercontrollers.MerchantOrder(ordersService, logg))
				r.Post("/{orderId}/accept", ordercontrollers.Accept(ordersService, logg))
				r.Post("/{orderId}/reject", ordercontrollers.Reject(ordersService, logg))
				r.Post("/{orderId}/ready", ordercontrollers.Ready(ordersService, logg))
				r.With(middleware.RateLimit(verifyPolicy, limiterStore, logg)).
					Post("/{orderId}/verify-pickup", ordercontrollers.VerifyPickup(ordersService, logg))
			})
		})
	})

	return r
}
