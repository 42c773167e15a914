package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/dashboard"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/taxonomy"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Store is the redis surface the HTTP layer needs: idempotency records, fixed window counters and a ping.
type Store interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

type webhookGuard interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type signingSecretSource interface {
	SigningSecret() string
}

type deadLetterLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

// Dependencies collects everything the HTTP surface is built from. Nil services are allowed;
// their handlers answer with INTERNAL_ERROR.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    Store
	Sessions session.AccessSessionChecker

	Auth      auth.Service
	Register  auth.RegisterService
	Users     users.Service
	Products  product.Service
	Taxonomy  taxonomy.Service
	Cart      cart.Service
	Coupons   coupons.Service
	Addresses address.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Wishlist  wishlist.Service
	Dashboard dashboard.Service
	DeadLetters deadLetterLister

	StripeWebhook      webhookcontrollers.StripeWebhookService
	StripeSecret       signingSecretSource
	StripeWebhookGuard webhookGuard

	Gatherer        prometheus.Gatherer
	HTTPMetrics     *metrics.HTTPMetrics
	CheckoutMetrics *metrics.CheckoutMetrics
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeSecret, deps.StripeWebhookGuard, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/admin/login", controllers.AdminAuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		// catalog reads are public
		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{productRef}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/categories", controllers.CategoryList(deps.Taxonomy, logg))
		r.Get("/colors", controllers.ColorList(deps.Taxonomy, logg))
		r.Get("/orders/statuses", ordercontrollers.Statuses())

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RateLimit(deps.Redis, cfg.AuthRateLimit.APILimit, cfg.AuthRateLimit.APIWindow, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.MeProfile(deps.Users, logg))
				r.Patch("/", controllers.MeUpdateProfile(deps.Users, logg))
				r.Post("/password", controllers.MeChangePassword(deps.Users, logg))
				r.Get("/role", controllers.MeRole(deps.Users, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Get("/total", cartcontrollers.CartTotal(deps.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/items", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Put("/items/replace", cartcontrollers.CartReplaceItem(deps.Cart, logg))
				r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Post("/validate", controllers.CouponValidate(deps.Coupons, deps.Cart, logg))
				r.Post("/apply", controllers.CouponApply(deps.Coupons, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Addresses, logg))
				r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(deps.Addresses, logg))
				r.Post("/{addressId}/default", controllers.AddressSetDefault(deps.Addresses, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Post("/", ordercontrollers.Place(deps.Checkout, deps.CheckoutMetrics, logg))
				r.Get("/{orderNumber}", ordercontrollers.Detail(deps.Orders, logg))
				r.Post("/{orderId}/verify", ordercontrollers.Verify(deps.Checkout, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
				r.Delete("/", controllers.WishlistClear(deps.Wishlist, logg))
				r.Get("/ids", controllers.WishlistIDs(deps.Wishlist, logg))
				r.Post("/", controllers.WishlistAdd(deps.Wishlist, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(deps.Wishlist, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleOwner))

				r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))
				r.Get("/outbox/dead-letters", controllers.AdminOutboxDeadLetters(deps.DeadLetters, logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.ProductList(deps.Products, logg))
					r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
					r.Put("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
					r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
				})

				r.Route("/categories", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateCategory(deps.Taxonomy, logg))
					r.Put("/{categoryId}", controllers.AdminUpdateCategory(deps.Taxonomy, logg))
					r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.Taxonomy, logg))
				})
				r.Route("/subcategories", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateSubcategory(deps.Taxonomy, logg))
					r.Put("/{subcategoryId}", controllers.AdminUpdateSubcategory(deps.Taxonomy, logg))
					r.Delete("/{subcategoryId}", controllers.AdminDeleteSubcategory(deps.Taxonomy, logg))
				})
				r.Route("/colors", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateColor(deps.Taxonomy, logg))
					r.Put("/{colorId}", controllers.AdminUpdateColor(deps.Taxonomy, logg))
					r.Delete("/{colorId}", controllers.AdminDeleteColor(deps.Taxonomy, logg))
				})

				r.Route("/coupons", func(r chi.Router) {
					r.Get("/", controllers.AdminListCoupons(deps.Coupons, logg))
					r.Post("/", controllers.AdminCreateCoupon(deps.Coupons, logg))
					r.Patch("/{couponId}", controllers.AdminUpdateCoupon(deps.Coupons, logg))
					r.Post("/{couponId}/toggle", controllers.AdminToggleCoupon(deps.Coupons, logg))
					r.Delete("/{couponId}", controllers.AdminDeleteCoupon(deps.Coupons, logg))
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
					r.Post("/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
					r.Post("/{orderId}/tracking", ordercontrollers.AdminUpdateTracking(deps.Orders, logg))
				})

				r.Route("/users", func(r chi.Router) {
					r.Get("/", controllers.AdminListUsers(deps.Users, logg))
					r.With(middleware.RequireRole(logg, enums.UserRoleOwner)).Post("/{userId}/promote", controllers.OwnerPromoteUser(deps.Users, logg))
					r.With(middleware.RequireRole(logg, enums.UserRoleOwner)).Post("/{userId}/demote", controllers.OwnerDemoteUser(deps.Users, logg))
				})
			})
		})
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["postgres"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
