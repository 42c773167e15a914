package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/routes"
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
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/env"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

const stripeEventReplayTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	deps, err := buildDependencies(ctx, cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(*deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(logCtx, "api server stopped")
}

func buildDependencies(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*routes.Dependencies, error) {
	conn := dbClient.DB()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, err
	}

	usersRepo := users.NewRepository(conn)
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		return nil, err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Users:          usersRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	productRepo := product.NewRepository(conn)
	productService, err := product.NewService(productRepo, dbClient, cfg.Checkout.Currency)
	if err != nil {
		return nil, err
	}
	taxonomyService, err := taxonomy.NewService(taxonomy.NewRepository(conn), dbClient)
	if err != nil {
		return nil, err
	}

	cartRepo := cart.NewRepository(conn)
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo, product.NewResolver(cfg.Checkout.LegacyStockCeiling))
	if err != nil {
		return nil, err
	}
	couponService, err := coupons.NewService(coupons.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	addressService, err := address.NewService(address.NewRepository(conn), dbClient)
	if err != nil {
		return nil, err
	}

	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)
	inventory, err := orders.NewInventoryReleaser(productRepo, logg)
	if err != nil {
		return nil, err
	}
	ordersRepo := orders.NewRepository(conn)
	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, inventory)
	if err != nil {
		return nil, err
	}

	checkoutDeps := checkout.Dependencies{
		Tx:        dbClient,
		Cart:      cartService,
		CartRepo:  cartRepo,
		Addresses: addressService,
		Coupons:   couponService,
		Products:  productRepo,
		Orders:    ordersRepo,
		Inventory: inventory,
		Outbox:    outboxService,
		Logger:    logg,
	}

	var stripeClient *stripe.Client
	if cfg.Stripe.Enabled() {
		stripeClient, err = stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		checkoutDeps.Gateway = stripeClient
	} else {
		logg.Warn(ctx, "stripe disabled, only cash on delivery is accepted")
	}

	checkoutService, err := checkout.NewService(checkoutDeps, checkout.Options{
		Currency:      cfg.Checkout.Currency,
		ShippingCents: cfg.Checkout.ShippingCents,
		PaymentWindow: cfg.Checkout.PendingPaymentTTL(),
	})
	if err != nil {
		return nil, err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(conn),
		ProductRepo:  productRepo,
	})
	if err != nil {
		return nil, err
	}
	dashboardService, err := dashboard.NewService(dashboard.NewRepository(conn), cfg.Checkout.Currency)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &routes.Dependencies{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Sessions:        sessionManager,
		Auth:            authService,
		Register:        registerService,
		Users:           usersService,
		Products:        productService,
		Taxonomy:        taxonomyService,
		Cart:            cartService,
		Coupons:         couponService,
		Addresses:       addressService,
		Checkout:        checkoutService,
		Orders:          ordersService,
		Wishlist:        wishlistService,
		Dashboard:       dashboardService,
		DeadLetters:     outbox.NewDLQRepository(conn),
		Gatherer:        reg,
		HTTPMetrics:     metrics.NewHTTPMetrics(reg),
		CheckoutMetrics: metrics.NewCheckoutMetrics(reg),
	}

	if stripeClient != nil {
		webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Checkout: checkoutService})
		if err != nil {
			return nil, err
		}
		guard, err := stripewebhook.NewReplayGuard(redisClient, stripeEventReplayTTL)
		if err != nil {
			return nil, err
		}
		deps.StripeWebhook = webhookService
		deps.StripeSecret = stripeClient
		deps.StripeWebhookGuard = guard
	}
	return deps, nil
}
