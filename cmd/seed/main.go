package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/taxonomy"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	path := flag.String("file", "seed.yaml", "path to the YAML seed file")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "file": *path})

	file, err := LoadFile(*path)
	requireResource(ctx, logg, "seed file", err)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	conn := dbClient.DB()
	owners, err := auth.NewOwnerBootstrapper(auth.RegisterServiceParams{
		DB:             dbClient,
		Users:          users.NewRepository(conn),
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "owner bootstrapper", err)

	tax, err := taxonomy.NewService(taxonomy.NewRepository(conn), dbClient)
	requireResource(ctx, logg, "taxonomy service", err)

	couponSvc, err := coupons.NewService(coupons.NewRepository(conn))
	requireResource(ctx, logg, "coupon service", err)

	seeder, err := NewSeeder(logg, owners, tax, couponSvc)
	requireResource(ctx, logg, "seeder", err)

	sum, err := seeder.Apply(ctx, file)
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	fmt.Printf("seeded categories=%d subcategories=%d colors=%d coupons=%d skipped=%d owner_created=%t\n",
		sum.Categories, sum.Subcategories, sum.Colors, sum.Coupons, sum.Skipped, sum.OwnerCreated)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
