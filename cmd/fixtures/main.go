package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/angelmondragon/storefront-backend/pkg/storage/jsonfile"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "fixtures"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "fixtures",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	store, err := jsonfile.New(cfg.Storage, logg, nil)
	if err != nil {
		logg.Error(ctx, "failed to open storage", err)
		os.Exit(1)
	}
	userRepo, err := users.NewRepository(store)
	if err != nil {
		logg.Error(ctx, "failed to open users collection", err)
		os.Exit(1)
	}

	created, err := auth.LoadFixtures(ctx, userRepo, security.NewHasher(cfg.Password), cfg.Admin, logg)
	if err != nil {
		logg.Error(ctx, "failed to load fixtures", err)
		os.Exit(1)
	}
	if created {
		fmt.Println("Fixtures loaded successfully!")
		return
	}
	fmt.Println("Users already present, nothing to load.")
}
