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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/angelmondragon/storefront-backend/pkg/storage/jsonfile"
)

const shutdownTimeout = 15 * time.Second

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
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := jsonfile.New(cfg.Storage, logg, metrics.NewStorageMetrics(registry))
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured, auth rate limiting disabled")
	}

	deps, err := buildDependencies(ctx, cfg, logg, store)
	if err != nil {
		return err
	}
	deps.Redis = redisClient
	deps.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"storage_dir": store.Dir(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Combine(server.Shutdown(shutdownCtx), <-serveErr)
}

func buildDependencies(ctx context.Context, cfg *config.Config, logg *logger.Logger, store *jsonfile.Store) (routes.Dependencies, error) {
	userRepo, err := users.NewRepository(store)
	if err != nil {
		return routes.Dependencies{}, err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:   userRepo,
		Hasher:     security.NewHasher(cfg.Password),
		JWTConfig:  cfg.JWT,
		AdminEmail: cfg.Admin.Email,
		Logger:     logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	productRepo, err := products.NewRepository(store)
	if err != nil {
		return routes.Dependencies{}, err
	}
	productService, err := products.NewService(productRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	validator, err := products.NewValidator(productRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	cartRepo, err := cart.NewRepository(store, cart.KindCart)
	if err != nil {
		return routes.Dependencies{}, err
	}
	cartService, err := cart.NewService(cartRepo, validator, productRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	wishlistRepo, err := cart.NewRepository(store, cart.KindWishlist)
	if err != nil {
		return routes.Dependencies{}, err
	}
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlistRepo,
		Validator:    validator,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	logg.Debug(ctx, "services wired")
	return routes.Dependencies{
		Storage:         store,
		AuthService:     authService,
		ProductService:  productService,
		CartService:     cartService,
		WishlistService: wishlistService,
	}, nil
}
