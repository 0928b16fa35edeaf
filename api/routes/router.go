package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies bundles the services and probes the router mounts.
type Dependencies struct {
	Storage         controllers.Pinger
	Redis           *redis.Client
	Metrics         http.Handler
	AuthService     auth.Service
	ProductService  products.Service
	CartService     cart.Service
	WishlistService wishlist.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	ready := map[string]controllers.Pinger{"storage": deps.Storage}
	var limiter middleware.RateCounter
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
		limiter = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, ready, logg))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.RegisterPolicy(cfg.AuthRateLimit), limiter, logg)).
			Post("/account", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(middleware.LoginPolicy(cfg.AuthRateLimit), limiter, logg)).
			Post("/token", controllers.AuthLogin(deps.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.ProductService, logg))
				r.Get("/{id}", controllers.ProductDetail(deps.ProductService, logg))

				admin := r.With(middleware.RequireRole(enums.RoleAdmin, logg))
				admin.Post("/", controllers.AdminCreateProduct(deps.ProductService, logg))
				admin.Patch("/{id}", controllers.AdminUpdateProduct(deps.ProductService, logg))
				admin.Delete("/{id}", controllers.AdminDeleteProduct(deps.ProductService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.CartService, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.CartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.CartService, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistFetch(deps.WishlistService, logg))
				r.Post("/items", controllers.WishlistAddItem(deps.WishlistService, logg))
				r.Delete("/items/{productId}", controllers.WishlistRemoveItem(deps.WishlistService, logg))
			})
		})
	})

	return r
}
