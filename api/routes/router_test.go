package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/angelmondragon/storefront-backend/pkg/storage/jsonfile"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "dev"},
		Storage: config.StorageConfig{Dir: dir, LockTimeout: 5 * time.Second},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 60},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    32768,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Admin: config.AdminConfig{
			Email:     "admin@admin.com",
			Username:  "admin",
			Firstname: "Admin",
			Password:  "admin123",
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig(t.TempDir())
	ctx := context.Background()

	store, err := jsonfile.New(cfg.Storage, nil, nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	userRepo, err := users.NewRepository(store)
	if err != nil {
		t.Fatalf("users repo: %v", err)
	}
	hasher := security.NewHasher(cfg.Password)
	if _, err := auth.LoadFixtures(ctx, userRepo, hasher, cfg.Admin, nil); err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:   userRepo,
		Hasher:     hasher,
		JWTConfig:  cfg.JWT,
		AdminEmail: cfg.Admin.Email,
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	productRepo, err := products.NewRepository(store)
	if err != nil {
		t.Fatalf("product repo: %v", err)
	}
	productSvc, err := products.NewService(productRepo)
	if err != nil {
		t.Fatalf("product service: %v", err)
	}
	validator, err := products.NewValidator(productRepo)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	cartRepo, err := cart.NewRepository(store, cart.KindCart)
	if err != nil {
		t.Fatalf("cart repo: %v", err)
	}
	cartSvc, err := cart.NewService(cartRepo, validator, productRepo)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	wishlistRepo, err := cart.NewRepository(store, cart.KindWishlist)
	if err != nil {
		t.Fatalf("wishlist repo: %v", err)
	}
	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{WishlistRepo: wishlistRepo, Validator: validator})
	if err != nil {
		t.Fatalf("wishlist service: %v", err)
	}

	return NewRouter(cfg, nil, Dependencies{
		Storage:         store,
		AuthService:     authSvc,
		ProductService:  productSvc,
		CartService:     cartSvc,
		WishlistService: wishlistSvc,
	})
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	var envelope map[string]any
	if resp.Body.Len() > 0 {
		if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, resp.Body.String(), err)
		}
	}
	return resp, envelope
}

func data(envelope map[string]any) map[string]any {
	d, _ := envelope["data"].(map[string]any)
	return d
}

func errorCode(envelope map[string]any) string {
	e, _ := envelope["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	resp, body := call(t, h, http.MethodPost, "/api/token", "", map[string]string{"email": email, "password": password})
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200 got %d: %v", email, resp.Code, body)
	}
	token, _ := data(body)["token"].(string)
	if token == "" {
		t.Fatalf("login %s: empty token", email)
	}
	return token
}

func TestHealthRoutes(t *testing.T) {
	cfg := testConfig(t.TempDir())
	h := NewRouter(cfg, nil, Dependencies{Storage: stubPinger{}})

	if resp, _ := call(t, h, http.MethodGet, "/health/live", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp, _ := call(t, h, http.MethodGet, "/health/ready", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}

	down := NewRouter(cfg, nil, Dependencies{Storage: stubPinger{err: errors.New("disk full")}})
	if resp, _ := call(t, down, http.MethodGet, "/health/ready", "", nil); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503 got %d", resp.Code)
	}
}

func TestMetricsRouteMountedWhenProvided(t *testing.T) {
	cfg := testConfig(t.TempDir())
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := NewRouter(cfg, nil, Dependencies{Storage: stubPinger{}, Metrics: metrics})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected metrics handler, got %d", resp.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/api/products", "/api/products/1", "/api/cart", "/api/wishlist"} {
		if resp, _ := call(t, h, http.MethodGet, path, "", nil); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestStorefrontFlow(t *testing.T) {
	h := newTestRouter(t)

	resp, body := call(t, h, http.MethodPost, "/api/account", "", map[string]string{
		"email": "jane@example.com", "username": "jane", "firstname": "Jane", "password": "s3cret",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d: %v", resp.Code, body)
	}
	if id, _ := data(body)["user"].(map[string]any)["id"].(float64); id != 2 {
		t.Fatalf("expected user id 2 after admin fixture, got %v", id)
	}

	resp, _ = call(t, h, http.MethodPost, "/api/account", "", map[string]string{
		"email": "jane@example.com", "username": "jane2", "firstname": "Jane", "password": "s3cret",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409 got %d", resp.Code)
	}

	if resp, _ := call(t, h, http.MethodPost, "/api/token", "", map[string]string{"email": "jane@example.com", "password": "wrong"}); resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401 got %d", resp.Code)
	}

	userToken := login(t, h, "jane@example.com", "s3cret")
	adminToken := login(t, h, "admin@admin.com", "admin123")

	product := map[string]any{"name": "Bamboo Watch", "price": 65.5, "quantity": 3, "category": "Accessories"}
	if resp, _ := call(t, h, http.MethodPost, "/api/products", userToken, product); resp.Code != http.StatusForbidden {
		t.Fatalf("user create product: expected 403 got %d", resp.Code)
	}
	resp, body = call(t, h, http.MethodPost, "/api/products", adminToken, product)
	if resp.Code != http.StatusCreated {
		t.Fatalf("admin create product: expected 201 got %d: %v", resp.Code, body)
	}
	created := data(body)
	if created["id"].(float64) != 1 || created["inventoryStatus"] != "INSTOCK" {
		t.Fatalf("unexpected product %v", created)
	}

	resp, body = call(t, h, http.MethodGet, "/api/products", userToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list products: expected 200 got %d", resp.Code)
	}
	if items, _ := data(body)["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 product, got %v", data(body))
	}

	resp, body = call(t, h, http.MethodGet, "/api/cart", userToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get cart: expected 200 got %d", resp.Code)
	}
	if items, _ := data(body)["items"].([]any); len(items) != 0 {
		t.Fatalf("expected empty cart, got %v", items)
	}

	resp, body = call(t, h, http.MethodPost, "/api/cart/items", userToken, map[string]int{"productId": 1, "quantity": 5})
	if resp.Code != http.StatusBadRequest || errorCode(body) != "INSUFFICIENT_STOCK" {
		t.Fatalf("over-stock add: expected INSUFFICIENT_STOCK got %d %v", resp.Code, body)
	}

	resp, body = call(t, h, http.MethodPost, "/api/cart/items", userToken, map[string]int{"productId": 1, "quantity": 2})
	if resp.Code != http.StatusOK {
		t.Fatalf("add to cart: expected 200 got %d: %v", resp.Code, body)
	}
	if total := data(body)["totalPrice"]; total != "131.00" {
		t.Fatalf("expected totalPrice 131.00, got %v", total)
	}

	resp, body = call(t, h, http.MethodPatch, "/api/cart/items/1", userToken, map[string]int{"quantity": 0})
	if resp.Code != http.StatusBadRequest || errorCode(body) != "INVALID_QUANTITY" {
		t.Fatalf("zero quantity: expected INVALID_QUANTITY got %d %v", resp.Code, body)
	}

	if resp, _ := call(t, h, http.MethodPost, "/api/wishlist/items", userToken, map[string]int{"productId": 1}); resp.Code != http.StatusOK {
		t.Fatalf("wishlist add: expected 200 got %d", resp.Code)
	}
	resp, body = call(t, h, http.MethodPost, "/api/wishlist/items", userToken, map[string]int{"productId": 1})
	if resp.Code != http.StatusConflict || errorCode(body) != "DUPLICATE_WISHLIST_ITEM" {
		t.Fatalf("wishlist duplicate: expected 409 got %d %v", resp.Code, body)
	}
	if resp, _ := call(t, h, http.MethodPost, "/api/wishlist/items", userToken, map[string]int{"productId": 99}); resp.Code != http.StatusNotFound {
		t.Fatalf("wishlist unknown product: expected 404 got %d", resp.Code)
	}

	resp, body = call(t, h, http.MethodPatch, "/api/products/1", adminToken, map[string]any{"inventoryStatus": "OUTOFSTOCK"})
	if resp.Code != http.StatusOK {
		t.Fatalf("admin update: expected 200 got %d: %v", resp.Code, body)
	}
	resp, body = call(t, h, http.MethodPost, "/api/cart/items", userToken, map[string]int{"productId": 1, "quantity": 1})
	if resp.Code != http.StatusBadRequest || errorCode(body) != "OUT_OF_STOCK" {
		t.Fatalf("out of stock add: expected OUT_OF_STOCK got %d %v", resp.Code, body)
	}

	if resp, _ := call(t, h, http.MethodDelete, "/api/cart/items/1", userToken, nil); resp.Code != http.StatusOK {
		t.Fatalf("remove item: expected 200 got %d", resp.Code)
	}
	if resp, _ := call(t, h, http.MethodDelete, "/api/products/1", adminToken, nil); resp.Code != http.StatusOK {
		t.Fatalf("admin delete: expected 200 got %d", resp.Code)
	}
	if resp, _ := call(t, h, http.MethodGet, "/api/products/1", userToken, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("deleted product: expected 404 got %d", resp.Code)
	}
}

func TestConcurrentCartAddsAcrossUsers(t *testing.T) {
	h := newTestRouter(t)
	adminToken := login(t, h, "admin@admin.com", "admin123")
	if resp, body := call(t, h, http.MethodPost, "/api/products", adminToken, map[string]any{"name": "Chakra Bracelet", "price": 32, "quantity": 100}); resp.Code != http.StatusCreated {
		t.Fatalf("create product: %d %v", resp.Code, body)
	}

	const shoppers = 6
	tokens := make([]string, shoppers)
	for i := range tokens {
		email := "shopper" + string(rune('a'+i)) + "@example.com"
		if resp, body := call(t, h, http.MethodPost, "/api/account", "", map[string]string{
			"email": email, "username": email, "firstname": "S", "password": "pw",
		}); resp.Code != http.StatusCreated {
			t.Fatalf("register %s: %d %v", email, resp.Code, body)
		}
		tokens[i] = login(t, h, email, "pw")
	}

	var wg sync.WaitGroup
	codes := make([]int, shoppers)
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"productId":1,"quantity":1}`))
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			h.ServeHTTP(resp, req)
			codes[i] = resp.Code
		}(i, token)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Fatalf("shopper %d: expected 200 got %d", i, code)
		}
	}
	for i, token := range tokens {
		_, body := call(t, h, http.MethodGet, "/api/cart", token, nil)
		items, _ := data(body)["items"].([]any)
		if len(items) != 1 {
			t.Fatalf("shopper %d: expected 1 item, got %v", i, items)
		}
	}
}
