package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/storage/jsonfile"
)

type stubValidator struct {
	err   error
	calls int
}

func (s *stubValidator) ValidateCartItem(_ context.Context, productID, _ int) (*product.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &product.Product{ID: productID}, nil
}

type stubCatalog struct {
	products []product.Product
}

func (s stubCatalog) List(context.Context) ([]product.Product, error) {
	return s.products, nil
}

type memoryCarts struct {
	carts  map[int]*Cart
	nextID int
}

func newMemoryCarts() *memoryCarts {
	return &memoryCarts{carts: map[int]*Cart{}}
}

func (m *memoryCarts) Get(_ context.Context, userID int) (*Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		m.nextID++
		c = &Cart{ID: m.nextID, UserID: userID, Items: []Item{}}
		m.carts[userID] = c
	}
	out := c.clone()
	return &out, nil
}

func (m *memoryCarts) Mutate(ctx context.Context, userID int, fn func(c *Cart) error) (*Cart, error) {
	c, _ := m.Get(ctx, userID)
	if err := fn(c); err != nil {
		return nil, err
	}
	m.carts[userID] = c
	out := c.clone()
	return &out, nil
}

func newTestService(t *testing.T, repo cartStore, validator itemValidator, catalog catalogReader) Service {
	t.Helper()
	svc, err := NewService(repo, validator, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddItemOverwritesExistingQuantity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemoryCarts(), &stubValidator{}, stubCatalog{})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, 1, 10, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.AddItem(ctx, 1, 10, 3)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 3 {
		t.Fatalf("expected a single item with quantity 3, got %+v", view.Items)
	}
	if view.TotalItems != 3 {
		t.Fatalf("expected totalItems 3, got %d", view.TotalItems)
	}
}

func TestAddThenUpdateItem(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemoryCarts(), &stubValidator{}, stubCatalog{})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, 1, 10, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.UpdateItem(ctx, 1, 10, 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0] != (Item{ProductID: 10, Quantity: 5}) {
		t.Fatalf("unexpected items %+v", view.Items)
	}

	view, err = svc.UpdateItem(ctx, 1, 11, 1)
	if err != nil {
		t.Fatalf("update absent: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("updating an absent product must not add it, got %+v", view.Items)
	}
}

func TestValidationFailureLeavesCartUntouched(t *testing.T) {
	t.Parallel()

	repo := newMemoryCarts()
	validator := &stubValidator{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock. Available quantity: 5")}
	svc := newTestService(t, repo, validator, stubCatalog{})

	_, err := svc.AddItem(context.Background(), 1, 10, 6)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, ok := repo.carts[1]; ok {
		t.Fatal("cart should not be touched when validation fails")
	}

	if _, err := svc.UpdateItem(context.Background(), 1, 10, 6); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock on update, got %v", err)
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	t.Parallel()

	validator := &stubValidator{}
	svc := newTestService(t, newMemoryCarts(), validator, stubCatalog{})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, 1, 10, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	for i := 0; i < 2; i++ {
		view, err := svc.RemoveItem(ctx, 1, 10)
		if err != nil {
			t.Fatalf("remove %d: %v", i, err)
		}
		if len(view.Items) != 0 || view.TotalItems != 0 {
			t.Fatalf("expected empty cart, got %+v", view)
		}
	}
	if validator.calls != 1 {
		t.Fatalf("remove must not validate, got %d calls", validator.calls)
	}
}

func TestTotalPrice(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		{ID: 1, Price: 0.1},
		{ID: 2, Price: 19.99},
	}
	items := []Item{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
		{ProductID: 99, Quantity: 4},
	}

	got := TotalPrice(items, products)
	if !got.Equal(decimal.RequireFromString("40.28")) {
		t.Fatalf("expected 40.28, got %s", got)
	}

	svc := newTestService(t, newMemoryCarts(), &stubValidator{}, stubCatalog{products: products})
	view, err := svc.AddItem(context.Background(), 1, 1, 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if view.TotalPrice != "0.30" {
		t.Fatalf("expected 0.30, got %s", view.TotalPrice)
	}
}

func TestServiceWithJSONStore(t *testing.T) {
	t.Parallel()

	store, err := jsonfile.New(config.StorageConfig{Dir: t.TempDir(), LockTimeout: time.Second}, nil, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	products, err := product.NewRepository(store)
	if err != nil {
		t.Fatalf("products repo: %v", err)
	}
	ctx := context.Background()
	watch, err := products.Create(ctx, product.CreateProductInput{Name: "Bamboo Watch", Price: 65, Quantity: 5})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	soldOut, err := products.Create(ctx, product.CreateProductInput{Name: "Chakra Bracelet", Price: 32, Quantity: 3, InventoryStatus: enums.InventoryStatusOutOfStock})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	validator, err := product.NewValidator(products)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	repo, err := NewRepository(store, KindCart)
	if err != nil {
		t.Fatalf("cart repo: %v", err)
	}
	svc := newTestService(t, repo, validator, products)

	view, err := svc.AddItem(ctx, 1, watch.ID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if view.TotalPrice != "130.00" || view.TotalItems != 2 {
		t.Fatalf("unexpected view %+v", view)
	}

	if _, err := svc.AddItem(ctx, 1, soldOut.ID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, watch.ID, 6); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, err := svc.AddItem(ctx, 1, 404, 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	got, err := svc.GetCart(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0] != (Item{ProductID: watch.ID, Quantity: 2}) {
		t.Fatalf("unexpected stored items %+v", got.Items)
	}
}
