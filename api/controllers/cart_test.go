package controllers

import (
	"context"
	"net/http"
	"testing"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCartService struct {
	userID    int
	productID int
	quantity  int
	err       error
}

func (s *stubCartService) view() (*cartsvc.View, error) {
	if s.err != nil {
		return nil, s.err
	}
	items := []cartsvc.Item{}
	if s.productID > 0 {
		items = append(items, cartsvc.Item{ProductID: s.productID, Quantity: s.quantity})
	}
	return &cartsvc.View{ID: 1, UserID: s.userID, Items: items, TotalItems: s.quantity, TotalPrice: "0.00"}, nil
}

func (s *stubCartService) GetCart(ctx context.Context, userID int) (*cartsvc.View, error) {
	s.userID = userID
	return s.view()
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID, quantity int) (*cartsvc.View, error) {
	s.userID, s.productID, s.quantity = userID, productID, quantity
	return s.view()
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, productID, quantity int) (*cartsvc.View, error) {
	s.userID, s.productID, s.quantity = userID, productID, quantity
	return s.view()
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, productID int) (*cartsvc.View, error) {
	s.userID, s.productID, s.quantity = userID, 0, 0
	return s.view()
}

func TestCartFetchRequiresUser(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/cart", "/api/cart", "", 0, CartFetch(&stubCartService{}, nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartFetchUsesAuthenticatedUser(t *testing.T) {
	svc := &stubCartService{}
	resp := doRequest(t, http.MethodGet, "/api/cart", "/api/cart", "", 7, CartFetch(svc, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view cartsvc.View
	decodeData(t, resp, &view)
	if view.UserID != 7 || svc.userID != 7 {
		t.Fatalf("unexpected user %d / %d", view.UserID, svc.userID)
	}
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCartService{}
	resp := doRequest(t, http.MethodPost, "/api/cart/items", "/api/cart/items", `{"productId":3,"quantity":2}`, 7, CartAddItem(svc, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.productID != 3 || svc.quantity != 2 {
		t.Fatalf("unexpected forwarded item %d x%d", svc.productID, svc.quantity)
	}
}

func TestCartAddItemRequiresFields(t *testing.T) {
	for _, body := range []string{`{"productId":3}`, `{"quantity":1}`, `{}`} {
		resp := doRequest(t, http.MethodPost, "/api/cart/items", "/api/cart/items", body, 7, CartAddItem(&stubCartService{}, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, resp.Code)
		}
	}
}

func TestCartAddItemMapsDomainErrors(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeOutOfStock:        http.StatusBadRequest,
		pkgerrors.CodeInvalidQuantity:   http.StatusBadRequest,
		pkgerrors.CodeInsufficientStock: http.StatusBadRequest,
		pkgerrors.CodeNotFound:          http.StatusNotFound,
		pkgerrors.CodeStorageBusy:       http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		svc := &stubCartService{err: pkgerrors.New(code, "rejected")}
		resp := doRequest(t, http.MethodPost, "/api/cart/items", "/api/cart/items", `{"productId":3,"quantity":0}`, 7, CartAddItem(svc, nil))
		if resp.Code != status {
			t.Fatalf("%s: expected %d got %d", code, status, resp.Code)
		}
		if got := decodeErrorCode(t, resp); got != string(code) {
			t.Fatalf("expected code %s got %s", code, got)
		}
	}
}

func TestCartUpdateAndRemoveItem(t *testing.T) {
	svc := &stubCartService{}
	resp := doRequest(t, http.MethodPatch, "/api/cart/items/{productId}", "/api/cart/items/5", `{"quantity":4}`, 7, CartUpdateItem(svc, nil))
	if resp.Code != http.StatusOK || svc.productID != 5 || svc.quantity != 4 {
		t.Fatalf("unexpected update: status %d item %d x%d", resp.Code, svc.productID, svc.quantity)
	}

	resp = doRequest(t, http.MethodDelete, "/api/cart/items/{productId}", "/api/cart/items/5", "", 7, CartRemoveItem(svc, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view cartsvc.View
	decodeData(t, resp, &view)
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Items)
	}

	resp = doRequest(t, http.MethodDelete, "/api/cart/items/{productId}", "/api/cart/items/x", "", 7, CartRemoveItem(svc, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
