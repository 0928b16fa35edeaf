package product

import (
	"context"
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service exposes catalog management operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int, input UpdateProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

type productStore interface {
	List(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id int) (*Product, error)
	Create(ctx context.Context, input CreateProductInput) (*Product, error)
	Update(ctx context.Context, id int, input UpdateProductInput) (*Product, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo productStore
}

// NewService constructs a product service instance.
func NewService(repo productStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	items, next, err := pagination.Page(all, productID, pagination.Params{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return types.NewPage(items, next), nil
}

func (s *service) GetProduct(ctx context.Context, id int) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fieldError("name", "name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if input.InventoryStatus != "" && !input.InventoryStatus.IsValid() {
		return nil, invalidStatus(string(input.InventoryStatus))
	}
	return s.repo.Create(ctx, input)
}

func (s *service) UpdateProduct(ctx context.Context, id int, input UpdateProductInput) (*Product, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, fieldError("name", "name cannot be empty")
		}
		input.Name = &trimmed
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.Quantity != nil {
		if err := validateQuantity(*input.Quantity); err != nil {
			return nil, err
		}
	}
	if input.InventoryStatus != nil && !input.InventoryStatus.IsValid() {
		return nil, invalidStatus(string(*input.InventoryStatus))
	}
	return s.repo.Update(ctx, id, input)
}

func (s *service) DeleteProduct(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validatePrice(price float64) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fieldError("price", "price cannot be negative")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return fieldError("quantity", "quantity cannot be negative")
	}
	return nil
}

func invalidStatus(value string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "Invalid inventory status").
		WithDetails(map[string]any{"field": "inventoryStatus", "value": value})
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
