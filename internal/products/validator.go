package product

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type productFinder interface {
	FindByID(ctx context.Context, id int) (*Product, error)
}

// Validator gates cart and wishlist mutations against the catalog.
type Validator struct {
	products productFinder
}

func NewValidator(products productFinder) (*Validator, error) {
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &Validator{products: products}, nil
}

// ValidateCartItem checks, in order: the product exists, it is not out of
// stock, quantity is positive, quantity does not exceed the stock.
func (v *Validator) ValidateCartItem(ctx context.Context, productID, quantity int) (*Product, error) {
	p, err := v.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.InventoryStatus == enums.InventoryStatusOutOfStock {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "Product is out of stock").
			WithDetails(map[string]any{"productId": productID})
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "Quantity must be greater than 0").
			WithDetails(map[string]any{"productId": productID, "quantity": quantity})
	}
	if quantity > p.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("Insufficient stock. Available quantity: %d", p.Quantity)).
			WithDetails(map[string]any{"productId": productID, "available": p.Quantity, "requested": quantity})
	}
	return p, nil
}

// ValidateWishlistItem only requires the product to exist.
func (v *Validator) ValidateWishlistItem(ctx context.Context, productID int) (*Product, error) {
	return v.products.FindByID(ctx, productID)
}
