package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CreateProductInput holds the validated payload to create a product. Only
// Name, Image, Category and Price are required; the rest default.
type CreateProductInput struct {
	Code              string
	Name              string
	Description       string
	Image             string
	Category          string
	Price             float64
	Quantity          int
	InternalReference string
	ShellID           int
	InventoryStatus   enums.InventoryStatus
	Rating            float64
}

// UpdateProductInput holds optional mutation values for a product. Nil
// fields keep their stored value.
type UpdateProductInput struct {
	Code              *string
	Name              *string
	Description       *string
	Image             *string
	Category          *string
	Price             *float64
	Quantity          *int
	InternalReference *string
	ShellID           *int
	InventoryStatus   *enums.InventoryStatus
	Rating            *float64
}

// ListProductsInput selects a page of the catalog ordered by id.
type ListProductsInput struct {
	Limit  int
	Cursor string
}

// ProductListResult is one page of the catalog.
type ProductListResult = types.Page[Product]
