package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ProductList returns one page of the catalog.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ProductDetail returns a single product.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminCreateProduct handles catalog creation.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct applies a partial update.
func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct removes a product from the catalog.
func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Product deleted"})
	}
}

type createProductRequest struct {
	Code              string   `json:"code"`
	Name              string   `json:"name" validate:"required"`
	Description       string   `json:"description"`
	Image             string   `json:"image"`
	Category          string   `json:"category"`
	Price             *float64 `json:"price" validate:"required,gte=0"`
	Quantity          int      `json:"quantity" validate:"gte=0"`
	InternalReference string   `json:"internalReference"`
	ShellID           int      `json:"shellId"`
	InventoryStatus   string   `json:"inventoryStatus"`
	Rating            float64  `json:"rating"`
}

func (r createProductRequest) toCreateInput() (productsvc.CreateProductInput, error) {
	input := productsvc.CreateProductInput{
		Code:              r.Code,
		Name:              r.Name,
		Description:       r.Description,
		Image:             r.Image,
		Category:          r.Category,
		Price:             *r.Price,
		Quantity:          r.Quantity,
		InternalReference: r.InternalReference,
		ShellID:           r.ShellID,
		Rating:            r.Rating,
	}
	if r.InventoryStatus != "" {
		status, err := enums.ParseInventoryStatus(r.InventoryStatus)
		if err != nil {
			return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid inventory status")
		}
		input.InventoryStatus = status
	}
	return input, nil
}

type updateProductRequest struct {
	Code              *string  `json:"code"`
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Image             *string  `json:"image"`
	Category          *string  `json:"category"`
	Price             *float64 `json:"price" validate:"omitempty,gte=0"`
	Quantity          *int     `json:"quantity" validate:"omitempty,gte=0"`
	InternalReference *string  `json:"internalReference"`
	ShellID           *int     `json:"shellId"`
	InventoryStatus   *string  `json:"inventoryStatus"`
	Rating            *float64 `json:"rating"`
}

func (r updateProductRequest) toUpdateInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Code:              r.Code,
		Name:              r.Name,
		Description:       r.Description,
		Image:             r.Image,
		Category:          r.Category,
		Price:             r.Price,
		Quantity:          r.Quantity,
		InternalReference: r.InternalReference,
		ShellID:           r.ShellID,
		Rating:            r.Rating,
	}
	if r.InventoryStatus != nil {
		status, err := enums.ParseInventoryStatus(*r.InventoryStatus)
		if err != nil {
			return productsvc.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid inventory status")
		}
		input.InventoryStatus = &status
	}
	return input, nil
}
