package wishlist

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type wishlistStore interface {
	Get(ctx context.Context, userID int) (*cart.Cart, error)
	Mutate(ctx context.Context, userID int, fn func(c *cart.Cart) error) (*cart.Cart, error)
}

type itemValidator interface {
	ValidateWishlistItem(ctx context.Context, productID int) (*product.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo wishlistStore
	Validator    itemValidator
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID int) (*WishlistDTO, error)
	GetWishlistIDs(ctx context.Context, userID int) (WishlistIDsDTO, error)
	AddItem(ctx context.Context, userID, productID int) (*WishlistDTO, error)
	RemoveItem(ctx context.Context, userID, productID int) (*WishlistDTO, error)
}

type service struct {
	repo      wishlistStore
	validator itemValidator
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if params.Validator == nil {
		return nil, fmt.Errorf("catalog validator is required")
	}
	return &service{repo: params.WishlistRepo, validator: params.Validator}, nil
}

func (s *service) GetWishlist(ctx context.Context, userID int) (*WishlistDTO, error) {
	w, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newWishlistDTO(w), nil
}

// GetWishlistIDs returns the wishlisted product ids in insertion order.
func (s *service) GetWishlistIDs(ctx context.Context, userID int) (WishlistIDsDTO, error) {
	w, err := s.repo.Get(ctx, userID)
	if err != nil {
		return WishlistIDsDTO{}, err
	}
	ids := make([]int, 0, len(w.Items))
	for _, item := range w.Items {
		ids = append(ids, item.ProductID)
	}
	return WishlistIDsDTO{ProductIDs: ids}, nil
}

// AddItem ensures the product exists and adds it with quantity 1. A product
// already in the wishlist is rejected.
func (s *service) AddItem(ctx context.Context, userID, productID int) (*WishlistDTO, error) {
	if _, err := s.validator.ValidateWishlistItem(ctx, productID); err != nil {
		return nil, err
	}
	w, err := s.repo.Mutate(ctx, userID, func(w *cart.Cart) error {
		if w.HasItem(productID) {
			return pkgerrors.New(pkgerrors.CodeDuplicateWishlistItem, "This product is already in your wishlist").
				WithDetails(map[string]any{"productId": productID})
		}
		w.AddItem(productID, 1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newWishlistDTO(w), nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, productID int) (*WishlistDTO, error) {
	w, err := s.repo.Mutate(ctx, userID, func(w *cart.Cart) error {
		w.RemoveItem(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newWishlistDTO(w), nil
}
