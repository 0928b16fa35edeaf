package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type cartStore interface {
	Get(ctx context.Context, userID int) (*Cart, error)
	Mutate(ctx context.Context, userID int, fn func(c *Cart) error) (*Cart, error)
}

type itemValidator interface {
	ValidateCartItem(ctx context.Context, productID, quantity int) (*product.Product, error)
}

type catalogReader interface {
	List(ctx context.Context) ([]product.Product, error)
}

// Service exposes the cart operations of an authenticated user.
type Service interface {
	GetCart(ctx context.Context, userID int) (*View, error)
	AddItem(ctx context.Context, userID, productID, quantity int) (*View, error)
	UpdateItem(ctx context.Context, userID, productID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID int) (*View, error)
}

// View is the cart as returned to clients.
type View struct {
	ID         int             `json:"id"`
	UserID     int             `json:"userId"`
	Items      []Item          `json:"items"`
	CreatedAt  types.Timestamp `json:"createdAt"`
	UpdatedAt  types.Timestamp `json:"updatedAt"`
	TotalItems int             `json:"totalItems"`
	TotalPrice string          `json:"totalPrice"`
}

type service struct {
	repo      cartStore
	validator itemValidator
	catalog   catalogReader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo cartStore, validator itemValidator, catalog catalogReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if validator == nil {
		return nil, fmt.Errorf("catalog validator required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{repo: repo, validator: validator, catalog: catalog}, nil
}

func (s *service) GetCart(ctx context.Context, userID int) (*View, error) {
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// AddItem validates the requested quantity and either sets it on the
// existing entry for the product or appends a new entry. The quantity is
// not summed with what the cart already holds.
func (s *service) AddItem(ctx context.Context, userID, productID, quantity int) (*View, error) {
	if _, err := s.validator.ValidateCartItem(ctx, productID, quantity); err != nil {
		return nil, err
	}
	c, err := s.repo.Mutate(ctx, userID, func(c *Cart) error {
		if c.HasItem(productID) {
			c.UpdateItemQuantity(productID, quantity)
			return nil
		}
		c.AddItem(productID, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// UpdateItem validates the quantity and overwrites it. A product that is not
// in the cart leaves the cart unchanged.
func (s *service) UpdateItem(ctx context.Context, userID, productID, quantity int) (*View, error) {
	if _, err := s.validator.ValidateCartItem(ctx, productID, quantity); err != nil {
		return nil, err
	}
	c, err := s.repo.Mutate(ctx, userID, func(c *Cart) error {
		c.UpdateItemQuantity(productID, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID int) (*View, error) {
	c, err := s.repo.Mutate(ctx, userID, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *service) view(ctx context.Context, c *Cart) (*View, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return &View{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      c.Items,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		TotalItems: c.TotalItems(),
		TotalPrice: TotalPrice(c.Items, products).StringFixed(2),
	}, nil
}

// TotalPrice sums price times quantity over the items whose product is still
// in the catalog.
func TotalPrice(items []Item, products []product.Product) decimal.Decimal {
	prices := make(map[int]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = decimal.NewFromFloat(p.Price)
	}
	total := decimal.Zero
	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
