package product

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/storage/jsonfile"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Repository persists catalog products in the products collection.
type Repository struct {
	coll *jsonfile.Collection[Product]
	now  func() time.Time
}

// NewRepository binds the catalog to store.
func NewRepository(store *jsonfile.Store) (*Repository, error) {
	coll, err := jsonfile.NewCollection(store, CollectionName, productID)
	if err != nil {
		return nil, fmt.Errorf("products collection: %w", err)
	}
	return &Repository{coll: coll, now: time.Now}, nil
}

// List returns every product in insertion order.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	return r.coll.Read(ctx)
}

// FindByID returns the product or a NOT_FOUND error.
func (r *Repository) FindByID(ctx context.Context, id int) (*Product, error) {
	found, ok, err := r.coll.Find(ctx, func(p Product) bool { return p.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(id)
	}
	return &found, nil
}

// Create allocates an id and appends the product.
func (r *Repository) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	status := input.InventoryStatus
	if status == "" {
		status = enums.InventoryStatusInStock
	}
	now := types.NewTimestamp(r.now())

	var created Product
	err := r.coll.Update(ctx, func(tx *jsonfile.Tx[Product]) error {
		created = Product{
			ID:                tx.NextID(),
			Code:              input.Code,
			Name:              input.Name,
			Description:       input.Description,
			Image:             input.Image,
			Category:          input.Category,
			Price:             input.Price,
			Quantity:          input.Quantity,
			InternalReference: input.InternalReference,
			ShellID:           input.ShellID,
			InventoryStatus:   status,
			Rating:            input.Rating,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		tx.Records = append(tx.Records, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update merges the non-nil fields of input into the stored product.
func (r *Repository) Update(ctx context.Context, id int, input UpdateProductInput) (*Product, error) {
	var updated Product
	err := r.coll.Update(ctx, func(tx *jsonfile.Tx[Product]) error {
		for i := range tx.Records {
			if tx.Records[i].ID != id {
				continue
			}
			applyUpdate(&tx.Records[i], input)
			tx.Records[i].UpdatedAt = types.NewTimestamp(r.now())
			updated = tx.Records[i]
			return nil
		}
		return notFound(id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the product. Items referencing it stay in carts and
// wishlists and are ignored when totals are computed.
func (r *Repository) Delete(ctx context.Context, id int) error {
	return r.coll.Update(ctx, func(tx *jsonfile.Tx[Product]) error {
		for i := range tx.Records {
			if tx.Records[i].ID == id {
				tx.Records = append(tx.Records[:i], tx.Records[i+1:]...)
				return nil
			}
		}
		return notFound(id)
	})
}

func applyUpdate(p *Product, input UpdateProductInput) {
	if input.Code != nil {
		p.Code = *input.Code
	}
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Image != nil {
		p.Image = *input.Image
	}
	if input.Category != nil {
		p.Category = *input.Category
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Quantity != nil {
		p.Quantity = *input.Quantity
	}
	if input.InternalReference != nil {
		p.InternalReference = *input.InternalReference
	}
	if input.ShellID != nil {
		p.ShellID = *input.ShellID
	}
	if input.InventoryStatus != nil {
		p.InventoryStatus = *input.InventoryStatus
	}
	if input.Rating != nil {
		p.Rating = *input.Rating
	}
}

func notFound(id int) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"productId": id})
}
