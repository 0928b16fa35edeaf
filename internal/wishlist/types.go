package wishlist

import (
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// WishlistDTO is the wishlist as returned to clients. TotalItems counts
// entries.
type WishlistDTO struct {
	ID         int             `json:"id"`
	UserID     int             `json:"userId"`
	Items      []cart.Item     `json:"items"`
	CreatedAt  types.Timestamp `json:"createdAt"`
	UpdatedAt  types.Timestamp `json:"updatedAt"`
	TotalItems int             `json:"totalItems"`
}

// WishlistIDsDTO is a lightweight projection containing only product ids.
type WishlistIDsDTO struct {
	ProductIDs []int `json:"productIds"`
}

func newWishlistDTO(w *cart.Cart) *WishlistDTO {
	return &WishlistDTO{
		ID:         w.ID,
		UserID:     w.UserID,
		Items:      w.Items,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
		TotalItems: len(w.Items),
	}
}
