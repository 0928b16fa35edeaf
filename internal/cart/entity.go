package cart

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Item references a product with a quantity. Wishlist items always carry 1.
type Item struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Cart is the per-user record stored in carts.json and, with the same shape,
// wishlists.json.
type Cart struct {
	ID        int             `json:"id"`
	UserID    int             `json:"userId"`
	Items     []Item          `json:"items"`
	CreatedAt types.Timestamp `json:"createdAt"`
	UpdatedAt types.Timestamp `json:"updatedAt"`
}

// UnmarshalJSON accepts ids and quantities written as numeric strings.
func (i *Item) UnmarshalJSON(data []byte) error {
	var wire struct {
		ProductID json.RawMessage `json:"productId"`
		Quantity  json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	productID, err := types.DecodeInt(wire.ProductID)
	if err != nil {
		return fmt.Errorf("productId: %w", err)
	}
	quantity, err := types.DecodeInt(wire.Quantity)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*i = Item{ProductID: productID, Quantity: quantity}
	return nil
}

type cartFields Cart

// UnmarshalJSON accepts id and userId written as numeric strings.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var wire struct {
		cartFields
		ID     json.RawMessage `json:"id"`
		UserID json.RawMessage `json:"userId"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	owner, err := decodeOwner(wire.ID, wire.UserID)
	if err != nil {
		return err
	}
	*c = Cart(wire.cartFields)
	c.ID, c.UserID = owner.id, owner.userID
	return nil
}

type owner struct {
	id     int
	userID int
}

func decodeOwner(id, userID json.RawMessage) (owner, error) {
	var out owner
	var err error
	if out.id, err = types.DecodeInt(id); err != nil {
		return owner{}, fmt.Errorf("id: %w", err)
	}
	if out.userID, err = types.DecodeInt(userID); err != nil {
		return owner{}, fmt.Errorf("userId: %w", err)
	}
	return out, nil
}

// AddItem appends an item without looking for an existing entry; callers
// check HasItem first.
func (c *Cart) AddItem(productID, quantity int) {
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	c.touch()
}

// RemoveItem drops every item for productID. Removing an absent product is a
// no-op.
func (c *Cart) RemoveItem(productID int) {
	kept := make([]Item, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.touch()
}

// UpdateItemQuantity overwrites the quantity of the first item for
// productID. It reports whether such an item existed; updatedAt only moves
// when it did.
func (c *Cart) UpdateItemQuantity(productID, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.touch()
			return true
		}
	}
	return false
}

func (c *Cart) HasItem(productID int) bool {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// TotalItems sums the item quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) clone() Cart {
	out := *c
	out.Items = append(make([]Item, 0, len(c.Items)), c.Items...)
	return out
}

func (c *Cart) touch() {
	c.UpdatedAt = types.Now()
}

func cartID(c Cart) int {
	return c.ID
}
