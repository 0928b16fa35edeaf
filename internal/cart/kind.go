package cart

import "fmt"

// Kind selects which per-user collection a repository works on.
type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	return k == KindCart || k == KindWishlist
}

// CollectionName returns the storage collection backing the kind.
func (k Kind) CollectionName() string {
	switch k {
	case KindCart:
		return "carts"
	case KindWishlist:
		return "wishlists"
	default:
		panic(fmt.Sprintf("unknown cart kind %q", string(k)))
	}
}

// normalize fixes up a record loaded from disk: items are never nil and
// wishlist quantities are always 1.
func (k Kind) normalize(c *Cart) {
	if c.Items == nil {
		c.Items = []Item{}
	}
	if k != KindWishlist {
		return
	}
	for i := range c.Items {
		c.Items[i].Quantity = 1
	}
}
