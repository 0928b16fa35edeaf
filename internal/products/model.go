package product

import (
	"encoding/json"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CollectionName is the storage collection holding the catalog.
const CollectionName = "products"

// Product is a catalog entry as stored in products.json.
type Product struct {
	ID                int                   `json:"id"`
	Code              string                `json:"code"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	Image             string                `json:"image"`
	Category          string                `json:"category"`
	Price             float64               `json:"price"`
	Quantity          int                   `json:"quantity"`
	InternalReference string                `json:"internalReference"`
	ShellID           int                   `json:"shellId"`
	InventoryStatus   enums.InventoryStatus `json:"inventoryStatus"`
	Rating            float64               `json:"rating"`
	CreatedAt         types.Timestamp       `json:"createdAt"`
	UpdatedAt         types.Timestamp       `json:"updatedAt"`
}

// UnmarshalJSON defaults a missing or empty inventoryStatus to INSTOCK.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	decoded := plain{InventoryStatus: enums.InventoryStatusInStock}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.InventoryStatus == "" {
		decoded.InventoryStatus = enums.InventoryStatusInStock
	}
	*p = Product(decoded)
	return nil
}

func productID(p Product) int {
	return p.ID
}
