package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/storage/jsonfile"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Repository loads and saves one Cart per user in the collection selected
// by its Kind.
type Repository struct {
	kind Kind
	coll *jsonfile.Collection[Cart]
	now  func() time.Time
}

func NewRepository(store *jsonfile.Store, kind Kind) (*Repository, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown cart kind %q", string(kind))
	}
	coll, err := jsonfile.NewCollection(store, kind.CollectionName(), cartID)
	if err != nil {
		return nil, fmt.Errorf("%s collection: %w", kind, err)
	}
	return &Repository{kind: kind, coll: coll, now: time.Now}, nil
}

// Get returns the user's record, creating and persisting an empty one with a
// fresh id on first access. The existence check is repeated under the
// collection lock so concurrent first accesses create a single record.
func (r *Repository) Get(ctx context.Context, userID int) (*Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	found, ok, err := r.coll.Find(ctx, func(c Cart) bool { return c.UserID == userID })
	if err != nil {
		return nil, err
	}
	if ok {
		r.kind.normalize(&found)
		return &found, nil
	}

	var out Cart
	err = r.coll.Update(ctx, func(tx *jsonfile.Tx[Cart]) error {
		idx := r.findOrCreate(tx, userID)
		out = tx.Records[idx].clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.kind.normalize(&out)
	return &out, nil
}

// Save replaces the record with the same id, or appends it when no record
// has that id. A record without an id is given one.
func (r *Repository) Save(ctx context.Context, c *Cart) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", r.kind))
	}
	if err := validateUserID(c.UserID); err != nil {
		return err
	}
	r.kind.normalize(c)

	return r.coll.Update(ctx, func(tx *jsonfile.Tx[Cart]) error {
		if c.ID == 0 {
			c.ID = tx.NextID()
		}
		record := c.clone()
		for i := range tx.Records {
			if tx.Records[i].ID == record.ID {
				tx.Records[i] = record
				return nil
			}
		}
		for i, raw := range tx.Opaque() {
			if opaqueID(raw) == record.ID {
				tx.Restore(i, record)
				return nil
			}
		}
		tx.Records = append(tx.Records, record)
		return nil
	})
}

// Mutate loads or creates the user's record, applies fn and saves the
// result, holding the collection lock throughout. When fn fails nothing is
// written.
func (r *Repository) Mutate(ctx context.Context, userID int, fn func(c *Cart) error) (*Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var out Cart
	err := r.coll.Update(ctx, func(tx *jsonfile.Tx[Cart]) error {
		idx := r.findOrCreate(tx, userID)
		working := tx.Records[idx].clone()
		r.kind.normalize(&working)
		if err := fn(&working); err != nil {
			return err
		}
		r.kind.normalize(&working)
		tx.Records[idx] = working
		out = working.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// findOrCreate returns the index of the first record owned by userID,
// appending an empty one when there is none. A record of the user that
// failed to decode is restored in place with the items that still decode.
func (r *Repository) findOrCreate(tx *jsonfile.Tx[Cart], userID int) int {
	for i := range tx.Records {
		if tx.Records[i].UserID == userID {
			return i
		}
	}
	now := types.NewTimestamp(r.now())
	for i, raw := range tx.Opaque() {
		if salvaged, ok := salvage(raw, userID); ok {
			if salvaged.ID <= 0 {
				salvaged.ID = tx.NextID()
			}
			if salvaged.CreatedAt.IsZero() {
				salvaged.CreatedAt = now
			}
			salvaged.UpdatedAt = now
			return tx.Restore(i, salvaged)
		}
	}
	tx.Records = append(tx.Records, Cart{
		ID:        tx.NextID(),
		UserID:    userID,
		Items:     []Item{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	return len(tx.Records) - 1
}

// salvage reads what it can of an undecodable record owned by userID.
func salvage(raw json.RawMessage, userID int) (Cart, bool) {
	var wire struct {
		ID        json.RawMessage `json:"id"`
		UserID    json.RawMessage `json:"userId"`
		Items     json.RawMessage `json:"items"`
		CreatedAt types.Timestamp `json:"createdAt"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Cart{}, false
	}
	who, err := decodeOwner(nil, wire.UserID)
	if err != nil || who.userID != userID {
		return Cart{}, false
	}
	out := Cart{UserID: userID, Items: []Item{}, CreatedAt: wire.CreatedAt}
	if id, err := types.DecodeInt(wire.ID); err == nil {
		out.ID = id
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(wire.Items, &elements); err == nil {
		for _, element := range elements {
			var item Item
			if err := json.Unmarshal(element, &item); err == nil {
				out.Items = append(out.Items, item)
			}
		}
	}
	return out, true
}

func opaqueID(raw json.RawMessage) int {
	var wire struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return 0
	}
	id, err := types.DecodeInt(wire.ID)
	if err != nil {
		return 0
	}
	return id
}

func validateUserID(userID int) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id must be positive")
	}
	return nil
}
