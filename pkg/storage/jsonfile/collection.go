package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Collection is a typed view over one collection of a Store.
type Collection[T any] struct {
	store *Store
	name  string
	idOf  func(T) int
}

// NewCollection binds a record type to a collection name. idOf reports the
// identifier of a decoded record and is used for id allocation.
func NewCollection[T any](store *Store, name string, idOf func(T) int) (*Collection[T], error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if idOf == nil {
		return nil, fmt.Errorf("id accessor is required")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Collection[T]{store: store, name: name, idOf: idOf}, nil
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Read decodes every record of the collection. Elements that do not decode
// into T are logged and left out.
func (c *Collection[T]) Read(ctx context.Context) ([]T, error) {
	raw, err := c.store.read(ctx, c.name)
	if err != nil {
		return nil, err
	}
	records, _ := c.decode(ctx, raw)
	return records, nil
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(ctx context.Context, pred func(T) bool) (T, bool, error) {
	var zero T
	records, err := c.Read(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, record := range records {
		if pred(record) {
			return record, true, nil
		}
	}
	return zero, false, nil
}

// Write replaces every decodable record of the collection with records.
// Elements that do not decode into T stay where they are in the file.
func (c *Collection[T]) Write(ctx context.Context, records []T) error {
	return c.Update(ctx, func(tx *Tx[T]) error {
		tx.Records = records
		return nil
	})
}

func (c *Collection[T]) NextID(ctx context.Context) (int, error) {
	return c.store.NextID(ctx, c.name)
}

// Tx is the locked working copy handed to Update callbacks.
type Tx[T any] struct {
	Records []T

	ctx       context.Context
	coll      *Collection[T]
	maxOnDisk int
	opaque    []opaqueRecord
}

// opaqueRecord is a file element that did not decode into T. before counts
// the decoded records that preceded it, which fixes its position on write.
type opaqueRecord struct {
	raw    json.RawMessage
	before int
}

// NextID allocates an id while the collection lock is held. Ids already
// present in Records count as taken.
func (tx *Tx[T]) NextID() int {
	highest := tx.maxOnDisk
	for _, record := range tx.Records {
		if id := tx.coll.idOf(record); id > highest {
			highest = id
		}
	}
	return tx.coll.store.allocate(tx.coll.name, highest)
}

// Opaque returns the elements that did not decode into T, in file order.
// The slice is a copy; use Restore to bring one back into Records.
func (tx *Tx[T]) Opaque() []json.RawMessage {
	out := make([]json.RawMessage, len(tx.opaque))
	for i, o := range tx.opaque {
		out[i] = o.raw
	}
	return out
}

// Restore replaces the i-th opaque element with record at the same position
// in the file and returns the index of record in Records. It must be called
// before Records is reordered.
func (tx *Tx[T]) Restore(i int, record T) int {
	pos := min(tx.opaque[i].before, len(tx.Records))
	tx.Records = slices.Insert(tx.Records, pos, record)
	tx.opaque = slices.Delete(tx.opaque, i, i+1)
	for j := i; j < len(tx.opaque); j++ {
		tx.opaque[j].before++
	}
	logg := tx.coll.store.logg
	logg.Warn(logg.WithField(logg.WithCollection(tx.ctx, tx.coll.name), "position", pos), "storage.record.restored")
	return pos
}

// Update runs read, fn, write as one unit under the collection lock. The
// collection is written only when fn returns nil. Elements that could not be
// decoded are written back untouched at their original positions.
func (c *Collection[T]) Update(ctx context.Context, fn func(tx *Tx[T]) error) error {
	return c.store.WithLock(ctx, c.name, func() error {
		raw, err := c.store.read(ctx, c.name)
		if err != nil {
			return err
		}
		records, opaque := c.decode(ctx, raw)
		tx := &Tx[T]{
			Records:   records,
			ctx:       ctx,
			coll:      c,
			maxOnDisk: maxRawID(raw),
			opaque:    opaque,
		}
		if err := fn(tx); err != nil {
			return err
		}

		encoded, err := encodeAll(tx.Records)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode collection %s", c.name))
		}
		return c.store.write(c.name, interleave(encoded, tx.opaque))
	})
}

func (c *Collection[T]) decode(ctx context.Context, raw []json.RawMessage) ([]T, []opaqueRecord) {
	records := make([]T, 0, len(raw))
	var opaque []opaqueRecord
	logCtx := c.store.logg.WithCollection(ctx, c.name)
	for i, element := range raw {
		var record T
		if err := json.Unmarshal(element, &record); err != nil {
			opaque = append(opaque, opaqueRecord{raw: element, before: len(records)})
			c.store.logg.Warn(c.store.logg.WithFields(logCtx, map[string]any{
				"index": i,
				"error": err.Error(),
			}), "storage.record.skipped")
			continue
		}
		records = append(records, record)
	}
	return records, opaque
}

// interleave puts every opaque element back after the decoded records that
// preceded it when it was read. Positions past the end collapse to the end.
func interleave(records []json.RawMessage, opaque []opaqueRecord) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(records)+len(opaque))
	next := 0
	for _, o := range opaque {
		if upto := min(o.before, len(records)); upto > next {
			out = append(out, records[next:upto]...)
			next = upto
		}
		out = append(out, o.raw)
	}
	return append(out, records[next:]...)
}

func encodeAll[T any](records []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
