package pagination

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many records any page can hold.
	MaxLimit = 100

	cursorPrefix = "id:"
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds an opaque cursor pointing after the record with id.
func EncodeCursor(id int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(id)))
}

// ParseCursor decodes a cursor back into the id it points after. An empty
// cursor means the first page and decodes as 0.
func ParseCursor(value string) (int, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return 0, fmt.Errorf("decode cursor: %w", err)
	}
	raw, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid cursor format")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid cursor id")
	}
	return id, nil
}

// Page orders items by id and returns the records after the cursor along with
// the cursor of the following page, empty on the last one.
func Page[T any](items []T, idOf func(T) int, params Params) ([]T, string, error) {
	after, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := NormalizeLimit(params.Limit)

	sorted := make([]T, 0, len(items))
	for _, item := range items {
		if idOf(item) > after {
			sorted = append(sorted, item)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return idOf(sorted[i]) < idOf(sorted[j]) })

	if len(sorted) <= limit {
		return sorted, "", nil
	}
	page := sorted[:limit]
	return page, EncodeCursor(idOf(page[len(page)-1])), nil
}
