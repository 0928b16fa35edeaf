package types

// SuccessEnvelope wraps every 2xx body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// Page is one slice of an id-ordered listing. NextCursor is empty on the
// last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NewPage never returns a nil Items slice so empty pages encode as [].
func NewPage[T any](items []T, nextCursor string) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, NextCursor: nextCursor}
}

// APIError is the body of a failed request. Retryable is set for errors a
// client may retry unchanged, such as a busy collection.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
