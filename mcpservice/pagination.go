package mcpservice

import (
	"errors"
	"fmt"
	"strconv"
)

// Page couples a slice of items with an optional continuation cursor. A nil
// NextCursor means the listing is complete.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// PageOption customizes a Page produced by NewPage.
type PageOption[T any] func(*Page[T])

// WithNextCursor marks the page as partial and records the cursor that
// retrieves the next window.
func WithNextCursor[T any](cursor string) PageOption[T] {
	return func(p *Page[T]) {
		c := cursor
		p.NextCursor = &c
	}
}

// NewPage builds a Page from items. Nil slices are normalized to empty so
// callers can marshal the result without a nil check.
func NewPage[T any](items []T, opts ...PageOption[T]) Page[T] {
	if items == nil {
		items = []T{}
	}
	p := Page[T]{Items: items}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// ErrInvalidCursor reports a pagination cursor that this server never issued.
// The stdio handler surfaces it to clients as an invalid-params error.
var ErrInvalidCursor = errors.New("invalid cursor")

// parseCursor decodes the opaque cursors produced by the built-in containers,
// which are integer offsets into a stable snapshot. A nil or empty cursor
// selects the first window.
func parseCursor(cursor *string) (int, error) {
	if cursor == nil || *cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(*cursor)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, *cursor)
	}
	return n, nil
}

// pageSlice cuts one window of size pageSize out of all, starting at the
// offset encoded in cursor. Offsets at or past the end yield an empty final
// page rather than an error so that clients draining a shrinking snapshot
// terminate cleanly.
func pageSlice[T any](all []T, pageSize int, cursor *string) (Page[T], error) {
	start, err := parseCursor(cursor)
	if err != nil {
		return Page[T]{}, err
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if start >= len(all) {
		return NewPage([]T{}), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	window := make([]T, end-start)
	copy(window, all[start:end])
	if end < len(all) {
		return NewPage(window, WithNextCursor[T](strconv.Itoa(end))), nil
	}
	return NewPage(window), nil
}

// defaultPageSize bounds list responses when a container was not given an
// explicit page size.
const defaultPageSize = 50
