package viewcache

import (
	"context"
	"time"
)

// Item is the minimal shape of a list entry. The collection's total order is
// (ItemCreatedAt DESC, ItemID DESC); the id breaks ties between items that
// share a timestamp.
type Item interface {
	ItemID() string
	ItemCreatedAt() time.Time
}

// Cursor is an opaque continuation token: the sort key of the last item of
// the previously fetched page. The next page starts strictly after it.
type Cursor struct {
	Before   time.Time `json:"before"`
	BeforeID string    `json:"beforeId"`
}

// CursorAfter builds the continuation token that follows it in the order.
func CursorAfter[T Item](it T) *Cursor {
	return &Cursor{Before: it.ItemCreatedAt(), BeforeID: it.ItemID()}
}

// Page is one server response. Next is nil exactly when the server returned
// fewer than the requested limit, i.e. there are no more pages.
type Page[T Item] struct {
	Items []T
	Next  *Cursor
}

// PageRequest describes one page fetch. Cursor is nil for the first page.
type PageRequest struct {
	WorkspaceID string
	Limit       int
	Cursor      *Cursor
}

// Source serves pages of an ordered collection. Implementations MUST return
// items strictly ordered by (createdAt DESC, id DESC), starting strictly
// after the cursor when one is given; the keyset contract is what makes
// pages contiguous under concurrent inserts. See transport/httpjson for the
// HTTP/JSON implementation.
type Source[T Item] interface {
	FetchPage(ctx context.Context, req PageRequest) (Page[T], error)
}

// Applier performs one field mutation server-side (e.g. PATCH /entities/{id}).
// Rejections surface as *ValidationError or *NotFoundError; any other error
// is treated as transient.
type Applier interface {
	Apply(ctx context.Context, id, field string, value any) error
}

// FetchFunc loads the authoritative value for a cache key.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Field gives the Mutator typed access to one mutable field of T.
// Set returns a new value rather than mutating in place so list updates stay
// snapshot-swaps.
type Field[T any] struct {
	Get func(T) any
	Set func(T, any) T
}
