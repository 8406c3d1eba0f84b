package pagination

import (
	"context"
	"time"
)

// DefaultPageSize is used when a Paginator is built with a non-positive size.
const DefaultPageSize = 20

// Timestamped is implemented by items that can be paged by creation time.
// Lists handed to a Paginator must be ordered by Timestamp descending.
type Timestamped interface {
	Timestamp() time.Time
}

// Query is a reverse-chronological range query. Nil bounds are open.
// Limit <= 0 means unlimited.
type Query struct {
	CreatedAtGT *time.Time
	CreatedAtLT *time.Time
	Limit       int
}

// RangeQueryer is the store-backed candidate source. Implementations must
// return items ordered by (created_at DESC, id DESC).
type RangeQueryer[T any] interface {
	RangeQuery(ctx context.Context, q Query) ([]T, error)
}

// RangeQueryFunc adapts a function to RangeQueryer.
type RangeQueryFunc[T any] func(ctx context.Context, q Query) ([]T, error)

// RangeQuery calls f(ctx, q).
func (f RangeQueryFunc[T]) RangeQuery(ctx context.Context, q Query) ([]T, error) {
	return f(ctx, q)
}

// Source reports where a page was served from.
type Source string

const (
	SourceCache Source = "cache"
	SourceStore Source = "store"
)

// Page is one page of items plus the metadata a client needs to request the
// next one.
type Page[T Timestamped] struct {
	Items       []T
	HasNextPage bool
}

// NewestAt returns the timestamp of the first item, or nil for an empty page.
func (p Page[T]) NewestAt() *time.Time {
	if len(p.Items) == 0 {
		return nil
	}
	t := p.Items[0].Timestamp()
	return &t
}

// OldestAt returns the timestamp of the last item, or nil for an empty page.
func (p Page[T]) OldestAt() *time.Time {
	if len(p.Items) == 0 {
		return nil
	}
	t := p.Items[len(p.Items)-1].Timestamp()
	return &t
}

// Paginator computes pages of PageSize items. ListLimit is the recency
// cache's over-retention limit: a cached list shorter than ListLimit is known
// to mirror the store completely.
type Paginator[T Timestamped] struct {
	PageSize  int
	ListLimit int
}

// New returns a Paginator with the given page size and cache list limit.
func New[T Timestamped](pageSize, listLimit int) Paginator[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Paginator[T]{PageSize: pageSize, ListLimit: listLimit}
}

// WithPageSize returns a copy using size when it is positive.
func (p Paginator[T]) WithPageSize(size int) Paginator[T] {
	if size > 0 {
		p.PageSize = size
	}
	return p
}

func (p Paginator[T]) pageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

// PaginateList computes a page from an in-memory, newest-first list.
//
//   - NewerThan: the prefix of items strictly newer than the cursor;
//     HasNextPage is always false.
//   - OlderThan: up to PageSize items starting at the first item strictly
//     older than the cursor; empty when there is none.
//   - None: the first PageSize items.
func (p Paginator[T]) PaginateList(list []T, c Cursor) Page[T] {
	size := p.pageSize()

	switch c.Kind {
	case CursorNewerThan:
		out := make([]T, 0)
		for _, item := range list {
			if !item.Timestamp().After(c.At) {
				break
			}
			out = append(out, item)
		}
		return Page[T]{Items: out}

	case CursorOlderThan:
		start := -1
		for i, item := range list {
			if item.Timestamp().Before(c.At) {
				start = i
				break
			}
		}
		if start < 0 {
			return Page[T]{Items: make([]T, 0)}
		}
		return window(list, start, size)

	default:
		return window(list, 0, size)
	}
}

func window[T Timestamped](list []T, start, size int) Page[T] {
	end := start + size
	if end > len(list) {
		end = len(list)
	}
	out := make([]T, end-start)
	copy(out, list[start:end])
	return Page[T]{Items: out, HasNextPage: len(list) > start+size}
}

// PaginateStore runs the cursor logic as a range query against the store.
// Scroll-back and first-page requests fetch PageSize+1 rows to learn whether a
// next page exists without a COUNT.
func (p Paginator[T]) PaginateStore(ctx context.Context, store RangeQueryer[T], c Cursor) (Page[T], error) {
	size := p.pageSize()

	if c.Kind == CursorNewerThan {
		at := c.At
		items, err := store.RangeQuery(ctx, Query{CreatedAtGT: &at})
		if err != nil {
			return Page[T]{}, err
		}
		if items == nil {
			items = make([]T, 0)
		}
		return Page[T]{Items: items}, nil
	}

	q := Query{Limit: size + 1}
	if c.Kind == CursorOlderThan {
		at := c.At
		q.CreatedAtLT = &at
	}
	items, err := store.RangeQuery(ctx, q)
	if err != nil {
		return Page[T]{}, err
	}
	hasNext := len(items) > size
	if hasNext {
		items = items[:size]
	}
	if items == nil {
		items = make([]T, 0)
	}
	return Page[T]{Items: items, HasNextPage: hasNext}, nil
}

// PaginateCached computes a page from a cached list and reports whether the
// cached data was sufficient. It is sufficient when the cursor is a refresh
// cursor, when the list still holds items past the page, or when the list is
// shorter than ListLimit and therefore a complete mirror. Otherwise the cache
// may have been trimmed before the point the cursor needs and ok is false.
func (p Paginator[T]) PaginateCached(list []T, c Cursor) (page Page[T], ok bool) {
	page = p.PaginateList(list, c)
	switch {
	case c.Kind == CursorNewerThan:
		return page, true
	case page.HasNextPage:
		return page, true
	case len(list) < p.ListLimit:
		return page, true
	default:
		return Page[T]{}, false
	}
}

// Paginate serves a page from cached when PaginateCached accepts it and
// re-runs the cursor against store otherwise.
func (p Paginator[T]) Paginate(ctx context.Context, cached []T, store RangeQueryer[T], c Cursor) (Page[T], Source, error) {
	if page, ok := p.PaginateCached(cached, c); ok {
		return page, SourceCache, nil
	}
	page, err := p.PaginateStore(ctx, store, c)
	return page, SourceStore, err
}
