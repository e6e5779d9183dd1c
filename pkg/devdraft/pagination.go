package devdraft

import (
	"context"
	"iter"
	"net/url"
	"strconv"

	"github.com/devdraft/saligen/internal/constants"
)

// CursorOptions names the query parameter and response fields of a
// cursor-paginated endpoint. Empty fields take the defaults shown.
type CursorOptions struct {
	CursorParam   string // "cursor"
	ItemsKey      string // "items"
	NextCursorKey string // "nextCursor"
	HasMoreKey    string // "hasMore"
}

// DefaultCursorOptions returns the default cursor pagination field names.
func DefaultCursorOptions() *CursorOptions {
	return &CursorOptions{
		CursorParam:   constants.DefaultCursorParam,
		ItemsKey:      constants.DefaultItemsKey,
		NextCursorKey: constants.DefaultNextCursorKey,
		HasMoreKey:    constants.DefaultHasMoreKey,
	}
}

func (o *CursorOptions) withDefaults() CursorOptions {
	out := *DefaultCursorOptions()
	if o == nil {
		return out
	}

	if o.CursorParam != "" {
		out.CursorParam = o.CursorParam
	}

	if o.ItemsKey != "" {
		out.ItemsKey = o.ItemsKey
	}

	if o.NextCursorKey != "" {
		out.NextCursorKey = o.NextCursorKey
	}

	if o.HasMoreKey != "" {
		out.HasMoreKey = o.HasMoreKey
	}

	return out
}

// PageOptions names the query parameters and response fields of a
// page-numbered endpoint. Empty fields take the defaults shown.
type PageOptions struct {
	PageParam     string // "page"
	PerPageParam  string // "perPage"
	PerPage       int    // not sent when 0
	ItemsKey      string // "items"
	TotalPagesKey string // "totalPages"
}

// DefaultPageOptions returns the default page pagination field names.
func DefaultPageOptions() *PageOptions {
	return &PageOptions{
		PageParam:     constants.DefaultPageParam,
		PerPageParam:  constants.DefaultPerPageParam,
		ItemsKey:      constants.DefaultItemsKey,
		TotalPagesKey: constants.DefaultTotalPagesKey,
	}
}

func (o *PageOptions) withDefaults() PageOptions {
	out := *DefaultPageOptions()
	if o == nil {
		return out
	}

	if o.PageParam != "" {
		out.PageParam = o.PageParam
	}

	if o.PerPageParam != "" {
		out.PerPageParam = o.PerPageParam
	}

	if o.ItemsKey != "" {
		out.ItemsKey = o.ItemsKey
	}

	if o.TotalPagesKey != "" {
		out.TotalPagesKey = o.TotalPagesKey
	}

	out.PerPage = o.PerPage

	return out
}

// pageFetcher loads the next page into the buffer, reporting whether more
// pages may follow.
type pageFetcher func(ctx context.Context) (items []Value, more bool, err error)

// iterator is the consumer-driven core shared by both pagination strategies.
// Pages are fetched only when the buffer is empty and the consumer asks for
// more; nothing is prefetched.
type iterator struct {
	ctx   context.Context
	fetch pageFetcher
	buf   []Value
	done  bool
	err   error
}

// HasNext reports whether another item is available, fetching pages as needed.
func (it *iterator) HasNext() bool {
	for len(it.buf) == 0 && !it.done && it.err == nil {
		items, more, err := it.fetch(it.ctx)
		if err != nil {
			it.err = err

			break
		}

		it.buf = items
		it.done = !more
	}

	return len(it.buf) > 0
}

// Next returns the next item. It returns the fetch error that stopped the
// iteration, or ErrNoMoreItems once the sequence is exhausted.
func (it *iterator) Next() (Value, error) {
	if !it.HasNext() {
		if it.err != nil {
			return Null, it.err
		}

		return Null, ErrNoMoreItems
	}

	item := it.buf[0]
	it.buf = it.buf[1:]

	return item, nil
}

// Err returns the error that stopped the iteration, if any.
func (it *iterator) Err() error {
	return it.err
}

// ForEach calls fn for every remaining item, stopping at the first error.
func (it *iterator) ForEach(fn func(Value) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return it.err
}

// All drains the iterator, preserving order.
func (it *iterator) All() ([]Value, error) {
	var items []Value

	err := it.ForEach(func(item Value) error {
		items = append(items, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// Seq exposes the iterator as a range-over-func sequence. A fetch error is
// yielded once, with a Null item, and ends the sequence.
func (it *iterator) Seq() iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		for it.HasNext() {
			item, _ := it.Next()
			if !yield(item, nil) {
				return
			}
		}

		if it.err != nil {
			yield(Null, it.err)
		}
	}
}

// CursorIterator walks a cursor-paginated endpoint item by item.
type CursorIterator struct {
	iterator
}

// NewCursorIterator creates an iterator that requests path with the current
// cursor merged into query. The first request carries no cursor. Iteration
// stops when the has-more field is falsy or no next cursor is returned,
// whichever comes first.
func NewCursorIterator(ctx context.Context, client Getter, path string, query url.Values, opts *CursorOptions) *CursorIterator {
	options := opts.withDefaults()
	params := cloneValues(query)
	cursor := ""

	fetch := func(ctx context.Context) ([]Value, bool, error) {
		if cursor != "" {
			params.Set(options.CursorParam, cursor)
		}

		response, err := client.Get(ctx, path, params)
		if err != nil {
			return nil, false, err
		}

		items := response.Get(options.ItemsKey).Array()
		cursor = response.Get(options.NextCursorKey).Text()
		hasMore := response.Get(options.HasMoreKey).Truthy()

		return items, cursor != "" && hasMore, nil
	}

	return &CursorIterator{iterator{ctx: ctx, fetch: fetch}}
}

// PageIterator walks a page-numbered endpoint item by item.
type PageIterator struct {
	iterator
}

// NewPageIterator creates an iterator that requests pages 1, 2, ... of path.
// The total page count is re-read from every response and defaults to the
// current page when absent, which ends the iteration.
func NewPageIterator(ctx context.Context, client Getter, path string, query url.Values, opts *PageOptions) *PageIterator {
	options := opts.withDefaults()
	params := cloneValues(query)
	page := 1
	totalPages := 1

	if options.PerPage > 0 {
		params.Set(options.PerPageParam, strconv.Itoa(options.PerPage))
	}

	fetch := func(ctx context.Context) ([]Value, bool, error) {
		params.Set(options.PageParam, strconv.Itoa(page))

		response, err := client.Get(ctx, path, params)
		if err != nil {
			return nil, false, err
		}

		items := response.Get(options.ItemsKey).Array()

		totalPages = page
		if total, ok := response.Get(options.TotalPagesKey).Int(); ok {
			totalPages = int(total)
		}

		page++

		return items, page <= totalPages, nil
	}

	return &PageIterator{iterator{ctx: ctx, fetch: fetch}}
}

// FetchAllCursor drains a cursor-paginated endpoint into a slice.
func FetchAllCursor(ctx context.Context, client Getter, path string, query url.Values, opts *CursorOptions) ([]Value, error) {
	return NewCursorIterator(ctx, client, path, query, opts).All()
}

// FetchAllPages drains a page-numbered endpoint into a slice.
func FetchAllPages(ctx context.Context, client Getter, path string, query url.Values, opts *PageOptions) ([]Value, error) {
	return NewPageIterator(ctx, client, path, query, opts).All()
}

func cloneValues(query url.Values) url.Values {
	params := make(url.Values, len(query))
	for key, values := range query {
		params[key] = append([]string(nil), values...)
	}

	return params
}
