package devdraft_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdraft/saligen/pkg/devdraft"
)

var errPageFailed = errors.New("page failed")

// MockGetter serves canned pages keyed by the encoded query string.
type MockGetter struct {
	pages   map[string]string
	queries []url.Values
	failAt  int
}

func (m *MockGetter) Get(ctx context.Context, path string, query url.Values) (devdraft.Value, error) {
	snapshot := url.Values{}
	for key, values := range query {
		snapshot[key] = append([]string(nil), values...)
	}

	m.queries = append(m.queries, snapshot)

	if m.failAt > 0 && len(m.queries) == m.failAt {
		return devdraft.Null, errPageFailed
	}

	body, ok := m.pages[query.Encode()]
	if !ok {
		return devdraft.Null, nil
	}

	return devdraft.ParseValue([]byte(body))
}

func texts(items []devdraft.Value) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Text())
	}

	return out
}

func TestCursorIterator_TwoPages(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"":         `{"items":["a","b"],"nextCursor":"x","hasMore":true}`,
		"cursor=x": `{"items":["c"],"nextCursor":null,"hasMore":false}`,
	}}

	items, err := devdraft.FetchAllCursor(context.Background(), getter, "/transfers", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, texts(items))
	assert.Len(t, getter.queries, 2)
	assert.Empty(t, getter.queries[0].Get("cursor"))
}

func TestCursorIterator_MissingCursorStopsDespiteHasMore(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"": `{"items":["a"],"hasMore":true}`,
	}}

	items, err := devdraft.FetchAllCursor(context.Background(), getter, "/transfers", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, texts(items))
	assert.Len(t, getter.queries, 1)
}

func TestCursorIterator_FalsyHasMoreStops(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"": `{"items":["a"],"nextCursor":"x","hasMore":0}`,
	}}

	items, err := devdraft.FetchAllCursor(context.Background(), getter, "/transfers", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, texts(items))
	assert.Len(t, getter.queries, 1)
}

func TestCursorIterator_CustomKeysAndBaseQuery(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"limit=2":            `{"data":["a","b"],"next":"p2","more":true}`,
		"after=p2&limit=2":   `{"data":["c","d"],"next":"p3","more":true}`,
		"after=p3&limit=2":   `{"data":[],"next":"","more":false}`,
		"after=p4&limit=999": `{"data":["never"]}`,
	}}

	opts := &devdraft.CursorOptions{CursorParam: "after", ItemsKey: "data", NextCursorKey: "next", HasMoreKey: "more"}
	query := url.Values{"limit": []string{"2"}}

	items, err := devdraft.FetchAllCursor(context.Background(), getter, "/wallets", query, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, texts(items))
	assert.Equal(t, url.Values{"limit": []string{"2"}}, query, "caller's query must not be modified")
}

func TestPageIterator_TwoPages(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"page=1": `{"items":["a"],"totalPages":2}`,
		"page=2": `{"items":["b"],"totalPages":2}`,
	}}

	items, err := devdraft.FetchAllPages(context.Background(), getter, "/invoices", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts(items))
	require.Len(t, getter.queries, 2)
	assert.Equal(t, "1", getter.queries[0].Get("page"))
	assert.Equal(t, "2", getter.queries[1].Get("page"))
}

func TestPageIterator_MissingTotalStopsAfterCurrentPage(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"page=1": `{"items":["a","b"]}`,
		"page=2": `{"items":["c"]}`,
	}}

	items, err := devdraft.FetchAllPages(context.Background(), getter, "/invoices", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts(items))
	assert.Len(t, getter.queries, 1)
}

func TestPageIterator_EmptyPageInTheMiddle(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"page=1&perPage=1": `{"items":["a"],"totalPages":3}`,
		"page=2&perPage=1": `{"items":[],"totalPages":3}`,
		"page=3&perPage=1": `{"items":["c"],"totalPages":3}`,
	}}

	items, err := devdraft.FetchAllPages(context.Background(), getter, "/invoices", nil, &devdraft.PageOptions{PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, texts(items))
	assert.Len(t, getter.queries, 3)
}

func TestIterator_IsLazy(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"page=1": `{"items":["a","b"],"totalPages":2}`,
		"page=2": `{"items":["c"],"totalPages":2}`,
	}}

	it := devdraft.NewPageIterator(context.Background(), getter, "/invoices", nil, nil)
	assert.Empty(t, getter.queries)

	item, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", item.Text())
	assert.Len(t, getter.queries, 1)

	item, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", item.Text())
	assert.Len(t, getter.queries, 1)

	assert.True(t, it.HasNext())
	assert.Len(t, getter.queries, 2)

	_, err = it.Next()
	require.NoError(t, err)

	assert.False(t, it.HasNext())

	_, err = it.Next()
	require.ErrorIs(t, err, devdraft.ErrNoMoreItems)
}

func TestIterator_FetchErrorStopsIteration(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{
		pages: map[string]string{
			"page=1": `{"items":["a"],"totalPages":5}`,
		},
		failAt: 2,
	}

	it := devdraft.NewPageIterator(context.Background(), getter, "/invoices", nil, nil)

	var seen []string

	err := it.ForEach(func(item devdraft.Value) error {
		seen = append(seen, item.Text())

		return nil
	})
	require.ErrorIs(t, err, errPageFailed)
	require.ErrorIs(t, it.Err(), errPageFailed)
	assert.Equal(t, []string{"a"}, seen)
	assert.False(t, it.HasNext())
	assert.Len(t, getter.queries, 2)
}

func TestIterator_Seq(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"":         `{"items":["a","b"],"nextCursor":"x","hasMore":true}`,
		"cursor=x": `{"items":["c"],"hasMore":false}`,
	}}

	var seen []string

	for item, err := range devdraft.NewCursorIterator(context.Background(), getter, "/transfers", nil, nil).Seq() {
		require.NoError(t, err)

		seen = append(seen, item.Text())
		if len(seen) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Len(t, getter.queries, 1)
}

func TestIterator_SeqYieldsError(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{failAt: 1}

	var errs []error

	for item, err := range devdraft.NewCursorIterator(context.Background(), getter, "/transfers", nil, nil).Seq() {
		assert.True(t, item.IsNull())

		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], errPageFailed)
}

func TestIterator_FreshStatePerIteration(t *testing.T) {
	t.Parallel()

	getter := &MockGetter{pages: map[string]string{
		"page=1": `{"items":["a"],"totalPages":1}`,
	}}

	for range 2 {
		items, err := devdraft.FetchAllPages(context.Background(), getter, "/invoices", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, texts(items))
	}

	assert.Len(t, getter.queries, 2)
}
