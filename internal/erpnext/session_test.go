package erpnext

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGetter struct {
	rows  []Row
	calls int
}

func (g *countingGetter) Get(context.Context, string, url.Values) ([]Row, error) {
	g.calls++
	if g.calls%2 == 1 {
		return g.rows, nil
	}
	return nil, nil // empty page ends every fetch after one data page
}

func TestSessionMemoizesIdenticalQueries(t *testing.T) {
	getter := &countingGetter{rows: makeRows(3)}
	session := newSessionWith(getter, "reporter@example.com", 10)

	q := ListQuery{Doctype: "Sales Invoice", Fields: []string{"name"}}

	first, err := session.FetchAll(context.Background(), q)
	require.NoError(t, err)
	callsAfterFirst := getter.calls

	second, err := session.FetchAll(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, getter.calls, "identical query must be served from cache")
}

func TestSessionKeysQueriesSeparately(t *testing.T) {
	getter := &countingGetter{rows: makeRows(2)}
	session := newSessionWith(getter, "reporter@example.com", 10)

	_, err := session.FetchAll(context.Background(), ListQuery{Doctype: "Customer", Fields: []string{"name"}})
	require.NoError(t, err)
	callsAfterFirst := getter.calls

	// Same doctype, different filter value: distinct cache entry.
	_, err = session.FetchAll(context.Background(), ListQuery{
		Doctype: "Customer",
		Fields:  []string{"name"},
		Filters: []Filter{{Field: "disabled", Op: "=", Value: 0}},
	})
	require.NoError(t, err)

	assert.Greater(t, getter.calls, callsAfterFirst)
}

func TestSessionFlushesCacheOnFilterChange(t *testing.T) {
	getter := &countingGetter{rows: makeRows(4)}
	session := newSessionWith(getter, "reporter@example.com", 10)

	q := ListQuery{Doctype: "Sales Invoice", Fields: []string{"name"}}

	session.SetActiveFilters("Acme SA|2026-01-01|2026-03-31|false")
	_, err := session.FetchAll(context.Background(), q)
	require.NoError(t, err)
	callsAfterFirst := getter.calls

	// Re-recording the same tuple keeps the cache warm.
	session.SetActiveFilters("Acme SA|2026-01-01|2026-03-31|false")
	_, err = session.FetchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, getter.calls)

	// A changed date range flushes everything and forces a fresh fetch.
	session.SetActiveFilters("Acme SA|2026-04-01|2026-06-30|false")
	_, err = session.FetchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Greater(t, getter.calls, callsAfterFirst)
}

func TestSessionLogoutFlushesCache(t *testing.T) {
	getter := &countingGetter{rows: makeRows(1)}
	session := newSessionWith(getter, "reporter@example.com", 10)

	q := ListQuery{Doctype: "Supplier", Fields: []string{"name"}}

	_, err := session.FetchAll(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, session.cache.Len())

	session.Logout(context.Background())
	assert.Equal(t, 0, session.cache.Len())
	assert.Equal(t, "", session.User())
}
