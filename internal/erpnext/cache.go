package erpnext

import (
	gocache "github.com/patrickmn/go-cache"
)

// QueryCache memoizes listing results for the lifetime of a session. Entries
// never expire on their own; invalidation is wholesale (logout or filter
// change), never per-entry.
type QueryCache struct {
	cache *gocache.Cache
}

// NewQueryCache creates an empty session cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the memoized rows for a query key, if present.
func (qc *QueryCache) Get(key string) ([]Row, bool) {
	value, found := qc.cache.Get(key)
	if !found {
		return nil, false
	}
	rows, ok := value.([]Row)
	return rows, ok
}

// Set stores rows under a query key until the next flush.
func (qc *QueryCache) Set(key string, rows []Row) {
	qc.cache.Set(key, rows, gocache.NoExpiration)
}

// Flush drops every entry.
func (qc *QueryCache) Flush() {
	qc.cache.Flush()
}

// Len reports the number of live entries.
func (qc *QueryCache) Len() int {
	return qc.cache.ItemCount()
}
