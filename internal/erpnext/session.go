package erpnext

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"erpdash/internal/logger"
)

// Session ties an authenticated client, its pagination layer and the query
// cache into one explicit lifecycle: created before login, flushed at logout
// and whenever the active filter tuple changes. Nothing about it is ambient;
// every consumer receives the Session it should fetch through.
type Session struct {
	client      *Client
	fetcher     *Fetcher
	cache       *QueryCache
	lastFilters string
	log         zerolog.Logger
}

// NewSession creates an unauthenticated session against an ERPNext instance.
func NewSession(cfg ClientConfig, pageSize int) (*Session, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{
		client:  client,
		fetcher: NewFetcher(client, pageSize),
		cache:   NewQueryCache(),
		log:     logger.WithComponent("erpnext-session"),
	}, nil
}

// newSessionWith wires a session over an arbitrary Getter. Test seam.
func newSessionWith(getter Getter, user string, pageSize int) *Session {
	return &Session{
		client:  &Client{user: user, http: &http.Client{}},
		fetcher: NewFetcher(getter, pageSize),
		cache:   NewQueryCache(),
		log:     logger.WithComponent("erpnext-session"),
	}
}

// Login authenticates the session. Any cached results from a previous
// identity are dropped first.
func (s *Session) Login(ctx context.Context, user, password string) error {
	s.cache.Flush()
	s.lastFilters = ""
	return s.client.Login(ctx, user, password)
}

// Logout ends the remote session and flushes the cache wholesale.
func (s *Session) Logout(ctx context.Context) {
	s.client.Logout(ctx)
	s.cache.Flush()
	s.lastFilters = ""
}

// User returns the session's identity token ("" before login).
func (s *Session) User() string {
	return s.client.User()
}

// SetActiveFilters records the user-facing filter tuple (companies, date
// range, drafts flag). When the tuple differs from the previously recorded
// one the whole cache is flushed, even though individual fetches are keyed
// separately: a conservative flush that avoids serving stale cross-screen
// data after a filter edit.
func (s *Session) SetActiveFilters(filters string) {
	if s.lastFilters != "" && s.lastFilters != filters {
		s.log.Debug().Str("filters", filters).Msg("Filter tuple changed, flushing query cache")
		s.cache.Flush()
	}
	s.lastFilters = filters
}

// FetchAll retrieves the complete result set for a query, memoized for the
// lifetime of the session. Two identical queries under the same identity
// return the same rows without a second network round-trip.
func (s *Session) FetchAll(ctx context.Context, q ListQuery) ([]Row, error) {
	key, err := s.cacheKey(q)
	if err != nil {
		return nil, err
	}

	if rows, ok := s.cache.Get(key); ok {
		s.log.Debug().Str("doctype", q.Doctype).Int("rows", len(rows)).Msg("Query cache hit")
		return rows, nil
	}

	rows, err := s.fetcher.FetchAll(ctx, q)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, rows)
	return rows, nil
}

// cacheKey derives the memoization key from the full query parameter tuple
// plus the session identity token.
func (s *Session) cacheKey(q ListQuery) (string, error) {
	encoded, err := json.Marshal(struct {
		Doctype  string
		Fields   []string
		Filters  []Filter
		OrderBy  string
		PageSize int
		User     string
	}{q.Doctype, q.Fields, q.Filters, q.OrderBy, q.PageSize, s.client.User()})
	if err != nil {
		return "", &FetchError{Op: "cacheKey", Path: q.path(), Err: fmt.Errorf("encoding cache key: %w", err)}
	}
	return string(encoded), nil
}
