package erpnext

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"erpdash/internal/logger"
)

// Filter is one conjunctive predicate of a listing request, expressed the way
// the API expects it: a [field, operator, value] triple.
type Filter struct {
	Field string
	Op    string
	Value any
}

// ListQuery describes one complete listing: which doctype, which fields,
// which filters (combined with logical AND) and in which order.
type ListQuery struct {
	// Doctype is the resource name, e.g. "Sales Invoice".
	Doctype string

	// Fields is the field-selection list. Duplicates are dropped, first
	// occurrence wins.
	Fields []string

	// Filters are ANDed predicates.
	Filters []Filter

	// OrderBy is the sort specification, e.g. "posting_date asc, name asc".
	OrderBy string

	// PageSize overrides the fetcher's page-size hint when positive.
	PageSize int
}

func (q ListQuery) path() string {
	return "/api/resource/" + url.PathEscape(q.Doctype)
}

func (q ListQuery) params(pageSize, offset int) (url.Values, error) {
	fields, err := json.Marshal(lo.Uniq(q.Fields))
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}

	params := url.Values{}
	params.Set("fields", string(fields))
	params.Set("limit_page_length", strconv.Itoa(pageSize))
	params.Set("limit_start", strconv.Itoa(offset))
	if q.OrderBy != "" {
		params.Set("order_by", q.OrderBy)
	}

	if len(q.Filters) > 0 {
		triples := make([][3]any, 0, len(q.Filters))
		for _, f := range q.Filters {
			triples = append(triples, [3]any{f.Field, f.Op, f.Value})
		}
		filters, err := json.Marshal(triples)
		if err != nil {
			return nil, fmt.Errorf("encoding filters: %w", err)
		}
		params.Set("filters", string(filters))
	}

	return params, nil
}

// Fetcher paginates listing queries into complete result sets.
type Fetcher struct {
	getter   Getter
	pageSize int
	log      zerolog.Logger
}

// DefaultPageSize is the page-size hint used when neither the fetcher nor the
// query specifies one. The server may silently cap the effective size below
// the hint; pagination stays correct regardless.
const DefaultPageSize = 1000

// NewFetcher creates a Fetcher on top of an authenticated Getter.
func NewFetcher(getter Getter, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{
		getter:   getter,
		pageSize: pageSize,
		log:      logger.WithComponent("erpnext-fetcher"),
	}
}

// FetchAll retrieves every row matching the query, page by page.
//
// The offset of each request is the number of rows actually received so far,
// not page-index times page-size, so progress survives a server that caps the
// effective page size below the hint. Iteration stops on an empty page or on
// a page shorter than the most recently returned one; no further page is
// requested after that.
func (f *Fetcher) FetchAll(ctx context.Context, q ListQuery) ([]Row, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = f.pageSize
	}

	var rows []Row
	offset := 0
	lastLen := -1

	for {
		params, err := q.params(pageSize, offset)
		if err != nil {
			return nil, &FetchError{Op: "FetchAll", Path: q.path(), Err: err}
		}

		page, err := f.getter.Get(ctx, q.path(), params)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		rows = append(rows, page...)
		offset += len(page)

		f.log.Debug().
			Str("doctype", q.Doctype).
			Int("page_rows", len(page)).
			Int("total_rows", offset).
			Msg("Fetched listing page")

		// A page shorter than its predecessor means the backing set is
		// exhausted even when the server caps pages below the hint.
		if lastLen >= 0 && len(page) < lastLen {
			break
		}
		lastLen = len(page)
	}

	f.log.Info().
		Str("doctype", q.Doctype).
		Int("rows", len(rows)).
		Msg("Listing fetch completed")
	return rows, nil
}
