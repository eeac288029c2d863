package search

import (
	"context"
	"encoding/json"
)

// Index names served by the catalog. The same names prefix cache keys.
const (
	IndexMovies  = "movies"
	IndexGenres  = "genres"
	IndexPersons = "persons"
)

// Pagination defaults applied when a Params field is left zero.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
)

// MaxWindow is the deepest from+size window the search backend serves.
// Unpaged enumerations (person filmographies) are capped here.
const MaxWindow = 10000

// Params carries pagination and ordering shared by list and search queries.
// Sort entries use the "-field" convention: a leading dash selects descending
// order, otherwise ascending.
type Params struct {
	PageNumber int
	PageSize   int
	Sort       []string
}

// Size returns the effective page size.
func (p Params) Size() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

// From returns the offset of the first hit for the requested page.
func (p Params) From() int {
	page := p.PageNumber
	if page <= 0 {
		page = DefaultPageNumber
	}
	return (page - 1) * p.Size()
}

// NestedFilter matches documents whose nested object list at Path contains an
// object with Field equal to Value. Several filters OR together.
type NestedFilter struct {
	Path  string
	Field string
	Value string
}

// Searcher reads documents from a single index. Implementations return raw
// document sources; callers decode them into their own types.
type Searcher interface {
	// GetByID fetches one document, ErrNotFound when the id is unknown.
	GetByID(ctx context.Context, id string) (json.RawMessage, error)
	// List pages through the index, optionally restricted by nested filters.
	List(ctx context.Context, params Params, nested []NestedFilter) ([]json.RawMessage, error)
	// TextSearch runs a full-text query over the given fields. An empty
	// query degrades to match-all list semantics.
	TextSearch(ctx context.Context, query string, fields []string, params Params) ([]json.RawMessage, error)
}
