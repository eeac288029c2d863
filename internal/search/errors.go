package search

import "errors"

// ErrNotFound indicates a document was not located in the index.
var ErrNotFound = errors.New("search: not found")
