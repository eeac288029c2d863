package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kinohub/moviesearch/internal/search"
)

var (
	errBadPageNumber = errors.New("page_number must be a positive integer")
	errBadPageSize   = errors.New("page_size must be a positive integer")
)

// parseListParams reads the pagination and ordering query parameters
// shared by every list endpoint. sort may repeat; a leading minus on a
// value requests descending order.
func parseListParams(req *http.Request) (search.Params, error) {
	query := req.URL.Query()
	params := search.Params{Sort: query["sort"]}

	if raw := query.Get("page_number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return search.Params{}, errBadPageNumber
		}
		params.PageNumber = n
	}
	if raw := query.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return search.Params{}, errBadPageSize
		}
		params.PageSize = n
	}
	return params, nil
}
