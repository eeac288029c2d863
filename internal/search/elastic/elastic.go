package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/kinohub/moviesearch/internal/search"
)

// Index implements search.Searcher over one Elasticsearch index.
type Index struct {
	es    *elasticsearch.Client
	index string
}

// New binds a Searcher to the given index.
func New(es *elasticsearch.Client, index string) *Index {
	return &Index{es: es, index: index}
}

var _ search.Searcher = (*Index)(nil)

// GetByID fetches a single document by id.
func (i *Index) GetByID(ctx context.Context, id string) (json.RawMessage, error) {
	res, err := i.es.Get(i.index, id, i.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", i.index, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, search.ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s/%s: %s", i.index, id, res.Status())
	}

	var doc struct {
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", i.index, id, err)
	}
	return doc.Source, nil
}

// List pages through the index with optional nested filters.
func (i *Index) List(ctx context.Context, params search.Params, nested []search.NestedFilter) ([]json.RawMessage, error) {
	return i.search(ctx, buildSearchBody(params, nil, nested))
}

// TextSearch runs a full-text query over the given fields.
func (i *Index) TextSearch(ctx context.Context, query string, fields []string, params search.Params) ([]json.RawMessage, error) {
	return i.search(ctx, buildSearchBody(params, textQuery(query, fields), nil))
}

func (i *Index) search(ctx context.Context, body map[string]any) ([]json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query for %s: %w", i.index, err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", i.index, res.Status())
	}

	var payload struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search %s: %w", i.index, err)
	}

	sources := make([]json.RawMessage, 0, len(payload.Hits.Hits))
	for _, hit := range payload.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	return sources, nil
}
