package elastic

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/kinohub/moviesearch/internal/search"
)

//go:embed mappings/*.json
var mappingFS embed.FS

// EnsureIndices creates any catalog index that does not exist yet, using the
// embedded mappings. Existing indices are left untouched.
func EnsureIndices(ctx context.Context, es *elasticsearch.Client, log *slog.Logger) error {
	for _, index := range []string{search.IndexMovies, search.IndexGenres, search.IndexPersons} {
		exists, err := indexExists(ctx, es, index)
		if err != nil {
			return fmt.Errorf("check index %s: %w", index, err)
		}
		if exists {
			continue
		}
		if err := createIndex(ctx, es, index); err != nil {
			return err
		}
		log.Info("index created", "index", index)
	}
	return nil
}

func indexExists(ctx context.Context, es *elasticsearch.Client, index string) (bool, error) {
	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("unexpected status %s", res.Status())
	}
	return true, nil
}

func createIndex(ctx context.Context, es *elasticsearch.Client, index string) error {
	mapping, err := mappingFS.ReadFile("mappings/" + index + ".json")
	if err != nil {
		return fmt.Errorf("load mapping for %s: %w", index, err)
	}
	res, err := es.Indices.Create(
		index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(strings.NewReader(string(mapping))),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
