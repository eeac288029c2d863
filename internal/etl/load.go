package etl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
)

// Loader writes documents into the search indices in bulk.
type Loader struct {
	es *elasticsearch.Client
}

// NewLoader returns a Loader on the given client.
func NewLoader(es *elasticsearch.Client) *Loader {
	return &Loader{es: es}
}

// Document pairs a document id with its index body.
type Document struct {
	ID   string
	Body any
}

// Bulk indexes the documents and reports how many were accepted. When
// the index rejects individual documents the rest still land, so a
// partial count comes back together with the error.
func (l *Loader) Bulk(ctx context.Context, index string, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{"index": map[string]any{"_index": index, "_id": doc.ID}}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return 0, fmt.Errorf("etl: encode bulk action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc.Body); err != nil {
			return 0, fmt.Errorf("etl: encode document %q: %w", doc.ID, err)
		}
	}

	res, err := l.es.Bulk(bytes.NewReader(buf.Bytes()), l.es.Bulk.WithContext(ctx), l.es.Bulk.WithIndex(index))
	if err != nil {
		return 0, fmt.Errorf("etl: bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("etl: bulk request failed: %s", res.String())
	}

	var report struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string `json:"_id"`
			Error *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&report); err != nil {
		return 0, fmt.Errorf("etl: decode bulk response: %w", err)
	}
	if !report.Errors {
		return len(docs), nil
	}

	indexed := 0
	failed := 0
	firstFailure := ""
	for _, item := range report.Items {
		for _, result := range item {
			if result.Error == nil {
				indexed++
				continue
			}
			failed++
			if firstFailure == "" {
				firstFailure = fmt.Sprintf("%s: %s %s", result.ID, result.Error.Type, result.Error.Reason)
			}
		}
	}
	return indexed, fmt.Errorf("etl: %d of %d documents rejected, first: %s", failed, len(docs), firstFailure)
}
