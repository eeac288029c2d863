package elastic

import (
	"strings"

	"github.com/kinohub/moviesearch/internal/search"
)

// textQuery renders the full-text clause: a fuzzy match for a single field,
// a multi_match across several. A blank query yields no clause at all.
func textQuery(query string, fields []string) map[string]any {
	if strings.TrimSpace(query) == "" || len(fields) == 0 {
		return nil
	}
	if len(fields) == 1 {
		return map[string]any{
			"match": map[string]any{
				fields[0]: map[string]any{
					"query":     query,
					"fuzziness": "auto",
				},
			},
		}
	}
	return map[string]any{
		"multi_match": map[string]any{
			"query":  query,
			"fields": fields,
		},
	}
}

// nestedQuery renders one nested-object filter.
func nestedQuery(f search.NestedFilter) map[string]any {
	return map[string]any{
		"nested": map[string]any{
			"path": f.Path,
			"query": map[string]any{
				"bool": map[string]any{
					"filter": map[string]any{
						"term": map[string]any{
							f.Path + "." + f.Field: f.Value,
						},
					},
				},
			},
		},
	}
}

// buildSearchBody assembles the request body shared by List and TextSearch:
// pagination window, bool query (text clause as must, nested filters as
// should so any of them qualifies a document) and ordering with a relevance
// tiebreaker.
func buildSearchBody(params search.Params, text map[string]any, nested []search.NestedFilter) map[string]any {
	boolClause := map[string]any{}
	if text != nil {
		boolClause["must"] = []any{text}
	}
	if len(nested) > 0 {
		should := make([]any, 0, len(nested))
		for _, f := range nested {
			should = append(should, nestedQuery(f))
		}
		boolClause["should"] = should
	}

	sort := make([]any, 0, len(params.Sort)+1)
	for _, field := range params.Sort {
		field = strings.TrimSpace(field)
		if field == "" || field == "-" {
			continue
		}
		order := "asc"
		if strings.HasPrefix(field, "-") {
			field, order = field[1:], "desc"
		}
		sort = append(sort, map[string]any{field: order})
	}
	sort = append(sort, map[string]any{"_score": "desc"})

	return map[string]any{
		"from":  params.From(),
		"size":  params.Size(),
		"query": map[string]any{"bool": boolClause},
		"sort":  sort,
	}
}
