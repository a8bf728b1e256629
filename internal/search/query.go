// internal/search/query.go
package search

const (
	defaultSize = 20
	maxSize     = 100
)

// Query filters the incident index. Empty fields are ignored.
type Query struct {
	Text     string `json:"text,omitempty"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
	Status   string `json:"status,omitempty"`
	Size     int    `json:"size,omitempty"`
}

func (q Query) size() int {
	switch {
	case q.Size < 1:
		return defaultSize
	case q.Size > maxSize:
		return maxSize
	default:
		return q.Size
	}
}

// BuildQuery returns the search body for q, newest incidents first.
func BuildQuery(q Query) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"title^2", "description", "tags"},
				"type":   "best_fields",
			},
		})
	}

	for _, term := range []struct{ field, value string }{
		{"category", q.Category},
		{"priority", q.Priority},
		{"status", q.Status},
	} {
		if term.value == "" {
			continue
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{term.field: term.value},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []map[string]interface{}{
			{"createdAt": "desc"},
			{"id": "desc"},
		},
	}
}
