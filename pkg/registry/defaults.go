// pkg/registry/defaults.go
package registry

var statusEnum = []interface{}{"Open", "Investigating", "In Progress", "Resolved", "Closed"}

// Default is the built-in registry of incident triage activities. Incident
// fields are normalized by the classifier, which treats mistyped values as
// absent, so the schemas only constrain what the store needs.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2024-06-01",
		Activities: []Activity{
			{
				ID:          "classify-incident",
				DisplayName: "Classify Incident",
				Description: "Assigns a category and priority to an incident report",
				Category:    "triage",
				Version:     "1.0.0",
				TaskType:    "classify-incident",
				InputSchema: map[string]interface{}{
					"type": "object",
				},
				ErrorCodes: []string{"PARSE_ERROR", "INCIDENT_VALIDATION_FAILED"},
				Timeout:    "10s",
				Retries:    0,
				Tags:       []string{"triage", "classification"},
			},
			{
				ID:          "create-incident-record",
				DisplayName: "Create Incident Record",
				Description: "Classifies, persists, indexes and pages a new incident",
				Category:    "triage",
				Version:     "1.0.0",
				TaskType:    "create-incident-record",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"title"},
					"properties": map[string]interface{}{
						"title":  map[string]interface{}{"type": "string", "minLength": 1},
						"status": map[string]interface{}{"type": "string", "enum": statusEnum},
					},
				},
				ErrorCodes: []string{
					"PARSE_ERROR", "INCIDENT_VALIDATION_FAILED", "INVALID_STATUS",
					"DATABASE_INSERT_FAILED", "QUERY_TIMEOUT",
				},
				Timeout: "30s",
				Retries: 3,
				Tags:    []string{"triage", "persistence"},
			},
			{
				ID:          "update-incident-status",
				DisplayName: "Update Incident Status",
				Description: "Moves an incident to a new lifecycle status",
				Category:    "triage",
				Version:     "1.0.0",
				TaskType:    "update-incident-status",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"incidentId", "status"},
					"properties": map[string]interface{}{
						"incidentId": map[string]interface{}{"type": "integer", "minimum": 1},
						"status":     map[string]interface{}{"type": "string", "enum": statusEnum},
					},
				},
				ErrorCodes: []string{
					"PARSE_ERROR", "INCIDENT_VALIDATION_FAILED", "INVALID_STATUS",
					"INCIDENT_NOT_FOUND", "QUERY_EXECUTION_FAILED", "QUERY_TIMEOUT",
				},
				Timeout: "10s",
				Retries: 3,
				Tags:    []string{"triage", "lifecycle"},
			},
			{
				ID:          "query-incidents",
				DisplayName: "Query Incidents",
				Description: "Lists, fetches or searches incidents",
				Category:    "data-access",
				Version:     "1.0.0",
				TaskType:    "query-incidents",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"queryType"},
					"properties": map[string]interface{}{
						"queryType":  map[string]interface{}{"type": "string", "enum": []interface{}{"all", "byId", "search"}},
						"incidentId": map[string]interface{}{"type": "integer", "minimum": 1},
						"text":       map[string]interface{}{"type": "string"},
						"category":   map[string]interface{}{"type": "string"},
						"priority":   map[string]interface{}{"type": "string", "enum": []interface{}{"P0", "P1", "P2"}},
						"status":     map[string]interface{}{"type": "string", "enum": statusEnum},
						"size":       map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100},
					},
				},
				ErrorCodes: []string{
					"PARSE_ERROR", "INVALID_QUERY_TYPE", "INCIDENT_NOT_FOUND",
					"QUERY_EXECUTION_FAILED", "QUERY_TIMEOUT", "SEARCH_QUERY_FAILED", "SEARCH_TIMEOUT",
				},
				Timeout: "15s",
				Retries: 2,
				Tags:    []string{"data-access"},
			},
		},
	}
}
