// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeAll    QueryType = "all"
	QueryTypeByID   QueryType = "byId"
	QueryTypeSearch QueryType = "search"
)
