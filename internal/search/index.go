// internal/search/index.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"incident-triage/internal/common/logger"
	"incident-triage/internal/models"
)

const DefaultIndex = "incidents"

var (
	ErrSearchFailed = errors.New("search failed")
	ErrIndexFailed  = errors.New("index failed")
)

const incidentMapping = `{
	"mappings": {
		"properties": {
			"id": {"type": "long"},
			"title": {"type": "text"},
			"description": {"type": "text"},
			"severity": {"type": "keyword"},
			"category": {"type": "keyword"},
			"priority": {"type": "keyword"},
			"status": {"type": "keyword"},
			"serviceAffected": {"type": "keyword"},
			"rootCauseCategory": {"type": "keyword"},
			"tags": {"type": "text"},
			"createdAt": {"type": "date"}
		}
	}
}`

// Index keeps a searchable copy of incidents in Elasticsearch.
type Index struct {
	client *elasticsearch.Client
	name   string
	logger logger.Logger
}

// Result is one page of search hits.
type Result struct {
	Incidents []models.Incident `json:"incidents"`
	TotalHits int64             `json:"totalHits"`
	Took      int64             `json:"took"`
}

func New(client *elasticsearch.Client, name string, log logger.Logger) *Index {
	if name == "" {
		name = DefaultIndex
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Index{
		client: client,
		name:   name,
		logger: log.WithFields(map[string]interface{}{"component": "incident-search", "index": name}),
	}
}

func (i *Index) Name() string { return i.name }

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.name}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: check index: %v", ErrIndexFailed, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: check index: %s", ErrIndexFailed, res.Status())
	}

	res, err = i.client.Indices.Create(i.name,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(incidentMapping)),
	)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: create index: %s", ErrIndexFailed, res.String())
	}
	i.logger.Info("created search index", nil)
	return nil
}

// DeleteIndex drops the index and every document in it. A missing index is
// not an error.
func (i *Index) DeleteIndex(ctx context.Context) error {
	req := esapi.IndicesDeleteRequest{Index: []string{i.name}}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: delete index: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("%w: delete index: %s", ErrIndexFailed, res.String())
	}
	i.logger.Info("deleted search index", nil)
	return nil
}

// Reset drops and recreates the index so it matches an emptied store.
func (i *Index) Reset(ctx context.Context) error {
	if err := i.DeleteIndex(ctx); err != nil {
		return err
	}
	return i.EnsureIndex(ctx)
}

// Index writes inc under its numeric ID, replacing any earlier copy.
func (i *Index) Index(ctx context.Context, inc *models.Incident) error {
	body, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("%w: encode incident: %v", ErrIndexFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.name,
		DocumentID: strconv.FormatInt(inc.ID, 10),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}
	return nil
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Incident `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs q against the index.
func (i *Index) Search(ctx context.Context, q Query) (*Result, error) {
	body, err := json.Marshal(BuildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	size := q.size()
	req := esapi.SearchRequest{
		Index: []string{i.name},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	result := &Result{
		Incidents: make([]models.Incident, 0, len(r.Hits.Hits)),
		TotalHits: r.Hits.Total.Value,
		Took:      r.Took,
	}
	for _, hit := range r.Hits.Hits {
		result.Incidents = append(result.Incidents, hit.Source)
	}
	return result, nil
}
