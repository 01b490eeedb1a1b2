package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/mycok/uResolve/record"
	"github.com/mycok/uResolve/record/index"
)

// Static and compile-time check to ensure ElasticsearchIndex implements index.Index.
var _ index.Index = (*ElasticsearchIndex)(nil)

// The name of the elasticsearch index to use.
const indexName = "records"

// JSON data structure that defines the properties of an elasticsearch
// document.
var esMappings = `
{
  "mappings" : {
    "properties": {
      "ID": {"type": "keyword"},
      "Collection": {"type": "keyword"},
      "Text": {"type": "text"},
      "Properties": {"type": "object", "enabled": false}
    }
  }
}`

type esSearchRes struct {
	Hits esSearchResHits `json:"hits"`
}

type esSearchResHits struct {
	HitList []esHitWrapper `json:"hits"`
}

type esHitWrapper struct {
	DocSource esDoc `json:"_source"`
}

type esDoc struct {
	ID         string              `json:"ID"`
	Collection string              `json:"Collection"`
	Text       string              `json:"Text"`
	Properties map[string][]string `json:"Properties"`
}

type esIndexRes struct {
	Result string `json:"result"`
}

type esErrorRes struct {
	Error esError `json:"error"`
}

type esError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e esError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// ElasticsearchIndex is an index.Index implementation that uses
// elasticsearch to index and search records.
type ElasticsearchIndex struct {
	client      *elasticsearch.Client
	refreshOpts func(*esapi.IndexRequest)
}

// NewElasticsearchIndex instantiates and returns an index that uses an
// elasticsearch cluster to index and query records. When syncUpdates is
// set, every write refreshes the index before returning.
func NewElasticsearchIndex(esNodes []string, syncUpdates bool) (*ElasticsearchIndex, error) {
	c, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: esNodes})
	if err != nil {
		return nil, err
	}

	if err = initIndex(c); err != nil {
		return nil, err
	}

	refreshOpts := c.Index.WithRefresh("false")
	if syncUpdates {
		refreshOpts = c.Index.WithRefresh("true")
	}

	return &ElasticsearchIndex{
		client:      c,
		refreshOpts: refreshOpts,
	}, nil
}

// Index adds a new record or updates an existing index entry.
func (s *ElasticsearchIndex) Index(ctx context.Context, r *record.Record) error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("index: %w", index.ErrMissingRecordID)
	}

	var (
		buf bytes.Buffer
		doc = makeEsDoc(r)
	)

	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	// Index replaces the whole document so that stale property values
	// never survive an update.
	res, err := s.client.Index(
		indexName, &buf,
		s.client.Index.WithDocumentID(doc.ID),
		s.client.Index.WithContext(ctx),
		s.refreshOpts,
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	var indexRes esIndexRes
	if err = unmarshalResponse(res, &indexRes); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	return nil
}

// FindByID looks up a record by its ID.
func (s *ElasticsearchIndex) FindByID(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"ID": id.String(),
			},
		},
		"from": 0,
		"size": 1,
	}

	searchRes, err := performSearch(ctx, s.client, query)
	if err != nil {
		return nil, fmt.Errorf("find by ID: %w", err)
	}

	if len(searchRes.Hits.HitList) == 0 {
		return nil, fmt.Errorf("find by ID: %w", index.ErrNotFound)
	}

	return esDocToRecord(&searchRes.Hits.HitList[0].DocSource)
}

// FindCandidates returns the IDs of the records that best match the query
// record.
func (s *ElasticsearchIndex) FindCandidates(ctx context.Context, q index.Query) ([]uuid.UUID, error) {
	text := q.Record.Text()
	if text == "" {
		return nil, nil
	}

	boolQuery := map[string]interface{}{
		"must": map[string]interface{}{
			"match": map[string]interface{}{
				"Text": text,
			},
		},
		"must_not": map[string]interface{}{
			"term": map[string]interface{}{
				"ID": q.Record.ID.String(),
			},
		},
	}

	if len(q.Collections) != 0 {
		boolQuery["filter"] = map[string]interface{}{
			"terms": map[string]interface{}{
				"Collection": q.Collections,
			},
		}
	}

	query := map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"_source": []string{"ID"},
		"from":    0,
		"size":    q.BlockSize(),
	}

	searchRes, err := performSearch(ctx, s.client, query)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	candidates := make([]uuid.UUID, 0, len(searchRes.Hits.HitList))
	for _, hit := range searchRes.Hits.HitList {
		id, err := uuid.Parse(hit.DocSource.ID)
		if err != nil {
			return nil, fmt.Errorf("find candidates: %w", err)
		}

		candidates = append(candidates, id)
	}

	return candidates, nil
}

func performSearch(
	ctx context.Context, client *elasticsearch.Client, query map[string]interface{},
) (*esSearchRes, error) {
	var buf bytes.Buffer

	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(indexName),
		client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}

	var esRes esSearchRes
	if err = unmarshalResponse(res, &esRes); err != nil {
		return nil, err
	}

	return &esRes, nil
}

func initIndex(client *elasticsearch.Client) error {
	res, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(esMappings)),
	)
	// Index creation fails due to client issues, ie network connection issues.
	if err != nil {
		return fmt.Errorf("failed to create ES index: %w", err)
	}

	if res.IsError() {
		err = unmarshalResponse(res, nil)

		var esErr esError
		if errors.As(err, &esErr) && esErr.Type == "resource_already_exists_exception" {
			return nil
		}

		return fmt.Errorf("failed to create ES index: %w", err)
	}

	return res.Body.Close()
}

func unmarshalResponse(res *esapi.Response, into interface{}) error {
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		var errRes esErrorRes
		if err := json.NewDecoder(res.Body).Decode(&errRes); err != nil {
			return err
		}

		return errRes.Error
	}

	return json.NewDecoder(res.Body).Decode(into)
}

func esDocToRecord(doc *esDoc) (*record.Record, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}

	var props record.Properties
	if doc.Properties != nil {
		props = record.Properties(doc.Properties)
	}

	return &record.Record{
		ID:         id,
		Collection: doc.Collection,
		Properties: props,
	}, nil
}

func makeEsDoc(r *record.Record) esDoc {
	return esDoc{
		ID:         r.ID.String(),
		Collection: r.Collection,
		Text:       r.Text(),
		Properties: r.Properties,
	}
}
