package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/search/query"
	"github.com/google/uuid"

	"github.com/mycok/uResolve/record"
	"github.com/mycok/uResolve/record/index"
)

// Static and compile-time check to ensure InMemoryIndex implements index.Index.
var _ index.Index = (*InMemoryIndex)(nil)

type bleveDoc struct {
	Collection string
	Text       string
}

// InMemoryIndex is an index.Index implementation that uses a bleve instance
// to index and search records but keeps its index in memory.
type InMemoryIndex struct {
	mu      sync.RWMutex
	records map[string]*record.Record
	idx     bleve.Index
}

// NewInMemoryIndex instantiates and returns a candidate index that
// uses an in-memory bleve instance to index records.
func NewInMemoryIndex() (*InMemoryIndex, error) {
	// Collections are matched verbatim.
	collectionField := bleve.NewTextFieldMapping()
	collectionField.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Collection", collectionField)
	docMapping.AddFieldMappingsAt("Text", bleve.NewTextFieldMapping())

	mapping := bleve.NewIndexMapping()
	mapping.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}

	return &InMemoryIndex{
		idx:     idx,
		records: make(map[string]*record.Record),
	}, nil
}

// Close releases / frees any previously allocated resources.
func (s *InMemoryIndex) Close() error {
	return s.idx.Close()
}

// Index adds a new record or updates an existing index entry.
func (s *InMemoryIndex) Index(_ context.Context, r *record.Record) error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("index: %w", index.ErrMissingRecordID)
	}

	rCopy := r.Clone()
	key := rCopy.ID.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.idx.Index(key, bleveDoc{Collection: rCopy.Collection, Text: rCopy.Text()}); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	s.records[key] = rCopy

	return nil
}

// FindByID looks up a record by its ID.
func (s *InMemoryIndex) FindByID(_ context.Context, id uuid.UUID) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, exists := s.records[id.String()]; exists {
		return r.Clone(), nil
	}

	return nil, fmt.Errorf("find by ID: %w", index.ErrNotFound)
}

// FindCandidates returns the IDs of the records that best match the query
// record.
func (s *InMemoryIndex) FindCandidates(_ context.Context, q index.Query) ([]uuid.UUID, error) {
	text := q.Record.Text()
	if text == "" {
		return nil, nil
	}

	textQuery := bleve.NewMatchQuery(text)
	textQuery.SetField("Text")

	var bleveQuery query.Query = textQuery
	if len(q.Collections) != 0 {
		scope := make([]query.Query, 0, len(q.Collections))
		for _, collection := range q.Collections {
			tq := bleve.NewTermQuery(collection)
			tq.SetField("Collection")
			scope = append(scope, tq)
		}

		bleveQuery = bleve.NewConjunctionQuery(textQuery, bleve.NewDisjunctionQuery(scope...))
	}

	limit := q.BlockSize()

	// Ask for one more hit as the query record is usually its own best match.
	searchReq := bleve.NewSearchRequest(bleveQuery)
	searchReq.Size = limit + 1

	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, err := s.idx.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	self := q.Record.ID.String()
	candidates := make([]uuid.UUID, 0, limit)
	for _, hit := range sr.Hits {
		if hit.ID == self {
			continue
		}

		if len(candidates) == limit {
			break
		}

		id, err := uuid.Parse(hit.ID)
		if err != nil {
			return nil, fmt.Errorf("find candidates: %w", err)
		}

		candidates = append(candidates, id)
	}

	return candidates, nil
}
