package cdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mycok/uResolve/entity"
	"github.com/mycok/uResolve/record"
)

var (
	schemaQueries = []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id UUID PRIMARY KEY,
			collection STRING NOT NULL,
			properties BYTES NOT NULL,
			INDEX entities_collection_idx (collection)
		)`,
		`CREATE TABLE IF NOT EXISTS entity_links (
			old_id UUID PRIMARY KEY,
			new_id UUID NOT NULL
		)`,
	}

	writeEntityQuery = `
					UPSERT INTO entities (id, collection, properties)
					VALUES ($1, $2, $3)
					`

	getEntityQuery = "SELECT collection, properties FROM entities WHERE id=$1"

	entitiesQuery = "SELECT id, properties FROM entities WHERE collection=$1"

	linkEntityQuery = "UPSERT INTO entity_links (old_id, new_id) VALUES ($1, $2)"

	linkedIDQuery = "SELECT new_id FROM entity_links WHERE old_id=$1"
)

// Static and compile-time check to ensure CockroachDBEntityStore implements
// entity.Store interface.
var _ entity.Store = (*CockroachDBEntityStore)(nil)

// CockroachDBEntityStore implements a persistent entity store using a
// CockroachDB instance. Property maps are stored msgpack encoded.
type CockroachDBEntityStore struct {
	db *sql.DB
}

// NewCockroachDBEntityStore returns a CockroachDBEntityStore instance and
// makes sure that the required tables exist.
func NewCockroachDBEntityStore(dsn string) (*CockroachDBEntityStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	for _, q := range schemaQueries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create entity schema: %w", err)
		}
	}

	return &CockroachDBEntityStore{db: db}, nil
}

// Close terminates the connection to the backing cockroachDB instance.
func (s *CockroachDBEntityStore) Close() error {
	return s.db.Close()
}

// WriteEntity creates or replaces an entity.
func (s *CockroachDBEntityStore) WriteEntity(ctx context.Context, r *record.Record) error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("write entity: %w", entity.ErrMissingEntityID)
	}

	raw, err := msgpack.Marshal(map[string][]string(r.Properties))
	if err != nil {
		return fmt.Errorf("write entity %s: %w", r.ID, err)
	}

	if _, err = s.db.ExecContext(ctx, writeEntityQuery, r.ID, r.Collection, raw); err != nil {
		return fmt.Errorf("write entity %s: %w", r.ID, err)
	}

	return nil
}

// GetProperties returns the entity with the specified ID.
func (s *CockroachDBEntityStore) GetProperties(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	var (
		r   = &record.Record{ID: id}
		raw []byte
	)

	err := s.db.QueryRowContext(ctx, getEntityQuery, id).Scan(&r.Collection, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get entity %s: %w", id, entity.ErrNotFound)
		}

		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}

	if r.Properties, err = decodeProperties(raw); err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}

	return r, nil
}

// Entities returns an iterator over the entities of a collection.
func (s *CockroachDBEntityStore) Entities(ctx context.Context, collection string) (record.Iterator, error) {
	rows, err := s.db.QueryContext(ctx, entitiesQuery, collection)
	if err != nil {
		return nil, fmt.Errorf("entities: %w", err)
	}

	return &entityIterator{rows: rows, collection: collection}, nil
}

// LinkEntity records that oldID was merged into newID.
func (s *CockroachDBEntityStore) LinkEntity(ctx context.Context, oldID, newID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, linkEntityQuery, oldID, newID); err != nil {
		return fmt.Errorf("link entity %s: %w", oldID, err)
	}

	return nil
}

// LinkedID returns the canonical entity ID oldID was merged into.
func (s *CockroachDBEntityStore) LinkedID(ctx context.Context, oldID uuid.UUID) (uuid.UUID, error) {
	var newID uuid.UUID

	err := s.db.QueryRowContext(ctx, linkedIDQuery, oldID).Scan(&newID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("linked id %s: %w", oldID, entity.ErrNotFound)
		}

		return uuid.Nil, fmt.Errorf("linked id %s: %w", oldID, err)
	}

	return newID, nil
}

func decodeProperties(raw []byte) (record.Properties, error) {
	var props map[string][]string
	if err := msgpack.Unmarshal(raw, &props); err != nil {
		return nil, err
	}

	return props, nil
}
