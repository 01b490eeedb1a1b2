package cdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/entity/entitytest"
)

var _ = check.Suite(new(cockroachDBEntityStoreTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type cockroachDBEntityStoreTestSuite struct {
	db *sql.DB
	entitytest.BaseSuite
}

func (s *cockroachDBEntityStoreTestSuite) SetUpSuite(c *check.C) {
	dsn := os.Getenv("CDB_DSN")
	if dsn == "" {
		c.Skip("Missing CDB_DSN envvar: skipping cockroachDB backed test suite")
	}

	store, err := NewCockroachDBEntityStore(dsn)
	c.Assert(err, check.IsNil)

	s.SetStore(store)
	s.db = store.db
}

func (s *cockroachDBEntityStoreTestSuite) TearDownSuite(c *check.C) {
	if s.db != nil {
		s.flushDB(c)
		c.Assert(s.db.Close(), check.IsNil)
	}
}

func (s *cockroachDBEntityStoreTestSuite) SetUpTest(c *check.C) {
	s.flushDB(c)
}

func (s *cockroachDBEntityStoreTestSuite) flushDB(c *check.C) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"entities", "entity_links"} {
		_, err := s.db.ExecContext(ctx, "TRUNCATE "+table)
		c.Assert(err, check.IsNil)
	}
}
