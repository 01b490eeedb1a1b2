package cdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph/graphtest"
)

var _ = check.Suite(new(cockroachDBGraphTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type cockroachDBGraphTestSuite struct {
	// Keep track of the sql.DB instance from the graph implementation
	// so we can execute SQL statements to reset the db between tests.
	db *sql.DB
	graphtest.BaseSuite
}

func (s *cockroachDBGraphTestSuite) SetUpSuite(c *check.C) {
	dsn := os.Getenv("CDB_DSN")
	if dsn == "" {
		c.Skip("Missing CDB_DSN envvar: skipping cockroachDB backed test suite")
	}

	g, err := NewCockroachDBGraph(dsn)
	c.Assert(err, check.IsNil)

	s.SetGraph(g)
	s.db = g.db
}

func (s *cockroachDBGraphTestSuite) TearDownSuite(c *check.C) {
	if s.db != nil {
		s.flushDB(c)
		c.Assert(s.db.Close(), check.IsNil)
	}
}

func (s *cockroachDBGraphTestSuite) SetUpTest(c *check.C) {
	s.flushDB(c)
}

func (s *cockroachDBGraphTestSuite) flushDB(c *check.C) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"cluster_vertices", "cluster_neighbors", "cluster_lookups"} {
		_, err := s.db.ExecContext(ctx, "TRUNCATE "+table)
		c.Assert(err, check.IsNil)
	}
}
