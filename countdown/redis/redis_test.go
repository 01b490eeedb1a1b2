package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/countdown/countdowntest"
)

var _ = check.Suite(new(redisLatchTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type redisLatchTestSuite struct {
	rdb *goredis.Client
	countdowntest.BaseSuite
}

func (s *redisLatchTestSuite) SetUpSuite(c *check.C) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		c.Skip("Missing REDIS_ADDR envvar: skipping redis backed test suite")
	}

	s.rdb = goredis.NewClient(&goredis.Options{Addr: addr})
	c.Assert(s.rdb.Ping(context.TODO()).Err(), check.IsNil)

	s.SetLatch(NewRedisLatchWithClient(s.rdb, "ur-test"))
}

func (s *redisLatchTestSuite) SetUpTest(c *check.C) {
	c.Assert(s.rdb.FlushDB(context.TODO()).Err(), check.IsNil)
}

func (s *redisLatchTestSuite) TearDownSuite(c *check.C) {
	if s.rdb != nil {
		c.Assert(s.rdb.FlushDB(context.TODO()).Err(), check.IsNil)
		c.Assert(s.rdb.Close(), check.IsNil)
	}
}

func (s *redisLatchTestSuite) TestKeysShareHashTag(c *check.C) {
	l := NewRedisLatchWithClient(s.rdb, "p")
	c.Assert(l.countKey(uuid.Nil), check.Equals, "p:{00000000-0000-0000-0000-000000000000}:countdown")
	c.Assert(l.channel(uuid.Nil), check.Equals, "p:{00000000-0000-0000-0000-000000000000}:countdown:released")
}
