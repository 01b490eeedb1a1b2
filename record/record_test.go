package record

import (
	"testing"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(RecordTestSuite))

func Test(t *testing.T) { check.TestingT(t) }

type RecordTestSuite struct{}

func (s *RecordTestSuite) TestText(c *check.C) {
	r := &Record{
		ID: uuid.New(),
		Properties: Properties{
			"name":    {"Jane", "Janie"},
			"address": {"1 Main St"},
		},
	}

	c.Assert(r.Text(), check.Equals, "1 Main St Jane Janie")
	c.Assert((&Record{}).Text(), check.Equals, "")
}

func (s *RecordTestSuite) TestClone(c *check.C) {
	r := &Record{ID: uuid.New(), Collection: "people", Properties: Properties{"name": {"Jane"}}}

	rCopy := r.Clone()
	rCopy.Properties["name"][0] = "John"
	rCopy.Properties["dob"] = []string{"1970-01-01"}

	c.Assert(r.Properties, check.DeepEquals, Properties{"name": {"Jane"}})
}

func (s *RecordTestSuite) TestUnion(c *check.C) {
	p := Properties{"name": {"Jane"}}
	p.Union(Properties{
		"name": {"Janie", "Jane"},
		"dob":  {"1970-01-01"},
	})

	c.Assert(p, check.DeepEquals, Properties{
		"name": {"Jane", "Janie"},
		"dob":  {"1970-01-01"},
	})
}
