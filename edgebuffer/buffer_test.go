package edgebuffer_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgebuffer"
	"github.com/mycok/uResolve/edgestore"
	"github.com/mycok/uResolve/edgestore/memory"
)

var _ = check.Suite(new(BufferTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type BufferTestSuite struct {
	graphID uuid.UUID
	store   *instrumentedStore
}

func (s *BufferTestSuite) SetUpTest(c *check.C) {
	s.graphID = uuid.New()
	s.store = &instrumentedStore{Store: memory.NewInMemoryEdgeStore()}
}

func (s *BufferTestSuite) TestConfigValidation(c *check.C) {
	_, err := edgebuffer.New(edgebuffer.Config{})
	c.Assert(err, check.ErrorMatches, "(?s).*graph ID has not been provided.*")
	c.Assert(err, check.ErrorMatches, "(?s).*edge store has not been provided.*")
	c.Assert(err, check.ErrorMatches, "(?s).*threshold must be greater.*")
}

func (s *BufferTestSuite) TestOrderedExtraction(c *check.C) {
	rnd := rand.New(rand.NewSource(7))

	var expected []graph.WeightedEdge
	for i := 0; i < 100; i++ {
		// Few distinct weights so that ties are common.
		e := s.seed(c, float64(rnd.Intn(8))/10)
		if e.Weight < 0.5 {
			expected = append(expected, e)
		}
	}
	sort.Slice(expected, func(i, j int) bool { return expected[i].Less(expected[j]) })

	b := s.newBuffer(c, 0.5, 7, 2)
	got := s.drain(c, b)

	c.Assert(got, check.DeepEquals, expected)
	c.Assert(s.store.rangeQueries.Load() > 1, check.Equals, true, check.Commentf("expected more than one refill"))
}

func (s *BufferTestSuite) TestEqualWeightsOrderedByEndpoints(c *check.C) {
	low := graph.NewVertexKey(s.graphID, uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	mid := graph.NewVertexKey(s.graphID, uuid.MustParse("00000000-0000-0000-0000-000000000002"))
	high := graph.NewVertexKey(s.graphID, uuid.MustParse("00000000-0000-0000-0000-000000000003"))

	second := graph.WeightedEdge{Edge: graph.MustEdge(high, mid), Weight: 0.2}
	first := graph.WeightedEdge{Edge: graph.MustEdge(high, low), Weight: 0.2}
	c.Assert(s.store.UpsertWeight(context.TODO(), second), check.IsNil)
	c.Assert(s.store.UpsertWeight(context.TODO(), first), check.IsNil)

	b := s.newBuffer(c, 1, 10, 1)
	c.Assert(s.drain(c, b), check.DeepEquals, []graph.WeightedEdge{first, second})
}

func (s *BufferTestSuite) TestExhaustedWhenStoreIsEmpty(c *check.C) {
	b := s.newBuffer(c, 1, 10, 1)

	_, err := b.GetLightestEdge(context.TODO())
	c.Assert(errors.Is(err, edgebuffer.ErrExhausted), check.Equals, true)

	// Once exhausted, no further range reads are issued.
	reads := s.store.rangeQueries.Load()
	_, err = b.GetLightestEdge(context.TODO())
	c.Assert(errors.Is(err, edgebuffer.ErrExhausted), check.Equals, true)
	c.Assert(s.store.rangeQueries.Load(), check.Equals, reads)
}

func (s *BufferTestSuite) TestEdgeAboveWatermarkClearsExhaustion(c *check.C) {
	b := s.newBuffer(c, 1, 10, 1)

	_, err := b.GetLightestEdge(context.TODO())
	c.Assert(errors.Is(err, edgebuffer.ErrExhausted), check.Equals, true)

	e := s.edge(0.4)
	c.Assert(b.AddEdgeIfBelowWatermark(context.TODO(), e), check.IsNil)

	got, err := b.GetLightestEdge(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, e)

	_, err = b.GetLightestEdge(context.TODO())
	c.Assert(errors.Is(err, edgebuffer.ErrExhausted), check.Equals, true)
}

func (s *BufferTestSuite) TestEdgeBelowWatermarkIsAdmittedWithoutRefill(c *check.C) {
	lightest := s.seed(c, 0.1)
	heaviest := s.seed(c, 0.5)

	b := s.newBuffer(c, 1, 10, 1)

	got, err := b.GetLightestEdge(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, lightest)

	// Refills fail from now on; the admitted edge must still be served.
	s.store.failRange.Store(true)

	admitted := s.edge(0.3)
	c.Assert(b.AddEdgeIfBelowWatermark(context.TODO(), admitted), check.IsNil)

	got, err = b.GetLightestEdge(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, admitted)

	got, err = b.GetLightestEdge(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, heaviest)

	// The admitted edge was persisted as well.
	c.Assert(b.WaitForPendingOperations(), check.IsNil)
	c.Assert(s.rows(c), check.DeepEquals, []graph.WeightedEdge{lightest, admitted, heaviest})
}

func (s *BufferTestSuite) TestFailedRefillReportsNoEdgeAvailable(c *check.C) {
	b := s.newBuffer(c, 1, 10, 1)
	s.store.failRange.Store(true)

	_, err := b.GetLightestEdge(context.TODO())
	c.Assert(errors.Is(err, edgebuffer.ErrNoEdgeAvailable), check.Equals, true)
	c.Assert(errors.Is(err, errRangeFailed), check.Equals, true)

	// The failure is transient.
	s.store.failRange.Store(false)
	e := s.seed(c, 0.2)

	got, err := b.GetLightestEdge(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, e)
}

func (s *BufferTestSuite) TestAddEdgeIfNotExistsKeepsFirstWeight(c *check.C) {
	b := s.newBuffer(c, 1, 10, 1)
	first := s.edge(0.2)
	second := graph.WeightedEdge{Edge: first.Edge, Weight: 0.1}

	applied, err := b.AddEdgeIfNotExists(context.TODO(), first)
	c.Assert(err, check.IsNil)
	c.Assert(applied, check.Equals, true)

	applied, err = b.AddEdgeIfNotExists(context.TODO(), second)
	c.Assert(err, check.IsNil)
	c.Assert(applied, check.Equals, false)

	c.Assert(b.WaitForPendingOperations(), check.IsNil)
	c.Assert(s.rows(c), check.DeepEquals, []graph.WeightedEdge{first})
	c.Assert(s.drain(c, b), check.DeepEquals, []graph.WeightedEdge{first})
}

func (s *BufferTestSuite) TestRemoveEdge(c *check.C) {
	kept := s.seed(c, 0.1)
	removed := s.seed(c, 0.2)
	applied, err := s.store.InsertIfNotExists(context.TODO(), removed.Edge)
	c.Assert(err, check.IsNil)
	c.Assert(applied, check.Equals, true)

	b := s.newBuffer(c, 1, 10, 1)

	// Load both edges into the local window.
	got, err := b.GetLightestEdge(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, kept)
	c.Assert(b.AddEdgeIfBelowWatermark(context.TODO(), kept), check.IsNil)

	c.Assert(b.RemoveEdge(context.TODO(), removed), check.IsNil)
	c.Assert(b.WaitForPendingOperations(), check.IsNil)

	c.Assert(s.rows(c), check.DeepEquals, []graph.WeightedEdge{kept})
	c.Assert(s.drain(c, b), check.DeepEquals, []graph.WeightedEdge{kept})

	// The existence row is gone too.
	applied, err = s.store.InsertIfNotExists(context.TODO(), removed.Edge)
	c.Assert(err, check.IsNil)
	c.Assert(applied, check.Equals, true)
}

func (s *BufferTestSuite) TestInterruptedWaitIsTransient(c *check.C) {
	s.seed(c, 0.1)
	b := s.newBuffer(c, 1, 10, 1)

	release := make(chan struct{})
	s.store.blockRange.Store(&release)

	firstDone := make(chan error, 1)
	go func() {
		_, err := b.GetLightestEdge(context.TODO())
		firstDone <- err
	}()

	// Wait until the first call is blocked inside the range read.
	s.store.waitForBlockedRange(c)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.GetLightestEdge(ctx)
	c.Assert(errors.Is(err, edgebuffer.ErrNoEdgeAvailable), check.Equals, true)
	c.Assert(errors.Is(err, context.DeadlineExceeded), check.Equals, true)

	close(release)
	c.Assert(<-firstDone, check.IsNil)
}

func (s *BufferTestSuite) TestEdgesOfOtherGraphsAreRejected(c *check.C) {
	b := s.newBuffer(c, 1, 10, 1)
	other := uuid.New()
	e := graph.WeightedEdge{
		Edge:   graph.MustEdge(graph.NewVertexKey(other, uuid.New()), graph.NewVertexKey(other, uuid.New())),
		Weight: 0.1,
	}

	err := b.AddEdgeIfBelowWatermark(context.TODO(), e)
	c.Assert(errors.Is(err, edgebuffer.ErrGraphMismatch), check.Equals, true)

	_, err = b.AddEdgeIfNotExists(context.TODO(), e)
	c.Assert(errors.Is(err, edgebuffer.ErrGraphMismatch), check.Equals, true)
}

func (s *BufferTestSuite) TestInvalidWeightsAreRejected(c *check.C) {
	b := s.newBuffer(c, 0.3, 10, 1)

	for _, w := range []float64{math.NaN(), -0.2} {
		e := s.edge(w)

		applied, err := b.AddEdgeIfNotExists(context.TODO(), e)
		c.Assert(errors.Is(err, graph.ErrInvalidWeight), check.Equals, true)
		c.Assert(applied, check.Equals, false)

		err = b.AddEdgeIfBelowWatermark(context.TODO(), e)
		c.Assert(errors.Is(err, graph.ErrInvalidWeight), check.Equals, true)

		// The existence row was never written.
		applied, err = s.store.InsertIfNotExists(context.TODO(), e.Edge)
		c.Assert(err, check.IsNil)
		c.Assert(applied, check.Equals, true)
	}

	c.Assert(b.WaitForPendingOperations(), check.IsNil)

	_, err := b.GetLightestEdge(context.TODO())
	c.Assert(errors.Is(err, edgebuffer.ErrExhausted), check.Equals, true)
}

func (s *BufferTestSuite) TestConcurrentProducersNeverLoseEdges(c *check.C) {
	const (
		numProducers = 8
		perProducer  = 200
		threshold    = 0.9
	)

	// Pre-load some rows so that the cursor moves while producers run.
	var expectedMu sync.Mutex
	expected := make(map[graph.WeightedEdge]bool)
	for i := 0; i < 50; i++ {
		e := s.seed(c, float64(i)/100)
		expected[e] = true
	}

	b := s.newBuffer(c, threshold, 16, 4)

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(seed int64) {
			defer wg.Done()

			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < perProducer; i++ {
				e := s.edge(rnd.Float64())
				if e.Weight < threshold {
					expectedMu.Lock()
					expected[e] = true
					expectedMu.Unlock()
				}

				var err error
				if i%2 == 0 {
					_, err = b.AddEdgeIfNotExists(context.TODO(), e)
				} else {
					err = b.AddEdgeIfBelowWatermark(context.TODO(), e)
				}
				c.Check(err, check.IsNil)
			}
		}(int64(p))
	}

	producersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(producersDone)
	}()

	got := make(map[graph.WeightedEdge]bool)
	deadline := time.After(30 * time.Second)

	for {
		var finished bool
		select {
		case <-producersDone:
			finished = true
		case <-deadline:
			c.Fatal("timed out draining the buffer")
		default:
		}

		e, err := b.GetLightestEdge(context.TODO())
		switch {
		case err == nil:
			c.Assert(got[e], check.Equals, false, check.Commentf("edge %s delivered twice", e.Edge))
			c.Assert(e.Weight < threshold, check.Equals, true)
			got[e] = true
			continue
		case errors.Is(err, edgebuffer.ErrExhausted) && finished:
		case errors.Is(err, edgebuffer.ErrExhausted), errors.Is(err, edgebuffer.ErrNoEdgeAvailable):
			time.Sleep(time.Millisecond)
			continue
		default:
			c.Fatalf("unexpected error: %v", err)
		}

		break
	}

	c.Assert(len(got), check.Equals, len(expected))
	for e := range expected {
		c.Assert(got[e], check.Equals, true, check.Commentf("edge %s never delivered", e.Edge))
	}
}

func (s *BufferTestSuite) newBuffer(c *check.C, threshold float64, readSize, trigger int) *edgebuffer.Buffer {
	b, err := edgebuffer.New(edgebuffer.Config{
		GraphID:       s.graphID,
		Store:         s.store,
		Threshold:     threshold,
		ReadSize:      readSize,
		RefillTrigger: trigger,
	})
	c.Assert(err, check.IsNil)

	return b
}

func (s *BufferTestSuite) edge(w float64) graph.WeightedEdge {
	e, err := graph.NewWeightedEdge(
		graph.NewVertexKey(s.graphID, uuid.New()), graph.NewVertexKey(s.graphID, uuid.New()), w,
	)
	if err != nil {
		panic(err)
	}

	return e
}

func (s *BufferTestSuite) seed(c *check.C, w float64) graph.WeightedEdge {
	e := s.edge(w)
	c.Assert(s.store.UpsertWeight(context.TODO(), e), check.IsNil)

	return e
}

func (s *BufferTestSuite) rows(c *check.C) []graph.WeightedEdge {
	it, err := s.store.Store.RangeQuery(context.TODO(), edgestore.RangeQuery{GraphID: s.graphID, From: 0, To: 10})
	c.Assert(err, check.IsNil)

	var rows []graph.WeightedEdge
	for it.Next() {
		rows = append(rows, it.WeightedEdge())
	}

	return rows
}

func (s *BufferTestSuite) drain(c *check.C, b *edgebuffer.Buffer) []graph.WeightedEdge {
	var list []graph.WeightedEdge
	for {
		e, err := b.GetLightestEdge(context.TODO())
		if errors.Is(err, edgebuffer.ErrExhausted) {
			return list
		}

		c.Assert(err, check.IsNil)
		list = append(list, e)
	}
}

var errRangeFailed = errors.New("range query failed")

// instrumentedStore wraps an edge store and allows tests to count, fail
// or block range reads.
type instrumentedStore struct {
	edgestore.Store

	rangeQueries atomic.Int64
	failRange    atomic.Bool
	blockRange   atomic.Pointer[chan struct{}]
	blocked      atomic.Bool
}

func (s *instrumentedStore) RangeQuery(ctx context.Context, q edgestore.RangeQuery) (edgestore.Iterator, error) {
	s.rangeQueries.Add(1)

	if ch := s.blockRange.Swap(nil); ch != nil {
		s.blocked.Store(true)
		<-*ch
	}

	if s.failRange.Load() {
		return nil, errRangeFailed
	}

	return s.Store.RangeQuery(ctx, q)
}

func (s *instrumentedStore) waitForBlockedRange(c *check.C) {
	deadline := time.Now().Add(5 * time.Second)
	for !s.blocked.Load() {
		if time.Now().After(deadline) {
			c.Fatal("range query was never issued")
		}

		time.Sleep(time.Millisecond)
	}
}
