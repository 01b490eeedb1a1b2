package pipeline_test

import (
	"context"
	"sync/atomic"
	"time"

	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/pipeline"
)

var _ = check.Suite(new(stageRunnerTestSuite))

type stageRunnerTestSuite struct{}

func (s *stageRunnerTestSuite) TestFixedWorkerPoolRunsWorkersConcurrently(c *check.C) {
	const numOfWorkers = 10

	arrived := make(chan struct{})
	release := make(chan struct{})
	proc := pipeline.ProcessorFunc(func(context.Context, pipeline.Payload) (pipeline.Payload, error) {
		arrived <- struct{}{}
		<-release

		return nil, nil
	})

	src := &sourceStub{data: makePayloads(numOfWorkers)}
	done := make(chan error, 1)

	go func() {
		done <- pipeline.New(pipeline.NewFixedWorkerPool(proc, numOfWorkers)).
			Execute(context.TODO(), src, new(sinkStub))
	}()

	// Every payload is held by its own worker at the same time.
	for i := 0; i < numOfWorkers; i++ {
		select {
		case <-arrived:
		case <-time.After(10 * time.Second):
			c.Fatalf("timed out waiting for worker %d", i)
		}
	}
	close(release)

	select {
	case err := <-done:
		c.Assert(err, check.IsNil)
	case <-time.After(10 * time.Second):
		c.Fatal("timed out waiting for the pipeline to complete")
	}

	assertProcessedOnce(c, src.data...)
}

func (s *stageRunnerTestSuite) TestDynamicWorkerPoolBoundsConcurrency(c *check.C) {
	const (
		maxNumOfWorkers = 5
		numOfPayloads   = 4 * maxNumOfWorkers
	)

	var running, peak, executed atomic.Int32
	proc := pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		now := running.Add(1)
		for {
			prev := peak.Load()
			if now <= prev || peak.CompareAndSwap(prev, now) {
				break
			}
		}

		time.Sleep(time.Millisecond)
		running.Add(-1)
		executed.Add(1)

		return p, nil
	})

	src := &sourceStub{data: makePayloads(numOfPayloads)}
	sink := new(sinkStub)

	err := pipeline.New(pipeline.NewDynamicWorkerPool(proc, maxNumOfWorkers)).
		Execute(context.TODO(), src, sink)
	c.Assert(err, check.IsNil)
	c.Assert(executed.Load(), check.Equals, int32(numOfPayloads))
	c.Assert(peak.Load() <= maxNumOfWorkers, check.Equals, true, check.Commentf("peak %d", peak.Load()))
	c.Assert(sink.data, check.HasLen, numOfPayloads)
	assertProcessedOnce(c, src.data...)
}

func (s *stageRunnerTestSuite) TestInvalidWorkerCounts(c *check.C) {
	c.Assert(func() { pipeline.NewFixedWorkerPool(appendProcessor(""), 0) },
		check.PanicMatches, ".*numOfWorkers must be > 0")
	c.Assert(func() { pipeline.NewDynamicWorkerPool(appendProcessor(""), -1) },
		check.PanicMatches, ".*maxNumOfWorkers must be > 0")
}
