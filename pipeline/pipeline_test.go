package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/pipeline"
)

var _ = check.Suite(new(pipelineTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type pipelineTestSuite struct{}

func (s *pipelineTestSuite) TestPassThrough(c *check.C) {
	src := &sourceStub{data: makePayloads(5)}
	sink := new(sinkStub)

	err := pipeline.New().Execute(context.TODO(), src, sink)
	c.Assert(err, check.IsNil)
	c.Assert(sink.values(), check.DeepEquals, []string{"0", "1", "2", "3", "4"})
	assertProcessedOnce(c, src.data...)
}

func (s *pipelineTestSuite) TestStagesRunInOrder(c *check.C) {
	src := &sourceStub{data: makePayloads(3)}
	sink := new(sinkStub)
	p := pipeline.New(
		pipeline.NewFixedWorkerPool(appendProcessor("a"), 1),
		pipeline.NewFixedWorkerPool(appendProcessor("b"), 1),
		pipeline.NewDynamicWorkerPool(appendProcessor("c"), 1),
	)

	err := p.Execute(context.TODO(), src, sink)
	c.Assert(err, check.IsNil)
	c.Assert(sink.values(), check.DeepEquals, []string{"0abc", "1abc", "2abc"})
	assertProcessedOnce(c, src.data...)
}

func (s *pipelineTestSuite) TestDroppedPayloadsAreMarkedProcessed(c *check.C) {
	src := &sourceStub{data: makePayloads(4)}
	sink := new(sinkStub)
	dropOdd := pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		if p.(*stringPayload).index%2 == 1 {
			return nil, nil
		}

		return p, nil
	})

	err := pipeline.New(pipeline.NewFixedWorkerPool(dropOdd, 1)).Execute(context.TODO(), src, sink)
	c.Assert(err, check.IsNil)
	c.Assert(sink.values(), check.DeepEquals, []string{"0", "2"})
	assertProcessedOnce(c, src.data...)
}

func (s *pipelineTestSuite) TestSourceError(c *check.C) {
	src := &sourceStub{data: makePayloads(3), failAfter: 2, err: errors.New("source error")}
	sink := new(sinkStub)

	err := pipeline.New(pipeline.NewFixedWorkerPool(appendProcessor(""), 2)).
		Execute(context.TODO(), src, sink)
	c.Assert(err, check.ErrorMatches, "(?s).*pipeline source: source error.*")
	assertProcessedOnce(c, src.emitted()...)
}

func (s *pipelineTestSuite) TestSinkError(c *check.C) {
	src := &sourceStub{data: makePayloads(10)}
	sink := &sinkStub{err: errors.New("sink error")}

	err := pipeline.New(pipeline.NewFixedWorkerPool(appendProcessor(""), 3)).
		Execute(context.TODO(), src, sink)
	c.Assert(err, check.ErrorMatches, "(?s).*pipeline sink: sink error.*")
	assertProcessedOnce(c, src.emitted()...)
}

func (s *pipelineTestSuite) TestProcessorErrorMarksEveryEmittedPayload(c *check.C) {
	procErr := errors.New("processor error")
	failing := pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		if p.(*stringPayload).index == 3 {
			return nil, procErr
		}

		return p, nil
	})

	for _, stage := range []pipeline.StageRunner{
		pipeline.NewFixedWorkerPool(failing, 2),
		pipeline.NewDynamicWorkerPool(failing, 2),
	} {
		src := &sourceStub{data: makePayloads(20)}

		err := pipeline.New(stage, pipeline.NewFixedWorkerPool(appendProcessor(""), 1)).
			Execute(context.TODO(), src, new(sinkStub))
		c.Assert(err, check.ErrorMatches, "(?s).*pipeline stage 0: processor error.*")
		assertProcessedOnce(c, src.emitted()...)
	}
}

func (s *pipelineTestSuite) TestCancellationMarksInFlightPayloads(c *check.C) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 1)
	blocking := pipeline.ProcessorFunc(func(ctx context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()

		return p, nil
	})

	src := &sourceStub{data: makePayloads(10)}
	done := make(chan error, 1)

	go func() {
		done <- pipeline.New(pipeline.NewDynamicWorkerPool(blocking, 4)).Execute(ctx, src, new(sinkStub))
	}()

	<-started
	cancel()

	c.Assert(<-done, check.IsNil)
	assertProcessedOnce(c, src.emitted()...)
}

func assertProcessedOnce(c *check.C, payloads ...pipeline.Payload) {
	for i, p := range payloads {
		c.Assert(
			p.(*stringPayload).processed.Load(), check.Equals, int32(1),
			check.Commentf("payload %d", i),
		)
	}
}

type sourceStub struct {
	data      []pipeline.Payload
	next      int
	failAfter int
	err       error
}

func (s *sourceStub) Next(context.Context) bool {
	if s.next >= len(s.data) || (s.err != nil && s.next >= s.failAfter) {
		return false
	}

	s.next++

	return true
}

func (s *sourceStub) Payload() pipeline.Payload { return s.data[s.next-1] }

func (s *sourceStub) Error() error {
	if s.next >= s.failAfter {
		return s.err
	}

	return nil
}

func (s *sourceStub) emitted() []pipeline.Payload { return s.data[:s.next] }

type sinkStub struct {
	data []pipeline.Payload
	err  error
}

func (s *sinkStub) Consume(_ context.Context, p pipeline.Payload) error {
	s.data = append(s.data, p)

	return s.err
}

func (s *sinkStub) values() []string {
	out := make([]string, len(s.data))
	for i, p := range s.data {
		out[i] = p.(*stringPayload).value
	}

	return out
}

type stringPayload struct {
	index     int
	value     string
	processed atomic.Int32
}

func (p *stringPayload) MarkAsProcessed() {
	p.processed.Add(1)
}

func makePayloads(n int) []pipeline.Payload {
	payloads := make([]pipeline.Payload, n)
	for i := 0; i < n; i++ {
		payloads[i] = &stringPayload{index: i, value: fmt.Sprint(i)}
	}

	return payloads
}

func appendProcessor(suffix string) pipeline.Processor {
	return pipeline.ProcessorFunc(func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
		p.(*stringPayload).value += suffix

		return p, nil
	})
}
