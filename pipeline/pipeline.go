/*
	pipeline package runs payloads from a Source through a chain of
	concurrent stages into a Sink, behind a blocking Execute call.

	Every payload the source emits is marked as processed exactly once,
	whatever its fate: consumed by the sink, dropped by a stage, rejected by
	a failing stage or abandoned on cancellation. Callers rely on this to
	return pooled payloads and to count finished units of work.
*/

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Pipeline is an ordered list of stages. A Pipeline holds no per-run state
// and may execute several sources concurrently.
type Pipeline struct {
	stages []StageRunner
}

// New returns a pipeline running the given stages in order.
func New(stages ...StageRunner) *Pipeline {
	return &Pipeline{stages: stages}
}

// Execute feeds the payloads of src through the stages into sink. It
// blocks until the source is drained and every payload has settled, until
// any component fails or until ctx is cancelled. Failures of all components
// are collected into the returned error.
func (p *Pipeline) Execute(ctx context.Context, src Source, sink Sink) error {
	var wg sync.WaitGroup

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// links[i] feeds stage i; the last link feeds the sink. Without stages
	// the source writes straight to the sink.
	links := make([]chan Payload, len(p.stages)+1)
	for i := range links {
		links[i] = make(chan Payload)
	}

	errs := make(chan error, len(p.stages)+2)

	for i, stage := range p.stages {
		wg.Add(1)

		go func(i int, stage StageRunner) {
			defer wg.Done()

			stage.Run(runCtx, StageParams{
				Index:  i,
				Input:  links[i],
				Output: links[i+1],
				Errors: errs,
			})

			// A returning stage closes its output so that shutdown ripples
			// down to the sink.
			close(links[i+1])
		}(i, stage)
	}

	wg.Add(2)

	go func() {
		defer wg.Done()

		runSource(runCtx, src, links[0], errs)
		close(links[0])
	}()

	go func() {
		defer wg.Done()

		runSink(runCtx, sink, links[len(links)-1], errs)
	}()

	go func() {
		wg.Wait()
		close(errs)
	}()

	var err error
	for stageErr := range errs {
		err = multierror.Append(err, stageErr)
		cancel()
	}

	return err
}

func runSource(ctx context.Context, src Source, out chan<- Payload, errs chan<- error) {
	for src.Next(ctx) {
		payload := src.Payload()

		select {
		case <-ctx.Done():
			payload.MarkAsProcessed()

			return
		case out <- payload:
		}
	}

	if err := src.Error(); err != nil {
		mayEmitError(fmt.Errorf("pipeline source: %w", err), errs)
	}
}

func runSink(ctx context.Context, sink Sink, in <-chan Payload, errs chan<- error) {
	params := StageParams{Input: in}

	for {
		payload, ok := params.next(ctx)
		if !ok {
			return
		}

		err := sink.Consume(ctx, payload)
		payload.MarkAsProcessed()

		if err != nil {
			mayEmitError(fmt.Errorf("pipeline sink: %w", err), errs)

			return
		}
	}
}

// mayEmitError reports err unless the error channel is already full, in
// which case the pipeline is shutting down anyway.
func mayEmitError(err error, errs chan<- error) {
	select {
	case errs <- err:
	default:
	}
}
