package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// process runs proc on a single payload and forwards the result. It returns
// false when the stage has to stop.
func process(ctx context.Context, proc Processor, in Payload, params StageParams) bool {
	out, err := proc.Process(ctx, in)
	if err != nil {
		in.MarkAsProcessed()
		mayEmitError(fmt.Errorf("pipeline stage %d: %w", params.Index, err), params.Errors)

		return false
	}

	if out == nil {
		in.MarkAsProcessed()

		return true
	}

	return params.forward(ctx, out)
}

// fifo processes payloads one at a time in arrival order.
type fifo struct {
	proc Processor
}

func (r fifo) Run(ctx context.Context, params StageParams) {
	for {
		in, ok := params.next(ctx)
		if !ok || !process(ctx, r.proc, in, params) {
			return
		}
	}
}

type fixedWorkerPool struct {
	proc         Processor
	numOfWorkers int
}

// NewFixedWorkerPool returns a StageRunner that shares its input between
// numOfWorkers long-lived workers. Output order is not preserved.
func NewFixedWorkerPool(proc Processor, numOfWorkers int) StageRunner {
	if numOfWorkers <= 0 {
		panic("FixedWorkerPool: numOfWorkers must be > 0")
	}

	return fixedWorkerPool{proc: proc, numOfWorkers: numOfWorkers}
}

func (r fixedWorkerPool) Run(ctx context.Context, params StageParams) {
	var wg sync.WaitGroup

	w := fifo{proc: r.proc}
	for i := 0; i < r.numOfWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			w.Run(ctx, params)
		}()
	}

	wg.Wait()
}

type dynamicWorkerPool struct {
	proc            Processor
	maxNumOfWorkers int64
}

// NewDynamicWorkerPool returns a StageRunner that starts a short-lived
// worker per payload, keeping at most maxNumOfWorkers of them running.
// It suits stages whose processing time varies a lot between payloads.
func NewDynamicWorkerPool(proc Processor, maxNumOfWorkers int) StageRunner {
	if maxNumOfWorkers <= 0 {
		panic("DynamicWorkerPool: maxNumOfWorkers must be > 0")
	}

	return dynamicWorkerPool{proc: proc, maxNumOfWorkers: int64(maxNumOfWorkers)}
}

func (r dynamicWorkerPool) Run(ctx context.Context, params StageParams) {
	sem := semaphore.NewWeighted(r.maxNumOfWorkers)

	for {
		in, ok := params.next(ctx)
		if !ok {
			break
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			in.MarkAsProcessed()

			break
		}

		go func(p Payload) {
			defer sem.Release(1)
			process(ctx, r.proc, p, params)
		}(in)
	}

	// Holding every slot means all workers have returned.
	_ = sem.Acquire(context.Background(), r.maxNumOfWorkers)
}
