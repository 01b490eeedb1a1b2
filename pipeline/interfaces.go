package pipeline

import "context"

// Source produces the payloads that enter a pipeline.
type Source interface {
	// Next advances to the next payload. It returns false once the source
	// is drained or has failed.
	Next(context.Context) bool

	// Payload returns the payload Next advanced to.
	Payload() Payload

	// Error returns the error that stopped the source, if any.
	Error() error
}

// Payload is a unit of work flowing through a pipeline.
type Payload interface {
	// MarkAsProcessed is called exactly once for every payload a source
	// emits: when the payload reaches the sink, when a stage drops it,
	// when a stage fails on it or when the pipeline is cancelled while it
	// is in flight.
	MarkAsProcessed()
}

// Processor transforms the payloads of a stage. Returning a nil payload
// drops the input payload.
type Processor interface {
	Process(context.Context, Payload) (Payload, error)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(context.Context, Payload) (Payload, error)

// Process calls f(ctx, p).
func (f ProcessorFunc) Process(ctx context.Context, p Payload) (Payload, error) {
	return f(ctx, p)
}

// StageRunner runs one stage of a pipeline. Calls to Run block until the
// stage input is closed, ctx expires or the stage fails.
type StageRunner interface {
	Run(context.Context, StageParams)
}

// StageParams wires a stage to its neighbours.
type StageParams struct {
	// Position of the stage in the pipeline.
	Index int

	// Payloads emitted by the previous stage or the source.
	Input <-chan Payload

	// Payloads handed to the next stage or the sink.
	Output chan<- Payload

	// Errors reported by the stage.
	Errors chan<- error
}

// next receives the next input payload. It returns false once the input is
// closed or ctx is done.
func (p StageParams) next(ctx context.Context) (Payload, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case payload, ok := <-p.Input:
		return payload, ok
	}
}

// forward hands payload to the next stage. A payload that cannot be
// delivered because ctx is done is marked as processed.
func (p StageParams) forward(ctx context.Context, payload Payload) bool {
	select {
	case <-ctx.Done():
		payload.MarkAsProcessed()

		return false
	case p.Output <- payload:
		return true
	}
}

// Sink consumes the payloads that made it through every stage.
type Sink interface {
	Consume(context.Context, Payload) error
}
