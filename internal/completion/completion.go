// Package completion issues streaming text-completion requests.
//
// Each invocation is independent: it moves from pending to streaming as
// chunks arrive and reaches exactly one terminal state, done or failed.
// Accumulated text only ever grows. Cancelling the context abandons the
// invocation without firing any further callback.
package completion

import (
	"context"

	"github.com/alienxp03/council/internal/core"
)

// Request describes a single completion invocation.
type Request struct {
	Prompt            string
	SystemInstruction string
	History           []core.Message
}

// Callbacks receive invocation progress. OnChunk may fire any number of
// times with incremental text deltas. At most one of OnDone and OnError
// fires, after which nothing else fires. Nil callbacks are skipped.
type Callbacks struct {
	OnChunk func(chunk string)
	OnDone  func(finalText string)
	OnError func(err error)
}

// Streamer runs one streaming completion invocation. It blocks until the
// invocation reaches a terminal state or the context is cancelled.
type Streamer interface {
	Stream(ctx context.Context, req Request, cb Callbacks)
}

// StreamFunc adapts a function to the Streamer interface.
type StreamFunc func(ctx context.Context, req Request, cb Callbacks)

func (f StreamFunc) Stream(ctx context.Context, req Request, cb Callbacks) {
	f(ctx, req, cb)
}
