package completion

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ScriptMock is a streamer that generates simulated responses, for tests and
// for running the server without a completion endpoint.
type ScriptMock struct {
	// Delay between emitted chunks.
	Delay time.Duration
	// Err, when set, makes every invocation fail after the first chunk.
	Err error
}

// NewScriptMock creates a mock streamer with a small perceptible delay.
func NewScriptMock() *ScriptMock {
	return &ScriptMock{Delay: 150 * time.Millisecond}
}

// Stream emits a canned response word by word.
func (m *ScriptMock) Stream(ctx context.Context, req Request, cb Callbacks) {
	text := fmt.Sprintf("Simulated take on %q. [mock]", truncate(req.Prompt, 60))
	words := strings.SplitAfter(text, " ")

	var final strings.Builder
	for i, word := range words {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.Delay):
		}

		final.WriteString(word)
		if cb.OnChunk != nil {
			cb.OnChunk(word)
		}

		if m.Err != nil && i == 0 {
			if cb.OnError != nil {
				cb.OnError(m.Err)
			}
			return
		}
	}

	if cb.OnDone != nil {
		cb.OnDone(final.String())
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
