package completion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/alienxp03/council/internal/core"
)

// Config holds completion service settings.
type Config struct {
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Client streams completions from a remote chat-completions endpoint using
// the server-sent events wire format.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new streaming completion client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			// No overall timeout on the client: the stream can legitimately
			// outlive a connect timeout. The per-invocation deadline comes
			// from the request context.
		},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type wireChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream runs one completion invocation. The initial connect is retried with
// exponential backoff; once the first chunk arrives the stream is never
// retried, so partial text stays monotonic.
//
// The parent context signals consumer abandonment; expiry of the internal
// per-invocation timeout is a failure, not an abandonment, and reaches
// OnError.
func (c *Client) Stream(ctx context.Context, req Request, cb Callbacks) {
	tctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(c.buildWireRequest(req))
	if err != nil {
		fireError(ctx, cb, fmt.Errorf("failed to encode request: %w", err))
		return
	}

	resp, err := c.connect(tctx, body)
	if err != nil {
		fireError(ctx, cb, err)
		return
	}
	defer resp.Body.Close()

	c.consume(ctx, tctx, resp.Body, cb)
}

// buildWireRequest flattens system instruction, history and prompt into the
// chat message sequence.
func (c *Client) buildWireRequest(req Request) wireRequest {
	messages := make([]wireMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		messages = append(messages, wireMessage{Role: "system", Content: req.SystemInstruction})
	}
	for _, m := range req.History {
		messages = append(messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, wireMessage{Role: string(core.RoleUser), Content: req.Prompt})

	return wireRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		Stream:      true,
	}
}

// connect opens the streaming request, retrying transient failures.
func (c *Client) connect(ctx context.Context, body []byte) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		if c.cfg.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		r, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("completion request failed: %w", err)
		}
		if r.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(r.Body, 2048))
			r.Body.Close()
			err := fmt.Errorf("completion endpoint returned %d: %s", r.StatusCode, bytes.TrimSpace(detail))
			// Client errors won't heal on retry; 429 is the exception.
			if r.StatusCode >= 400 && r.StatusCode < 500 && r.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}

		resp = r
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.cfg.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return resp, nil
}

// consume reads SSE data lines until stream end, accumulating the final text.
func (c *Client) consume(parent, ctx context.Context, body io.Reader, cb Callbacks) {
	var final strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		var chunk wireChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Debug("Skipping malformed stream chunk", "error", err)
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			final.WriteString(choice.Delta.Content)
			if cb.OnChunk != nil {
				cb.OnChunk(choice.Delta.Content)
			}
		}
	}

	if parent.Err() != nil {
		// Abandoned by the consumer: no callback fires.
		return
	}
	if err := ctx.Err(); err != nil {
		// The internal deadline expired mid-stream.
		fireError(parent, cb, fmt.Errorf("stream timed out: %w", err))
		return
	}
	if err := scanner.Err(); err != nil {
		fireError(parent, cb, fmt.Errorf("stream interrupted: %w", err))
		return
	}

	if cb.OnDone != nil {
		cb.OnDone(final.String())
	}
}

// fireError converts a failure into the terminal failed state unless the
// invocation was abandoned.
func fireError(ctx context.Context, cb Callbacks, err error) {
	if ctx.Err() != nil {
		return
	}
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
