// Package provider abstracts over model providers behind a uniform
// token-chunk stream interface.
package provider

import (
	"context"
	"time"
)

// Request describes one generation call.
type Request struct {
	// System is the system prompt.
	System string
	// Prompt is the user prompt.
	Prompt string
	// MaxTokens is the output token budget for this call.
	MaxTokens int
	// Temperature is the sampling temperature.
	Temperature float64
}

// Stream is a lazy sequence of incremental text fragments from one
// generation call. A Stream is single-use: it is restartable per call,
// not reusable across calls. If the consumer stops calling Next, no
// further chunks are requested from the provider.
type Stream interface {
	// Next returns the next text fragment. It returns io.EOF when the
	// stream is complete, or the provider error that ended it.
	Next() (string, error)
	// Close releases the underlying connection. Safe to call more
	// than once.
	Close() error
	// FirstChunkLatency reports the time from stream creation to the
	// first received chunk. Zero until the first chunk arrives.
	FirstChunkLatency() time.Duration
}

// Completer issues one non-streaming generation call returning the
// complete text block.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Streamer issues one streaming generation call.
type Streamer interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Provider is a model provider client usable for both call shapes.
type Provider interface {
	Completer
	Streamer
	// Name identifies the backend for logging.
	Name() string
}

// latencyClock tracks first-chunk latency for stream implementations.
type latencyClock struct {
	start time.Time
	first time.Duration
}

func newLatencyClock() latencyClock {
	return latencyClock{start: time.Now()}
}

// observe records the first-chunk time on the first call; later calls
// are no-ops.
func (c *latencyClock) observe() {
	if c.first == 0 {
		c.first = time.Since(c.start)
	}
}

func (c *latencyClock) firstChunk() time.Duration {
	return c.first
}
