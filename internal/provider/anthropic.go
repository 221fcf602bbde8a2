package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// Anthropic is a Provider backed by the Anthropic Messages API.
type Anthropic struct {
	inner anthropic.Client
	model anthropic.Model
}

// AnthropicConfig contains configuration for creating an Anthropic provider.
type AnthropicConfig struct {
	// Model is the Claude model to use. Empty selects a default.
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
}

// NewAnthropic creates a new Anthropic provider.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &Anthropic{
		inner: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}, nil
}

// Name identifies the backend for logging.
func (a *Anthropic) Name() string { return "anthropic" }

// Complete issues one non-streaming call and returns the full text.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := a.inner.Messages.New(ctx, a.params(req))
	if err != nil {
		return "", err
	}

	var out string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out += variant.Text
		}
	}
	return out, nil
}

// Stream issues one streaming call. Chunks are pulled lazily: if the
// caller stops iterating, no further events are read from the wire.
func (a *Anthropic) Stream(ctx context.Context, req Request) (Stream, error) {
	inner := a.inner.Messages.NewStreaming(ctx, a.params(req))
	if err := inner.Err(); err != nil {
		return nil, err
	}
	return &anthropicStream{inner: inner, clock: newLatencyClock()}, nil
}

func (a *Anthropic) params(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	return params
}

// anthropicStream adapts the SDK event stream to text fragments.
type anthropicStream struct {
	inner *ssestream.Stream[anthropic.MessageStreamEventUnion]
	clock latencyClock
}

func (s *anthropicStream) Next() (string, error) {
	for s.inner.Next() {
		event := s.inner.Current()
		deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		delta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
		if !ok || delta.Text == "" {
			continue
		}
		s.clock.observe()
		return delta.Text, nil
	}
	if err := s.inner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *anthropicStream) Close() error {
	return s.inner.Close()
}

func (s *anthropicStream) FirstChunkLatency() time.Duration {
	return s.clock.firstChunk()
}
