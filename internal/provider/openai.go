package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAI is a Provider backed by the OpenAI chat completions API.
type OpenAI struct {
	inner openai.Client
	model string
}

// OpenAIConfig contains configuration for creating an OpenAI provider.
type OpenAIConfig struct {
	// Model is the model name to use. Empty selects a default.
	Model string
	// APIKey is the OpenAI API key. If empty, uses OPENAI_API_KEY.
	APIKey string
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAI{
		inner: openai.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}, nil
}

// Name identifies the backend for logging.
func (o *OpenAI) Name() string { return "openai" }

// Complete issues one non-streaming call and returns the full text.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.inner.Chat.Completions.New(ctx, o.params(req))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream issues one streaming call. Chunks are pulled lazily.
func (o *OpenAI) Stream(ctx context.Context, req Request) (Stream, error) {
	inner := o.inner.Chat.Completions.NewStreaming(ctx, o.params(req))
	if err := inner.Err(); err != nil {
		return nil, err
	}
	return &openaiStream{inner: inner, clock: newLatencyClock()}, nil
}

func (o *OpenAI) params(req Request) openai.ChatCompletionNewParams {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    o.model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	return params
}

// openaiStream adapts the SDK chunk stream to text fragments.
type openaiStream struct {
	inner *ssestream.Stream[openai.ChatCompletionChunk]
	clock latencyClock
}

func (s *openaiStream) Next() (string, error) {
	for s.inner.Next() {
		chunk := s.inner.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		if text == "" {
			continue
		}
		s.clock.observe()
		return text, nil
	}
	if err := s.inner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *openaiStream) Close() error {
	return s.inner.Close()
}

func (s *openaiStream) FirstChunkLatency() time.Duration {
	return s.clock.firstChunk()
}
