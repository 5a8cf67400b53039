package openaiLLM

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("llm_openai")

// NewClient builds the shared client. SDK retries are off; the selector owns
// the retry policy.
func NewClient(opts ...option.RequestOption) openai.Client {
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	return openai.NewClient(opts...)
}

type llmClient struct {
	client  openai.Client
	backend llm.Backend
}

// Factory returns an llm.Factory that builds chat completion providers over
// one shared client.
func Factory(client openai.Client) llm.Factory {
	return func(b llm.Backend) llm.Provider {
		return &llmClient{client: client, backend: b}
	}
}

func (c *llmClient) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	log := logger.FromContext(ctx).With("model", c.backend.Model)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.backend.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.ModelContext),
			openai.UserMessage(prompt),
		},
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(float64(*opts.Temperature))
	}

	res, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Error("chat completion failed", "error", err)
		return "", fmt.Errorf("openai %s: %w: %w", c.backend.Model, commonModels.ErrBackendUnavailable, err)
	}
	if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai %s: %w: %w", c.backend.Model, commonModels.ErrBackendUnavailable, errors.New("no response from OpenAI"))
	}

	log.Debug("chat completion done", "finish_reason", res.Choices[0].FinishReason)
	return res.Choices[0].Message.Content, nil
}
