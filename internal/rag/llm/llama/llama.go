// Package llama drives instruction-tuned Llama 3 models hosted behind an
// OpenAI compatible completions endpoint. The chat roles are spelled out in
// the prompt with the model's own header tokens.
package llama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/sashabaranov/go-openai"
)

const (
	beginOfText = "<|begin_of_text|>"
	endOfTurn   = "<|eot_id|>"
)

var logger = logger_i.NewLogger("llm_llama")

// NewClient points a go-openai client at the inference provider.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = config.LlamaBaseURL
	}
	cfg.BaseURL = baseURL
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

type llmClient struct {
	client  *openai.Client
	backend llm.Backend
}

func Factory(client *openai.Client) llm.Factory {
	return func(b llm.Backend) llm.Provider {
		return &llmClient{client: client, backend: b}
	}
}

func header(role string) string {
	return "<|start_header_id|>" + role + "<|end_header_id|>\n\n"
}

// Template renders a single-turn llama3 instruct prompt ending on an open
// assistant header.
func Template(system, user string) string {
	var b strings.Builder
	b.WriteString(beginOfText)
	b.WriteString(header("system"))
	b.WriteString(system)
	b.WriteString(endOfTurn)
	b.WriteString(header("user"))
	b.WriteString(user)
	b.WriteString(endOfTurn)
	b.WriteString(header("assistant"))
	return b.String()
}

func (c *llmClient) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	log := logger.FromContext(ctx).With("model", c.backend.Model)

	req := openai.CompletionRequest{
		Model:     c.backend.Model,
		Prompt:    Template(config.ModelContext, prompt),
		MaxTokens: opts.MaxTokens,
		Stop:      []string{endOfTurn},
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}

	rsp, err := c.client.CreateCompletion(ctx, req)
	if err != nil {
		log.Error("completion failed", "error", err)
		return "", fmt.Errorf("llama %s: %w: %w", c.backend.Model, commonModels.ErrBackendUnavailable, err)
	}
	if len(rsp.Choices) == 0 || strings.TrimSpace(rsp.Choices[0].Text) == "" {
		return "", fmt.Errorf("llama %s: %w: %w", c.backend.Model, commonModels.ErrBackendUnavailable, errors.New("no response from inference API"))
	}
	return rsp.Choices[0].Text, nil
}
