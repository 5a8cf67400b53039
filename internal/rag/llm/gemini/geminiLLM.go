package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"google.golang.org/genai"
)

var logger = logger_i.NewLogger("llm_gemini")

type llmClient struct {
	client  *genai.Client
	backend llm.Backend
}

// NewClient creates the shared Gemini API client. cfg may carry HTTPOptions
// or an HTTPClient; APIKey is filled in when empty.
func NewClient(ctx context.Context, apikey string, cfg *genai.ClientConfig) (*genai.Client, error) {
	if cfg == nil {
		cfg = &genai.ClientConfig{}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = apikey
	}
	cfg.Backend = genai.BackendGeminiAPI

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return nil, err
	}
	logger.Info("Gemini client created")
	return c, nil
}

func Factory(client *genai.Client) llm.Factory {
	return func(b llm.Backend) llm.Provider {
		return &llmClient{client: client, backend: b}
	}
}

func (c *llmClient) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	log := logger.FromContext(ctx).With("model", c.backend.Model)

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: config.ModelContext}},
		},
		Temperature: opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		contentConfig.MaxOutputTokens = int32(opts.MaxTokens)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.backend.Model, genai.Text(prompt), contentConfig)
	if err != nil {
		log.Error("GenerateContent failed", "error", err)
		return "", fmt.Errorf("gemini %s: %w: %w", c.backend.Model, commonModels.ErrBackendUnavailable, err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini %s: %w: %w", c.backend.Model, commonModels.ErrBackendUnavailable, errors.New("empty response from Gemini"))
	}
	return text, nil
}
