// Package bootstrap wires the generation pipeline from Settings. Both the
// HTTP API and the MCP server start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/customHttpClient"
	"github.com/akolanti/doctutor/internal/rag"
	"github.com/akolanti/doctutor/internal/rag/embedding"
	"github.com/akolanti/doctutor/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/doctutor/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/doctutor/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/internal/rag/llm/gemini"
	"github.com/akolanti/doctutor/internal/rag/llm/llama"
	"github.com/akolanti/doctutor/internal/rag/llm/openaiLLM"
	"github.com/akolanti/doctutor/internal/rag/loader"
	"github.com/akolanti/doctutor/internal/rag/passage"
	"github.com/akolanti/doctutor/internal/rag/prompt"
	"github.com/akolanti/doctutor/internal/rag/vectorDB"
	"github.com/akolanti/doctutor/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

var logger = logger_i.NewLogger("bootstrap")

// Pipeline is everything a composition root needs from the rag side.
type Pipeline struct {
	Service  rag.Service
	Storage  *loader.AFSStorage
	Selector *llm.Selector
	closers  []func() error
}

// Close releases long lived clients.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	return errors.Join(errs...)
}

func Build(ctx context.Context, settings config.Settings) (*Pipeline, error) {
	p := &Pipeline{Storage: loader.NewAFSStorage(settings.StorageURL)}

	embedder, err := newEmbedder(ctx, settings)
	if err != nil {
		return nil, err
	}

	index, err := p.newIndexBuilder(settings, embedder)
	if err != nil {
		return nil, err
	}

	p.Selector, err = NewSelector(ctx, settings)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	p.Service = rag.NewService(loader.New(p.Storage), index, p.Selector, rag.Options{
		TopK:      settings.Index.TopK,
		MaxTokens: settings.Generation.MaxTokens,
		Flashcards: prompt.FlashcardConfig{
			Variant: settings.Flashcards.Variant,
			Count:   settings.Flashcards.Count,
		},
	})
	logger.Info("Pipeline ready", "embedding", settings.Embedding.Provider, "index", settings.Index.Backend, "storage", settings.StorageURL)
	return p, nil
}

func newEmbedder(ctx context.Context, settings config.Settings) (embedding.Embedder, error) {
	switch settings.Embedding.Provider {
	case config.EmbeddingProviderOpenAI:
		if settings.Backends.OpenAIKey == "" {
			return nil, errors.New("openai embeddings need openai_api_key")
		}
		return openaiEmbedding.New(settings.Embedding.Model, openAIOptions(settings)...), nil
	case config.EmbeddingProviderGoogle:
		if settings.Backends.GoogleKey == "" {
			return nil, errors.New("google embeddings need google_api_key")
		}
		return googleEmbedding.New(ctx, settings.Embedding.Model, settings.Backends.GoogleKey,
			&genai.ClientConfig{HTTPClient: customHttpClient.Shared()})
	}
	return hashEmbedding.New(config.LocalEmbeddingDimension), nil
}

func (p *Pipeline) newIndexBuilder(settings config.Settings, embedder embedding.Embedder) (vectorDB.Builder, error) {
	options := passage.Options{
		MaxChars: settings.Index.PassageMaxChar,
		Overlap:  settings.Index.PassageOverlap,
		TopK:     settings.Index.TopK,
	}
	if settings.Index.Backend != config.IndexBackendQdrant {
		return passage.NewMemoryBuilder(embedder, options), nil
	}

	client, err := qdrantDB.NewClient(settings.Index.QdrantHost, settings.Index.QdrantPort)
	if err != nil {
		return nil, fmt.Errorf("qdrant: %w", err)
	}
	p.closers = append(p.closers, client.Close)
	return qdrantDB.NewBuilder(client, embedder, options), nil
}

// NewSelector registers a factory for every backend family with credentials.
// Families without credentials fail at Select with ErrBackendUnavailable.
func NewSelector(ctx context.Context, settings config.Settings) (*llm.Selector, error) {
	policy := llm.DefaultRetryPolicy()
	policy.MaxAttempts = settings.Retry.MaxAttempts
	selector := llm.NewSelector(policy)
	httpClient := customHttpClient.Shared()

	if settings.Backends.OpenAIKey != "" {
		selector.Register(llm.FamilyHostedChat, openaiLLM.Factory(openaiLLM.NewClient(openAIOptions(settings)...)))
	}
	if settings.Backends.GoogleKey != "" {
		client, err := gemini.NewClient(ctx, settings.Backends.GoogleKey, &genai.ClientConfig{HTTPClient: httpClient})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		selector.Register(llm.FamilyGeminiChat, gemini.Factory(client))
	}
	if settings.Backends.LlamaKey != "" {
		selector.Register(llm.FamilyTemplated, llama.Factory(llama.NewClient(settings.Backends.LlamaKey, settings.Backends.LlamaBaseURL, httpClient)))
	}
	return selector, nil
}

func openAIOptions(settings config.Settings) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(settings.Backends.OpenAIKey),
		option.WithHTTPClient(customHttpClient.Shared()),
	}
	if settings.Backends.OpenAIURL != "" {
		opts = append(opts, option.WithBaseURL(settings.Backends.OpenAIURL))
	}
	return opts
}
