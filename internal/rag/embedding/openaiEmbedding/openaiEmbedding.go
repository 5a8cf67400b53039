package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/rag/embedding"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

func New(model string, opts ...option.RequestOption) embedding.Embedder {
	if model == "" {
		model = config.OpenAIEmbeddingModel
	}
	return &client{
		api:    openai.NewClient(opts...),
		model:  model,
		logger: logger_i.NewLogger("openai_embedding"),
	}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	results := make([][]float32, 0, len(chunks))
	for _, batch := range embedding.Batches(chunks, embedding.BatchSize) {
		vectors, err := c.embed(ctx, batch)
		if err != nil {
			c.logger.FromContext(ctx).Error("Error getting Embeddings from OpenAI", "error", err, "batch", len(batch))
			return nil, err
		}
		results = append(results, vectors...)
	}
	return results, nil
}

func (c *client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(res.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range res.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, errors.New("openai embedding index out of range")
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}
