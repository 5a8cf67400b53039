package googleEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/rag/embedding"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
}

// New builds a Gemini embedder. cfg lets tests point the client at a fake
// endpoint; APIKey is filled in when empty.
func New(ctx context.Context, modelName string, apikey string, cfg *genai.ClientConfig) (embedding.Embedder, error) {
	if cfg == nil {
		cfg = &genai.ClientConfig{}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = apikey
	}
	cfg.Backend = genai.BackendGeminiAPI
	if modelName == "" {
		modelName = config.GoogleEmbeddingModel
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create google embedding client: %w", err)
	}
	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName, logger: logger}, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	res, err := c.doCall(ctx, genai.Text(query), taskQuery)
	if err != nil {
		c.logger.FromContext(ctx).Error("Error getting query embedding from Google", "error", err)
		return nil, err
	}
	if len(res.Embeddings) == 0 {
		return nil, errors.New("no embedding from Google")
	}
	return res.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := c.logger.FromContext(ctx)
	results := make([][]float32, 0, len(chunks))

	for _, batch := range embedding.Batches(chunks, embedding.BatchSize) {
		res, err := c.doCall(ctx, getContent(batch), taskDocument)
		if err != nil {
			log.Error("Error getting Embeddings from Google", "error", err, "batch", len(batch))
			return nil, err
		}
		if len(res.Embeddings) != len(batch) {
			return nil, fmt.Errorf("google returned %d embeddings for %d chunks", len(res.Embeddings), len(batch))
		}
		for _, e := range res.Embeddings {
			results = append(results, e.Values)
		}
	}
	return results, nil
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             taskType,
	})
}
