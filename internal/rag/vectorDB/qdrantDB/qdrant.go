package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/embedding"
	"github.com/akolanti/doctutor/internal/rag/passage"
	"github.com/akolanti/doctutor/internal/rag/vectorDB"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

var logger = logger_i.NewLogger("Qdrant")

type ClientHolder struct {
	QObj     *qdrant.Client
	embedder embedding.Embedder
	options  passage.Options
}

// NewClient dials Qdrant over gRPC. The caller owns the client and closes it
// on shutdown.
func NewClient(host string, port int) (*qdrant.Client, error) {
	if host == "" || port == 0 {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil, err
	}
	return client, nil
}

// NewBuilder indexes each document into its own collection, dropped again
// when the index is closed.
func NewBuilder(client *qdrant.Client, e embedding.Embedder, options passage.Options) vectorDB.Builder {
	if options.TopK < 1 {
		options.TopK = config.DefaultTopK
	}
	return &ClientHolder{QObj: client, embedder: e, options: options}
}

func (db *ClientHolder) Build(ctx context.Context, text string) (vectorDB.PassageIndex, error) {
	texts := passage.Split(text, db.options.MaxChars, db.options.Overlap)
	idx := &collectionIndex{db: db}
	if len(texts) == 0 {
		return idx, nil
	}

	vectors, err := db.embedder.BatchEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("mismatch: got %d passages but %d vectors", len(texts), len(vectors))
	}

	idx.name = config.QdrantCollectionPrefix + uuid.NewString()
	if err := createCollection(ctx, db.QObj, idx.name, uint64(len(vectors[0]))); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	if err := db.upsertBatch(ctx, idx.name, texts, vectors); err != nil {
		_ = idx.Close(ctx)
		return nil, err
	}
	idx.size = len(texts)

	logger.FromContext(ctx).Debug("Indexed passages", "collection", idx.name, "count", idx.size)
	return idx, nil
}

func (db *ClientHolder) upsertBatch(ctx context.Context, collectionName string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("mismatch: got %d passages but %d vectors", len(texts), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(texts))
	for i, t := range texts {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content": t,
				"rank":    i,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

type collectionIndex struct {
	db   *ClientHolder
	name string
	size int
}

func (c *collectionIndex) Len() int { return c.size }

func (c *collectionIndex) Query(ctx context.Context, query string, k int) ([]commonModels.Passage, error) {
	if k <= 0 {
		k = c.db.options.TopK
	}
	if c.size == 0 {
		return []commonModels.Passage{}, nil
	}

	vectorFloat, err := c.db.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	result, err := c.db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQuery(vectorFloat...),
		Limit:          qdrant.PtrOf(uint64(fetchLimit(k, c.size))),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.FromContext(ctx).Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	matches := make([]commonModels.Passage, 0, len(result))
	for _, hit := range result {
		matches = append(matches, commonModels.Passage{
			Rank:  int(hit.Payload["rank"].GetIntegerValue()),
			Text:  hit.Payload["content"].GetStringValue(),
			Score: float64(hit.Score),
		})
	}
	return rankHits(matches, k), nil
}

// fetchLimit over-fetches so equal scores at the k boundary can still be
// ordered by rank before trimming.
func fetchLimit(k, size int) int {
	limit := k + config.QdrantTieSlack
	if limit > size {
		limit = size
	}
	return limit
}

// rankHits orders by score, ties by source rank, and keeps the first k.
func rankHits(matches []commonModels.Passage, k int) []commonModels.Passage {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Rank < matches[j].Rank
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

func (c *collectionIndex) Close(ctx context.Context) error {
	if c.name == "" {
		return nil
	}
	err := c.db.QObj.DeleteCollection(ctx, c.name)
	if err != nil {
		logger.FromContext(ctx).Warn("could not drop collection", "collection", c.name, "error", err)
	}
	return err
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	if dimension == 0 {
		return errors.New("zero vector dimension")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
