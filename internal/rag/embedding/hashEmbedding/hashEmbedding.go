// Package hashEmbedding is an offline embedder: a feature-hashed, sublinear
// term-frequency vector, L2-normalised. Texts sharing words score high.
package hashEmbedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/akolanti/doctutor/internal/rag/embedding"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {}, "for": {},
	"from": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "with": {},
}

type client struct {
	dimension int
}

func New(dimension int) embedding.Embedder {
	if dimension <= 0 {
		dimension = 1024
	}
	return &client{dimension: dimension}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return c.embed(query), nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.embed(chunk)
	}
	return out, nil
}

func (c *client) embed(text string) []float32 {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}

	vec := make([]float32, c.dimension)
	for tok, n := range counts {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(c.dimension))
		weight := float32(1 + math.Log(float64(n)))
		if sum&(1<<31) != 0 {
			weight = -weight
		}
		vec[idx] += weight
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// Tokenize lowercases text, splits on anything that is not a letter or digit
// and drops stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
