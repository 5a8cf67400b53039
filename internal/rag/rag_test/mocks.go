package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/internal/rag/vectorDB"
)

// MockLoader implements loader.Loader
type MockLoader struct {
	OnLoad func(ctx context.Context, name string) (string, error)
}

func (m *MockLoader) Load(ctx context.Context, name string) (string, error) {
	if m.OnLoad != nil {
		return m.OnLoad(ctx, name)
	}
	return "Photosynthesis converts light into chemical energy.", nil
}

// MockBuilder implements vectorDB.Builder
type MockBuilder struct {
	OnBuild func(ctx context.Context, text string) (vectorDB.PassageIndex, error)
}

func (m *MockBuilder) Build(ctx context.Context, text string) (vectorDB.PassageIndex, error) {
	return m.OnBuild(ctx, text)
}

// MockIndex implements vectorDB.PassageIndex
type MockIndex struct {
	OnQuery func(ctx context.Context, query string, k int) ([]commonModels.Passage, error)
	Closed  bool
}

func (m *MockIndex) Query(ctx context.Context, query string, k int) ([]commonModels.Passage, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, query, k)
	}
	return []commonModels.Passage{{Rank: 0, Text: "default context"}}, nil
}

func (m *MockIndex) Len() int { return 1 }

func (m *MockIndex) Close(ctx context.Context) error {
	m.Closed = true
	return nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt, opts)
	}
	return "mocked llm response", nil
}

// MockSelector resolves identifiers for real and hands back the mock provider.
type MockSelector struct {
	LLM *MockLLM

	mu       sync.Mutex
	Selected []llm.Backend
}

func (m *MockSelector) Select(modelID string) (llm.Backend, llm.Provider, error) {
	b := llm.Resolve(modelID)
	m.mu.Lock()
	m.Selected = append(m.Selected, b)
	m.mu.Unlock()
	return b, m.LLM, nil
}
