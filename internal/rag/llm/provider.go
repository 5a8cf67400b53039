package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
)

// Options are passed by value on every call; nothing about a call is kept on
// the provider.
type Options struct {
	MaxTokens   int
	Temperature *float32
}

type Provider interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

type Family string

const (
	FamilyHostedChat Family = "hosted-chat"
	FamilyGeminiChat Family = "gemini-chat"
	FamilyTemplated  Family = "templated-completion"
)

const DefaultBackendID = "default"

// Backend is the resolved choice for one request.
type Backend struct {
	ID          string   `json:"id"`
	Family      Family   `json:"family"`
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
}

// Options builds call options for this backend with the given token ceiling.
func (b Backend) Options(maxTokens int) Options {
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}
	return Options{MaxTokens: maxTokens, Temperature: b.Temperature}
}

func temperature(t float32) *float32 { return &t }

var known = map[string]func() Backend{
	"gpt-4": func() Backend {
		return Backend{ID: "gpt-4", Family: FamilyHostedChat, Model: config.GPT4Model, Temperature: temperature(config.ModelTemperature)}
	},
	"gpt-4o": func() Backend {
		return Backend{ID: "gpt-4o", Family: FamilyHostedChat, Model: config.GPT4oModel, Temperature: temperature(config.ModelTemperature)}
	},
	"gemini": func() Backend {
		return Backend{ID: "gemini", Family: FamilyGeminiChat, Model: config.GeminiModelName}
	},
	"llama3": func() Backend {
		return Backend{ID: "llama3", Family: FamilyTemplated, Model: config.LlamaModelName}
	},
}

// Resolve maps a caller supplied model identifier to a backend. Unknown or
// empty identifiers get the low-cost default.
func Resolve(modelID string) Backend {
	if mk, ok := known[strings.ToLower(strings.TrimSpace(modelID))]; ok {
		return mk()
	}
	return Backend{ID: DefaultBackendID, Family: FamilyHostedChat, Model: config.DefaultOpenAIModel}
}

// Models lists the recognised identifiers, default last.
func Models() []string {
	ids := make([]string, 0, len(known)+1)
	for id := range known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return append(ids, DefaultBackendID)
}

// Factory builds a provider for one backend. It must not keep per-request state.
type Factory func(b Backend) Provider

// Selector turns model identifiers into ready providers. Factories are
// registered once at startup; Select is safe for concurrent use afterwards.
type Selector struct {
	factories map[Family]Factory
	retry     RetryPolicy
}

func NewSelector(retry RetryPolicy) *Selector {
	return &Selector{factories: make(map[Family]Factory), retry: retry}
}

func (s *Selector) Register(f Family, factory Factory) {
	s.factories[f] = factory
}

// Select resolves modelID and constructs a fresh provider wrapped in the
// retry policy.
func (s *Selector) Select(modelID string) (Backend, Provider, error) {
	b := Resolve(modelID)
	factory, ok := s.factories[b.Family]
	if !ok {
		return b, nil, fmt.Errorf("%w: no provider configured for %s (%s)", commonModels.ErrBackendUnavailable, b.ID, b.Family)
	}
	return b, WithRetry(factory(b), s.retry), nil
}
