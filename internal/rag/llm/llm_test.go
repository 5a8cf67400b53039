package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type mockProvider struct {
	OnGenerate func(ctx context.Context, prompt string, opts Options) (string, error)
	calls      int
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	m.calls++
	return m.OnGenerate(ctx, prompt, opts)
}

func oaErr(code int) error {
	return &openai.Error{
		StatusCode: code,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: code},
	}
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		Base:        time.Millisecond,
		Cap:         4 * time.Millisecond,
		Sleep:       noSleep,
		Jitter:      func() float64 { return 0.5 },
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		modelID    string
		wantID     string
		wantFamily Family
		wantModel  string
		wantTemp   bool
	}{
		{"gpt-4", "gpt-4", FamilyHostedChat, config.GPT4Model, true},
		{"gpt-4o", "gpt-4o", FamilyHostedChat, config.GPT4oModel, true},
		{"GPT-4o ", "gpt-4o", FamilyHostedChat, config.GPT4oModel, true},
		{"gemini", "gemini", FamilyGeminiChat, config.GeminiModelName, false},
		{"llama3", "llama3", FamilyTemplated, config.LlamaModelName, false},
		{"", DefaultBackendID, FamilyHostedChat, config.DefaultOpenAIModel, false},
		{"gpt-3.5", DefaultBackendID, FamilyHostedChat, config.DefaultOpenAIModel, false},
		{"mistral", DefaultBackendID, FamilyHostedChat, config.DefaultOpenAIModel, false},
	}

	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			b := Resolve(tt.modelID)
			if b.ID != tt.wantID || b.Family != tt.wantFamily || b.Model != tt.wantModel {
				t.Errorf("Resolve(%q) = %+v", tt.modelID, b)
			}
			if (b.Temperature != nil) != tt.wantTemp {
				t.Errorf("Resolve(%q) temperature set = %v, want %v", tt.modelID, b.Temperature != nil, tt.wantTemp)
			}
			if tt.wantTemp && *b.Temperature != config.ModelTemperature {
				t.Errorf("temperature = %v", *b.Temperature)
			}
		})
	}
}

func TestResolve_IsPure(t *testing.T) {
	a := Resolve("gpt-4")
	*a.Temperature = 1.5
	b := Resolve("gpt-4")
	if *b.Temperature != config.ModelTemperature {
		t.Errorf("mutating one resolution leaked into the next: %v", *b.Temperature)
	}
}

func TestBackendOptions(t *testing.T) {
	opts := Resolve("gpt-4o").Options(0)
	if opts.MaxTokens != config.DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", opts.MaxTokens, config.DefaultMaxTokens)
	}
	if opts.Temperature == nil || *opts.Temperature != config.ModelTemperature {
		t.Errorf("Temperature = %v", opts.Temperature)
	}
	if got := Resolve("").Options(128).MaxTokens; got != 128 {
		t.Errorf("MaxTokens = %d, want 128", got)
	}
}

func TestModels(t *testing.T) {
	ids := Models()
	if ids[len(ids)-1] != DefaultBackendID {
		t.Errorf("default should be listed last: %v", ids)
	}
	if len(ids) != 5 {
		t.Errorf("expected 5 identifiers, got %v", ids)
	}
}

func TestSelector(t *testing.T) {
	var built []Backend
	s := NewSelector(testPolicy(1))
	s.Register(FamilyHostedChat, func(b Backend) Provider {
		built = append(built, b)
		return &mockProvider{OnGenerate: func(ctx context.Context, prompt string, opts Options) (string, error) {
			return b.Model, nil
		}}
	})

	b, p, err := s.Select("gpt-4")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	out, _ := p.Generate(context.Background(), "hi", b.Options(0))
	if out != config.GPT4Model {
		t.Errorf("provider ran against %q", out)
	}

	_, p2, _ := s.Select("anything")
	out, _ = p2.Generate(context.Background(), "hi", Options{})
	if out != config.DefaultOpenAIModel {
		t.Errorf("second provider ran against %q", out)
	}
	if len(built) != 2 {
		t.Errorf("expected a fresh provider per Select, got %d", len(built))
	}

	_, _, err = s.Select("gemini")
	if !errors.Is(err, commonModels.ErrBackendUnavailable) {
		t.Errorf("unregistered family should be unavailable, got %v", err)
	}
}

func TestWithRetry(t *testing.T) {
	transient := genai.APIError{Code: 503, Message: "overloaded"}
	permanent := genai.APIError{Code: 401, Message: "bad key"}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"success first try", []error{nil}, 1, false},
		{"recovers after transient", []error{transient, nil}, 2, false},
		{"gives up after max attempts", []error{transient, transient, transient, nil}, 3, true},
		{"permanent is not retried", []error{permanent, nil}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockProvider{}
			m.OnGenerate = func(ctx context.Context, prompt string, opts Options) (string, error) {
				err := tt.errs[m.calls-1]
				if err != nil {
					return "", err
				}
				return "ok", nil
			}

			out, err := WithRetry(m, testPolicy(3)).Generate(context.Background(), "p", Options{})
			if m.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", m.calls, tt.wantCalls)
			}
			if tt.wantErr {
				if !errors.Is(err, commonModels.ErrBackendUnavailable) {
					t.Errorf("expected ErrBackendUnavailable, got %v", err)
				}
				return
			}
			if err != nil || out != "ok" {
				t.Errorf("got (%q, %v)", out, err)
			}
		})
	}
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &mockProvider{}
	m.OnGenerate = func(ctx context.Context, prompt string, opts Options) (string, error) {
		cancel()
		return "", genai.APIError{Code: 503}
	}

	_, err := WithRetry(m, testPolicy(3)).Generate(ctx, "p", Options{})
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1", m.calls)
	}
	if !errors.Is(err, commonModels.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	p := RetryPolicy{Base: 500 * time.Millisecond, Cap: 4 * time.Second, Jitter: func() float64 { return 0.999 }}
	prev := time.Duration(0)
	for attempt := 0; attempt < 10; attempt++ {
		d := p.backoff(attempt)
		if d > p.Cap {
			t.Fatalf("attempt %d waited %v, over the cap", attempt, d)
		}
		if d < prev {
			t.Fatalf("backoff shrank at attempt %d: %v < %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"openai 429", oaErr(429), true},
		{"openai 500 wrapped", fmt.Errorf("x: %w", oaErr(500)), true},
		{"openai 400", oaErr(400), false},
		{"genai 503", genai.APIError{Code: 503}, true},
		{"genai 404", genai.APIError{Code: 404}, false},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad"), false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
