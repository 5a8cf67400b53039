package rag_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/rag"
	"github.com/akolanti/doctutor/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/doctutor/internal/rag/extract"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/internal/rag/passage"
	"github.com/akolanti/doctutor/internal/rag/prompt"
	"github.com/akolanti/doctutor/internal/rag/vectorDB"
)

const conceptReply = `start_json_{"concepts":[{"concept":"photosynthesis","explanation":"converts light to chemical energy"}]}_end_json`

func newTestService(l *MockLoader, sel *MockSelector, extractor func(string) (string, error)) rag.Service {
	builder := passage.NewMemoryBuilder(hashEmbedding.New(256), passage.DefaultOptions())
	return rag.NewService(l, builder, sel, rag.Options{
		Flashcards: prompt.FlashcardConfig{Variant: config.FlashcardVariantConcepts},
		Extractor:  extractor,
	})
}

func traceCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func TestRun_FlashcardsEndToEnd(t *testing.T) {
	var sentPrompt string
	sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
		sentPrompt = p
		return conceptReply, nil
	}}}
	s := newTestService(&MockLoader{}, sel, nil)

	result, err := s.Run(traceCtx(), commonModels.GenerationRequest{
		Document: "bio.pdf",
		Task:     commonModels.TaskFlashcards,
		Model:    "default",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Raw != conceptReply {
		t.Errorf("raw text not retained: %q", result.Raw)
	}
	if string(result.Payload) != `{"concepts":[{"concept":"photosynthesis","explanation":"converts light to chemical energy"}]}` {
		t.Errorf("payload = %s", result.Payload)
	}
	if result.Flashcards == nil || len(result.Flashcards.Concepts) != 1 {
		t.Fatalf("expected 1 concept, got %+v", result.Flashcards)
	}
	if result.Backend != llm.DefaultBackendID {
		t.Errorf("backend = %q", result.Backend)
	}
	if !strings.Contains(sentPrompt, "Photosynthesis converts light into chemical energy.") {
		t.Errorf("prompt does not carry the document passage:\n%s", sentPrompt)
	}
	if !strings.Contains(sentPrompt, extract.StartMarker) {
		t.Errorf("prompt lacks the delimiter instruction")
	}
}

func TestRun_ChatSkipsExtraction(t *testing.T) {
	extractorCalls := 0
	sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
		if opts.Temperature == nil {
			t.Errorf("gpt-4 options should carry a temperature")
		}
		return "Paris.", nil
	}}}
	s := newTestService(&MockLoader{OnLoad: func(ctx context.Context, name string) (string, error) {
		return "Paris is the capital of France. Mars is the red planet.", nil
	}}, sel, func(text string) (string, error) {
		extractorCalls++
		return extract.Extract(text)
	})

	result, err := s.Run(traceCtx(), commonModels.GenerationRequest{
		Document: "geo.pdf", Task: commonModels.TaskChat, Model: "gpt-4", Message: "What is the capital of France?",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Raw != "Paris." || result.Payload != nil {
		t.Errorf("unexpected result %+v", result)
	}
	if extractorCalls != 0 {
		t.Errorf("chat should not run the extractor")
	}
	if len(result.Passages) == 0 || !strings.Contains(result.Passages[0].Text, "Paris") {
		t.Errorf("expected the Paris passage first, got %+v", result.Passages)
	}
}

func TestRun_BackendUnavailableSkipsExtractor(t *testing.T) {
	extractorCalls := 0
	sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
		return "", commonModels.ErrBackendUnavailable
	}}}
	s := newTestService(&MockLoader{}, sel, func(text string) (string, error) {
		extractorCalls++
		return extract.Extract(text)
	})

	_, err := s.Run(traceCtx(), commonModels.GenerationRequest{Document: "bio.pdf", Task: commonModels.TaskQuiz})
	if !errors.Is(err, commonModels.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if commonModels.StageOf(err) != commonModels.StageGenerate {
		t.Errorf("stage = %q, want generate", commonModels.StageOf(err))
	}
	if extractorCalls != 0 {
		t.Errorf("extractor was invoked %d times", extractorCalls)
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		req       commonModels.GenerationRequest
		load      func(ctx context.Context, name string) (string, error)
		reply     string
		wantErr   error
		wantStage commonModels.Stage
		wantRaw   bool
	}{
		{
			name:      "chat without message",
			req:       commonModels.GenerationRequest{Document: "a.pdf", Task: commonModels.TaskChat},
			wantErr:   commonModels.ErrInvalidRequest,
			wantStage: commonModels.StageValidate,
		},
		{
			name: "unreadable document",
			req:  commonModels.GenerationRequest{Document: "a.pdf", Task: commonModels.TaskQuiz},
			load: func(ctx context.Context, name string) (string, error) {
				return "", commonModels.ErrDocumentUnreadable
			},
			wantErr:   commonModels.ErrDocumentUnreadable,
			wantStage: commonModels.StageLoad,
		},
		{
			name:      "reply without markers",
			req:       commonModels.GenerationRequest{Document: "a.pdf", Task: commonModels.TaskQuiz},
			reply:     "Here is your quiz: 1) ...",
			wantErr:   commonModels.ErrExtractionFailed,
			wantStage: commonModels.StageExtract,
			wantRaw:   true,
		},
		{
			name:      "payload with wrong shape",
			req:       commonModels.GenerationRequest{Document: "a.pdf", Task: commonModels.TaskQuiz},
			reply:     `start_json_{"questions":[{"question":"q","options":{"a":"1"},"answer":"z"}]}_end_json`,
			wantErr:   commonModels.ErrPayloadInvalid,
			wantStage: commonModels.StageDecode,
			wantRaw:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
				return tt.reply, nil
			}}}
			s := newTestService(&MockLoader{OnLoad: tt.load}, sel, nil)

			result, err := s.Run(traceCtx(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got := commonModels.StageOf(err); got != tt.wantStage {
				t.Errorf("stage = %q, want %q", got, tt.wantStage)
			}
			if tt.wantRaw && result.Raw != tt.reply {
				t.Errorf("raw text lost on failure: %q", result.Raw)
			}
		})
	}
}

func TestRun_ClosesIndex(t *testing.T) {
	idx := &MockIndex{}
	builder := &MockBuilder{OnBuild: func(ctx context.Context, text string) (vectorDB.PassageIndex, error) {
		return idx, nil
	}}
	var k int
	idx.OnQuery = func(ctx context.Context, query string, kk int) ([]commonModels.Passage, error) {
		k = kk
		if query != config.GenericProbe {
			t.Errorf("quiz should probe with %q, got %q", config.GenericProbe, query)
		}
		return nil, nil
	}
	sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
		return "no markers", nil
	}}}

	s := rag.NewService(&MockLoader{}, builder, sel, rag.Options{})
	_, _ = s.Run(traceCtx(), commonModels.GenerationRequest{Document: "a.pdf", Task: commonModels.TaskQuiz})

	if !idx.Closed {
		t.Errorf("index was not closed")
	}
	if k != config.DefaultTopK {
		t.Errorf("queried with k=%d, want %d", k, config.DefaultTopK)
	}
}

func TestRun_ConcurrentModelsDoNotLeak(t *testing.T) {
	sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
		return "ok", nil
	}}}
	s := newTestService(&MockLoader{}, sel, nil)

	models := []string{"gpt-4", "gemini", "llama3", "", "gpt-4o"}
	results := make([]commonModels.GenerationResult, len(models))
	var wg sync.WaitGroup
	for i, m := range models {
		wg.Add(1)
		go func(i int, m string) {
			defer wg.Done()
			results[i], _ = s.Run(traceCtx(), commonModels.GenerationRequest{
				Document: "a.pdf", Task: commonModels.TaskChat, Model: m, Message: "hi",
			})
		}(i, m)
	}
	wg.Wait()

	for i, m := range models {
		if want := llm.Resolve(m).ID; results[i].Backend != want {
			t.Errorf("request for %q ran on %q", m, results[i].Backend)
		}
	}
}

func TestProcessJob_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		genErr     error
		wantStatus jobModel.JobStatus
		wantStep   jobModel.InternalStatus
		wantCode   int
		wantRetry  bool
	}{
		{"success", conceptReply, nil, "", jobModel.Complete, 0, false},
		{"backend down", "", commonModels.ErrBackendUnavailable, jobModel.JobStatusError, jobModel.LLMCall, http.StatusBadGateway, true},
		{"no payload", "sorry", nil, jobModel.JobStatusError, jobModel.ExtractCall, http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
				return tt.reply, tt.genErr
			}}}
			s := newTestService(&MockLoader{}, sel, nil)

			job := jobModel.Job{
				Id:      "test-job",
				Request: commonModels.GenerationRequest{Document: "bio.pdf", Task: commonModels.TaskFlashcards},
			}
			got := s.ProcessJob(traceCtx(), job)

			if got.Status != tt.wantStatus {
				t.Errorf("Status got %v, want %v", got.Status, tt.wantStatus)
			}
			if got.CurrentStep != tt.wantStep {
				t.Errorf("Step got %v, want %v", got.CurrentStep, tt.wantStep)
			}
			if got.Error.Code != tt.wantCode || got.Error.Retry != tt.wantRetry {
				t.Errorf("Error got %+v", got.Error)
			}
			if got.Result == nil {
				t.Fatal("result should always be recorded")
			}
			if tt.reply != "" && got.Result.Raw != tt.reply {
				t.Errorf("raw got %q, want %q", got.Result.Raw, tt.reply)
			}
		})
	}
}

func TestProcessJob_UnreadableIs422(t *testing.T) {
	s := newTestService(&MockLoader{OnLoad: func(ctx context.Context, name string) (string, error) {
		return "", commonModels.ErrDocumentUnreadable
	}}, &MockSelector{LLM: &MockLLM{}}, nil)

	got := s.ProcessJob(traceCtx(), jobModel.Job{
		Id:      "j",
		Request: commonModels.GenerationRequest{Document: "x.pdf", Task: commonModels.TaskQuiz},
	})
	if got.Error.Code != http.StatusUnprocessableEntity || got.Error.Stage != string(commonModels.StageLoad) {
		t.Errorf("Error got %+v", got.Error)
	}
}

func TestRun_FencedPayloadMarshals(t *testing.T) {
	fenced := "start_json_ ```json\n" + `{"concepts":[{"concept":"photosynthesis","explanation":"light to energy"}]}` + "\n``` _end_json"
	sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
		return fenced, nil
	}}}
	s := newTestService(&MockLoader{}, sel, nil)

	result, err := s.Run(traceCtx(), commonModels.GenerationRequest{Document: "bio.pdf", Task: commonModels.TaskFlashcards})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Flashcards == nil || len(result.Flashcards.Concepts) != 1 {
		t.Fatalf("expected 1 concept, got %+v", result.Flashcards)
	}
	if !json.Valid(result.Payload) {
		t.Errorf("payload is not JSON: %s", result.Payload)
	}
	if _, err := json.Marshal(result); err != nil {
		t.Errorf("result does not marshal: %v", err)
	}
	if _, err := json.Marshal(jobModel.Job{Id: "j", Result: &result}); err != nil {
		t.Errorf("job does not marshal: %v", err)
	}
}

func TestRun_InvalidPayloadIsDropped(t *testing.T) {
	sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
		return "start_json_{not json_end_json", nil
	}}}
	s := newTestService(&MockLoader{}, sel, nil)

	result, err := s.Run(traceCtx(), commonModels.GenerationRequest{Document: "bio.pdf", Task: commonModels.TaskQuiz})
	if !errors.Is(err, commonModels.ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
	if result.Payload != nil {
		t.Errorf("invalid payload kept: %s", result.Payload)
	}
	if _, err := json.Marshal(result); err != nil {
		t.Errorf("result does not marshal: %v", err)
	}
}

func TestProcessJob_DeadlineIs504(t *testing.T) {
	tests := []struct {
		name      string
		load      func(ctx context.Context, name string) (string, error)
		wantStage commonModels.Stage
	}{
		{
			name: "during generation",
			load: func(ctx context.Context, name string) (string, error) {
				return "Photosynthesis converts light into chemical energy.", nil
			},
			wantStage: commonModels.StageGenerate,
		},
		{
			name: "during load",
			load: func(ctx context.Context, name string) (string, error) {
				return "", fmt.Errorf("%w: %w", commonModels.ErrDocumentUnreadable, ctx.Err())
			},
			wantStage: commonModels.StageLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := &MockSelector{LLM: &MockLLM{OnGenerate: func(ctx context.Context, p string, opts llm.Options) (string, error) {
				return "", fmt.Errorf("openai chat: %w: %w", commonModels.ErrBackendUnavailable, ctx.Err())
			}}}
			builder := &MockBuilder{OnBuild: func(ctx context.Context, text string) (vectorDB.PassageIndex, error) {
				return &MockIndex{}, nil
			}}
			s := rag.NewService(&MockLoader{OnLoad: tt.load}, builder, sel, rag.Options{})

			ctx, cancel := context.WithDeadline(traceCtx(), time.Now().Add(-time.Second))
			defer cancel()
			got := s.ProcessJob(ctx, jobModel.Job{
				Id:      "slow",
				Request: commonModels.GenerationRequest{Document: "bio.pdf", Task: commonModels.TaskQuiz},
			})

			if got.Error.Code != http.StatusGatewayTimeout || !got.Error.Retry {
				t.Errorf("Error got %+v, want 504 with retry", got.Error)
			}
			if got.Error.Stage != string(tt.wantStage) {
				t.Errorf("Stage got %q, want %q", got.Error.Stage, tt.wantStage)
			}
		})
	}
}
