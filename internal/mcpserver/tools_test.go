package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mockService struct {
	OnRun func(ctx context.Context, req commonModels.GenerationRequest) (commonModels.GenerationResult, error)
}

func (m *mockService) Run(ctx context.Context, req commonModels.GenerationRequest) (commonModels.GenerationResult, error) {
	return m.OnRun(ctx, req)
}

func (m *mockService) ProcessJob(ctx context.Context, j jobModel.Job) jobModel.Job {
	return j
}

func connect(t *testing.T, svc *mockService) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	if _, err := NewServer(svc).Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func text(t *testing.T, res *mcp.CallToolResult, i int) string {
	t.Helper()
	if len(res.Content) <= i {
		t.Fatalf("result has %d content items", len(res.Content))
	}
	tc, ok := res.Content[i].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content %d is %T", i, res.Content[i])
	}
	return tc.Text
}

func TestTools_Listed(t *testing.T) {
	session := connect(t, &mockService{})
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"chat", "quiz", "flashcards"} {
		if !names[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestTools_Call(t *testing.T) {
	var got commonModels.GenerationRequest
	svc := &mockService{
		OnRun: func(ctx context.Context, req commonModels.GenerationRequest) (commonModels.GenerationResult, error) {
			got = req
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("tool call should carry a deadline")
			}
			switch req.Task {
			case commonModels.TaskQuiz:
				return commonModels.GenerationResult{Task: req.Task, Raw: "no markers here"},
					commonModels.NewStageError(commonModels.StageExtract, commonModels.ErrExtractionFailed)
			case commonModels.TaskFlashcards:
				return commonModels.GenerationResult{Task: req.Task}, commonModels.NewStageError(commonModels.StageLoad,
					fmt.Errorf("%w: missing.pdf", commonModels.ErrDocumentUnreadable))
			}
			return commonModels.GenerationResult{Task: req.Task, Backend: "gemini", Raw: "Paris"}, nil
		},
	}
	session := connect(t, svc)
	ctx := context.Background()

	t.Run("chat success", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "chat",
			Arguments: map[string]any{"filename": "geo.pdf", "model": "gemini", "message": " Capital of France? "},
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.IsError {
			t.Fatalf("unexpected tool error: %s", text(t, res, 0))
		}
		var out commonModels.GenerationResult
		if err := json.Unmarshal([]byte(text(t, res, 0)), &out); err != nil {
			t.Fatal(err)
		}
		if out.Raw != "Paris" || out.Backend != "gemini" {
			t.Errorf("result = %+v", out)
		}
		if got.Message != "Capital of France?" || got.Document != "geo.pdf" || got.Task != commonModels.TaskChat {
			t.Errorf("request = %+v", got)
		}
	})

	t.Run("extraction failure keeps raw", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "quiz",
			Arguments: map[string]any{"filename": "geo.pdf"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsError {
			t.Fatal("expected a tool error")
		}
		if !strings.Contains(text(t, res, 0), "extraction failed") || text(t, res, 1) != "no markers here" {
			t.Errorf("content = %v", res.Content)
		}
	})

	t.Run("unreadable document", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "flashcards",
			Arguments: map[string]any{"filename": "missing.pdf"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsError || len(res.Content) != 1 {
			t.Errorf("expected a single error message, got %+v", res)
		}
	})
}
