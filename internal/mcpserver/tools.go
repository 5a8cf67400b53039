// Package mcpserver exposes the generation pipeline as MCP tools so editors
// and agents can ask about, or quiz themselves on, uploaded documents.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/rag"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "doctutor"
	ServerVersion = "v1.0.0"
)

var logger = logger_i.NewLogger("mcp")

type ToolInput struct {
	Filename string `json:"filename" jsonschema:"name of a previously uploaded document"`
	Model    string `json:"model,omitempty" jsonschema:"model identifier; unknown values use the default backend"`
	Message  string `json:"message,omitempty" jsonschema:"the question, required for chat"`
}

type tools struct {
	service rag.Service
}

// NewServer registers the chat, quiz and flashcards tools over service.
func NewServer(service rag.Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)
	t := &tools{service: service}

	mcp.AddTool(server, &mcp.Tool{
		Name:        string(commonModels.TaskChat),
		Description: "Answer a question using passages retrieved from an uploaded document.",
	}, t.handler(commonModels.TaskChat))
	mcp.AddTool(server, &mcp.Tool{
		Name:        string(commonModels.TaskQuiz),
		Description: "Generate ten hard multiple choice questions from an uploaded document.",
	}, t.handler(commonModels.TaskQuiz))
	mcp.AddTool(server, &mcp.Tool{
		Name:        string(commonModels.TaskFlashcards),
		Description: "Generate study flashcards from an uploaded document.",
	}, t.handler(commonModels.TaskFlashcards))

	return server
}

func (t *tools) handler(task commonModels.TaskKind) mcp.ToolHandlerFor[ToolInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ToolInput) (*mcp.CallToolResult, any, error) {
		ctx, cancel := context.WithTimeout(ctx, config.PipelineTimeout)
		defer cancel()

		req := commonModels.GenerationRequest{
			Document: in.Filename,
			Task:     task,
			Model:    in.Model,
			Message:  strings.TrimSpace(in.Message),
		}
		result, err := t.service.Run(ctx, req)
		if err != nil {
			logger.FromContext(ctx).Warn("tool call failed", "task", task, "stage", commonModels.StageOf(err), "error", err)
			return errorResult(err, result), nil, nil
		}

		body, err := json.Marshal(result)
		if err != nil {
			return nil, nil, fmt.Errorf("encode result: %w", err)
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(body)}},
			StructuredContent: result,
		}, nil, nil
	}
}

// errorResult reports a failed generation as tool output. The raw reply is
// attached when the backend answered but the payload was unusable.
func errorResult(err error, result commonModels.GenerationResult) *mcp.CallToolResult {
	content := []mcp.Content{&mcp.TextContent{Text: err.Error()}}
	if result.Raw != "" {
		content = append(content, &mcp.TextContent{Text: result.Raw})
	}
	return &mcp.CallToolResult{IsError: true, Content: content}
}
