package rag

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/rag/extract"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/internal/rag/loader"
	"github.com/akolanti/doctutor/internal/rag/prompt"
	"github.com/akolanti/doctutor/internal/rag/vectorDB"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

// Service is the only thing workers and tool handlers call. The loader, index
// builder and backends stay private to the implementation.
type Service interface {
	// Run executes one generation. The result carries the raw backend text
	// whenever generation succeeded, even if extraction or decoding failed.
	Run(ctx context.Context, req commonModels.GenerationRequest) (commonModels.GenerationResult, error)
	// ProcessJob runs the job's request and records result, error and step
	// on the returned copy.
	ProcessJob(ctx context.Context, job jobModel.Job) jobModel.Job
}

// BackendSelector resolves a model identifier to a fresh provider.
type BackendSelector interface {
	Select(modelID string) (llm.Backend, llm.Provider, error)
}

type Options struct {
	TopK       int
	MaxTokens  int
	Flashcards prompt.FlashcardConfig
	// Extractor defaults to extract.Extract.
	Extractor func(text string) (string, error)
}

type service struct {
	loader   loader.Loader
	index    vectorDB.Builder
	backends BackendSelector
	options  Options
	logger   *logger_i.Logger
}

func NewService(l loader.Loader, index vectorDB.Builder, backends BackendSelector, options Options) Service {
	if options.TopK < 1 {
		options.TopK = config.DefaultTopK
	}
	if options.MaxTokens < 1 {
		options.MaxTokens = config.DefaultMaxTokens
	}
	if options.Extractor == nil {
		options.Extractor = extract.Extract
	}
	return &service{
		loader:   l,
		index:    index,
		backends: backends,
		options:  options,
		logger:   logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Run(ctx context.Context, req commonModels.GenerationRequest) (commonModels.GenerationResult, error) {
	var step jobModel.InternalStatus
	return s.run(ctx, req, &step)
}

func (s *service) run(ctx context.Context, req commonModels.GenerationRequest, step *jobModel.InternalStatus) (commonModels.GenerationResult, error) {
	log := s.logger.FromContext(ctx).With("task", req.Task, "document", req.Document)
	result := commonModels.GenerationResult{Task: req.Task}

	if err := req.Validate(); err != nil {
		return result, commonModels.NewStageError(commonModels.StageValidate, err)
	}

	text, err := s.executeLoadStep(ctx, log, step, req.Document)
	if err != nil {
		return result, commonModels.NewStageError(commonModels.StageLoad, err)
	}

	index, err := s.executeIndexStep(ctx, log, step, text)
	if err != nil {
		return result, commonModels.NewStageError(commonModels.StageIndex, err)
	}
	defer func() {
		if cerr := index.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn("could not release passage index", "error", cerr)
		}
	}()

	passages, err := s.executeRetrieveStep(ctx, log, step, index, probeFor(req))
	if err != nil {
		return result, commonModels.NewStageError(commonModels.StageRetrieve, err)
	}
	result.Passages = passages

	*step = logOutput(jobModel.PromptCall, log)
	p, err := prompt.Assemble(req.Task, passages, req.Message, s.options.Flashcards)
	if err != nil {
		return result, commonModels.NewStageError(commonModels.StageAssemble, err)
	}

	backend, raw, err := s.executeLLMStep(ctx, log, step, req.Model, p)
	result.Backend = backend.ID
	if err != nil {
		return result, commonModels.NewStageError(commonModels.StageGenerate, err)
	}
	result.Raw = raw

	if !req.Task.Structured() {
		*step = jobModel.Complete
		return result, nil
	}

	payload, err := s.executeExtractStep(ctx, log, step, raw)
	if err != nil {
		return result, commonModels.NewStageError(commonModels.StageExtract, err)
	}
	// Payload is only set to valid JSON so the result always marshals
	if cleaned := extract.Clean(payload); json.Valid([]byte(cleaned)) {
		result.Payload = json.RawMessage(cleaned)
	}

	result.Quiz, result.Flashcards, err = extract.Decode(req.Task, payload)
	if err != nil {
		return result, commonModels.NewStageError(commonModels.StageDecode, err)
	}

	*step = jobModel.Complete
	return result, nil
}

func (s *service) ProcessJob(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	log := s.logger.FromContext(ctx).With("JobId", job.Id)

	processContext, cancel := context.WithTimeout(ctx, config.PipelineTimeout)
	defer cancel()

	job.CurrentStep = jobModel.Init
	result, err := s.run(processContext, job.Request, &job.CurrentStep)
	job.Result = &result
	log.Debug("pipeline finished", "elapsed", time.Since(start), "step", job.CurrentStep)

	if err != nil {
		return s.jobError(ctx, job, err)
	}
	job.CurrentStep = jobModel.Complete
	return job
}

func probeFor(req commonModels.GenerationRequest) string {
	if req.Task == commonModels.TaskChat {
		return req.Message
	}
	return config.GenericProbe
}
