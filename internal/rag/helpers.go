package rag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/metrics"
	"github.com/akolanti/doctutor/internal/rag/llm"
	"github.com/akolanti/doctutor/internal/rag/vectorDB"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

func logOutput(status jobModel.InternalStatus, log *logger_i.Logger) jobModel.InternalStatus {
	log.Debug("ProcessRequest", "Current Status", status)
	return status
}

// toJobError maps the error taxonomy onto the status codes clients see.
func toJobError(err error) jobModel.JobError {
	je := jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Stage:   string(commonModels.StageOf(err)),
		Message: "Internal Server Error",
	}
	// adapters wrap an expired deadline in their own taxonomy error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		je.Code, je.Message, je.Retry = http.StatusGatewayTimeout, "Generation timed out", true
	case errors.Is(err, commonModels.ErrInvalidRequest):
		je.Code, je.Message = http.StatusBadRequest, err.Error()
	case errors.Is(err, commonModels.ErrDocumentUnreadable):
		je.Code, je.Message = http.StatusUnprocessableEntity, "The document could not be read"
	case errors.Is(err, commonModels.ErrBackendUnavailable):
		je.Code, je.Message, je.Retry = http.StatusBadGateway, "The model backend is unavailable", true
	case errors.Is(err, commonModels.ErrExtractionFailed):
		je.Code, je.Message, je.Retry = http.StatusBadGateway, "The model reply did not contain a structured payload", true
	case errors.Is(err, commonModels.ErrPayloadInvalid):
		je.Code, je.Message, je.Retry = http.StatusBadGateway, "The model reply contained a malformed payload", true
	}
	return je
}

func (s *service) jobError(ctx context.Context, job jobModel.Job, err error) jobModel.Job {
	stage := commonModels.StageOf(err)
	s.logger.FromContext(ctx).Error("generation failed", "JobId", job.Id, "stage", stage, "error", err)
	metrics.CaptureFailure(string(stage))

	job.Error = toJobError(err)
	job.Status = jobModel.JobStatusError
	return job
}

func (s *service) executeLoadStep(ctx context.Context, log *logger_i.Logger, step *jobModel.InternalStatus, name string) (string, error) {
	*step = logOutput(jobModel.LoadCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_load", time.Since(start)) }()

	return s.loader.Load(ctx, name)
}

func (s *service) executeIndexStep(ctx context.Context, log *logger_i.Logger, step *jobModel.InternalStatus, text string) (vectorDB.PassageIndex, error) {
	*step = logOutput(jobModel.IndexCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_build", time.Since(start)) }()

	index, err := s.index.Build(ctx, text)
	if err == nil {
		log.Debug("passage index built", "passages", index.Len())
	}
	return index, err
}

func (s *service) executeRetrieveStep(ctx context.Context, log *logger_i.Logger, step *jobModel.InternalStatus, index vectorDB.PassageIndex, probe string) ([]commonModels.Passage, error) {
	*step = logOutput(jobModel.RetrieveCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return index.Query(ctx, probe, s.options.TopK)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, step *jobModel.InternalStatus, modelID string, prompt string) (llm.Backend, string, error) {
	*step = logOutput(jobModel.LLMCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	backend, provider, err := s.backends.Select(modelID)
	if err != nil {
		return backend, "", err
	}
	log.Debug("backend resolved", "backend", backend.ID, "model", backend.Model)

	text, err := provider.Generate(ctx, prompt, backend.Options(s.options.MaxTokens))
	metrics.CaptureBackendCall(backend.ID, err == nil)
	if err != nil && !errors.Is(err, commonModels.ErrBackendUnavailable) {
		err = errors.Join(commonModels.ErrBackendUnavailable, err)
	}
	return backend, text, err
}

func (s *service) executeExtractStep(ctx context.Context, log *logger_i.Logger, step *jobModel.InternalStatus, raw string) (string, error) {
	*step = logOutput(jobModel.ExtractCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("extraction", time.Since(start)) }()

	return s.options.Extractor(raw)
}
