package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/doctutor/internal/api"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/rag/llm"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Stage:   job.Error.Stage,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status: string(job.Status),
		Step:   string(job.CurrentStep),
	}
	if job.Result != nil {
		result = withGeneration(result, job.Status, *job.Result)
	}

	return api.JobResponse{
		Id:        job.Id,
		Task:      string(job.Request.Task),
		Filename:  job.Request.Document,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func withGeneration(result api.Result, status jobModel.JobStatus, gen commonModels.GenerationResult) api.Result {
	result.Backend = gen.Backend
	result.Raw = gen.Raw
	result.Quiz = gen.Quiz
	result.Flashcards = gen.Flashcards
	for _, p := range gen.Passages {
		result.Sources = append(result.Sources, p.Text)
	}
	// a failed chat degrades to the error message only
	if gen.Task == commonModels.TaskChat && gen.Raw != "" && status != jobModel.JobStatusError {
		result.Chat = &api.ChatResponse{Message: gen.Raw}
	}
	return result
}

func ToModelsResponse() api.ModelsResponse {
	return api.ModelsResponse{
		Models:  llm.Models(),
		Default: llm.DefaultBackendID,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
