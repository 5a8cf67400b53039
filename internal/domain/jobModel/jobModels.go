package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	Init         InternalStatus = "Init"
	LoadCall     InternalStatus = "Load"
	IndexCall    InternalStatus = "Index"
	RetrieveCall InternalStatus = "Retrieve"
	PromptCall   InternalStatus = "Prompt"
	LLMCall      InternalStatus = "LLM"
	ExtractCall  InternalStatus = "Extract"

	Complete InternalStatus = "Complete"
)

type Job struct {
	Id          string                         `json:"id"`
	TraceId     string                         `json:"trace_id"`
	Request     commonModels.GenerationRequest `json:"request"`
	Result      *commonModels.GenerationResult `json:"result,omitempty"`
	Error       JobError                       `json:"error,omitempty"`
	CreatedTime time.Time                      `json:"created_time"`
	EndTime     time.Time                      `json:"end_time,omitempty"`
	Status      JobStatus                      `json:"status"`
	CurrentStep InternalStatus                 `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
