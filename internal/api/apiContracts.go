package api

import (
	"time"

	"github.com/akolanti/doctutor/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Task      string            `json:"task,omitempty" example:"quiz"`
	Filename  string            `json:"filename,omitempty" example:"biology.pdf"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"502"`
	Stage   string `json:"stage,omitempty" example:"generate"`
	Message string `json:"message" example:"The model backend is unavailable"`
	Retry   bool   `json:"can_retry" example:"true"`
}

type ChatResponse struct {
	Message string `json:"message"`
}

// Result carries whichever payload the task produced. Raw is the unprocessed
// backend reply and is kept even when the structured payload is missing.
type Result struct {
	Status     string                   `json:"status"`
	Step       string                   `json:"step,omitempty"`
	Backend    string                   `json:"backend,omitempty"`
	Chat       *ChatResponse            `json:"chat,omitempty"`
	Quiz       *commonModels.Quiz       `json:"quiz,omitempty"`
	Flashcards *commonModels.Flashcards `json:"flashcards,omitempty"`
	Raw        string                   `json:"raw,omitempty"`
	Sources    []string                 `json:"sources,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type UploadResponse struct {
	Message  string `json:"message" example:"Successful"`
	Filename string `json:"filename" example:"biology.pdf"`
}

type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// requests---------------------

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}
