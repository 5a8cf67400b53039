package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/job"
	"github.com/akolanti/doctutor/internal/rag/loader"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service  *job.Service
	uploader loader.Uploader
}

func InitJobHandler(jobService *job.Service, uploader loader.Uploader) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, uploader: uploader}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.Info("To create new job", "traceId", newJob.traceId, "job id", newJob.id, "task", newJob.request.Task)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	h.service.Enqueue(ctx, jobModel.Job{
		Id:          newJob.id,
		TraceId:     newJob.traceId,
		Request:     newJob.request,
		CreatedTime: time.Now(),
		CurrentStep: jobModel.Init,
	})
}

func (h *JobHandler) upload(ctx context.Context, name string, content []byte) (string, error) {
	return h.uploader.Put(ctx, name, content)
}
