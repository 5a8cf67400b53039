package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	jobmodel "github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), string(job.Request.Task), time.Since(start))
	}()
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	log := logger.FromContext(ctx).With("job Id", job.Id)
	log.Debug("Processing job", "task", job.Request.Task, "model", job.Request.Model)

	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)

	// the pipeline applies its own deadline
	job = _ragService.ProcessJob(ctx, job)
	job.EndTime = time.Now()

	final := jobmodel.JobStatusComplete
	if job.Status == jobmodel.JobStatusError {
		final = jobmodel.JobStatusError
		log.Warn("Job failed", "code", job.Error.Code, "stage", job.Error.Stage)
	}
	job = saveJobState(ctx, job, final)
	log.Info("Job finished", "status", job.Status, "elapsed", time.Since(start))
}

func removeWorker(reason string) {
	count := atomic.AddInt64(&currentWorkerCount, -1)
	workerRemoved(reason, count)
}

// retireIdle shrinks the pool by one unless it is already at the minimum.
func retireIdle() bool {
	for {
		count := atomic.LoadInt64(&currentWorkerCount)
		if count <= atomic.LoadInt64(&minWorkerCount) {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, count, count-1) {
			workerRemoved("Idle worker timeout", count-1)
			return true
		}
	}
}

func workerRemoved(reason string, count int64) {
	workerWaitGroup.Done()
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.FromContext(ctx).Error("Failed to update job state", "job Id", job.Id, "error", err)
	}
	return job
}
