package job

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/internal/metrics"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

var logger = logger_i.NewLogger("JobService")

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
	}
}

// Enqueue stores the job as queued, so /status can see it before a worker
// does, and hands it to the pool. The send blocks while the buffer is full.
func (s *Service) Enqueue(ctx context.Context, j jobModel.Job) {
	log := logger.FromContext(ctx).With("job id", j.Id, "task", j.Request.Task)

	j.Status = jobModel.JobStatusQueued
	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Could not persist queued job", "error", err)
	}

	metrics.IncrementJobsInQueue()
	s.JobChannel <- j
	log.Info("Queued job")

	// quiz and flashcard replies are long, so they also ask for another worker
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 || j.Request.Task.Structured() {
		s.signalDispatcher(log)
	}
}

func (s *Service) signalDispatcher(log *logger_i.Logger) {
	if s.DispatcherChannel == nil {
		return
	}
	select {
	case s.DispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
		log.Debug("Signalled dispatcher")
	default:
		// a signal is already pending
	}
}
