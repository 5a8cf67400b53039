package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem JobStore")

type storedJob struct {
	job     jobModel.Job
	expires time.Time
}

// InMemoryJobStore is the fallback when Redis is unavailable. Entries expire
// after the same TTL Redis applies; expired entries are dropped on read.
type InMemoryJobStore struct {
	jobMutex *sync.RWMutex
	jobMap   map[string]storedJob
	ttl      time.Duration
	now      func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMutex: new(sync.RWMutex),
		jobMap:   make(map[string]storedJob),
		ttl:      config.RedisJobStoreTTL,
		now:      time.Now,
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, jobToStored jobModel.Job) error {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	store.jobMap[jobToStored.Id] = storedJob{job: jobToStored, expires: store.now().Add(store.ttl)}
	inMemLogger.FromContext(ctx).Debug("Saved job to store", "job Id", jobToStored.Id, "status", jobToStored.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	entry, found := store.jobMap[jobId]
	store.jobMutex.RUnlock()

	if found && store.now().After(entry.expires) {
		store.DeleteJob(ctx, jobId)
		return jobModel.Job{}, false
	}
	return entry.job, found
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	delete(store.jobMap, jobID)
}
