package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/data/redisStore"
	"github.com/akolanti/doctutor/internal/domain/jobModel"
	"github.com/akolanti/doctutor/pkg/logger_i"
)

// RedisJobStore keeps generation jobs, results included, as JSON under a
// prefixed key that expires after config.RedisJobStoreTTL.
type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisJobStore returns nil when Redis is unreachable.
func GetRedisJobStore(ctx context.Context, opts redisStore.Options) *RedisJobStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisJobStore)
	if s == nil {
		return nil
	}
	return NewRedisJobStore(s)
}

func NewRedisJobStore(s *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  s,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func jobKey(id string) string {
	return config.RedisJobPrefix + id
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.FromContext(ctx).With("job Id", job.Id)
	log.Debug("saving job", "status", job.Status, "step", job.CurrentStep)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, jobKey(job.Id), data, config.RedisJobStoreTTL)
	if err != nil {
		log.Error("could not save job", "error", err)
	}
	return err
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.FromContext(ctx).With("job Id", jobId)

	val, err := s.store.Get(ctx, jobKey(jobId))
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("could not read job", "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("stored job is corrupt", "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	log := s.logger.FromContext(ctx).With("job Id", jobID)
	if err := s.store.Del(ctx, jobKey(jobID)); err != nil {
		log.Error("Error deleting job from Redis", "error", err)
		return
	}
	log.Debug("Job deleted from Redis")
}
