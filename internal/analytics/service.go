package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"brainboost/internal/database"
	"brainboost/internal/errcode"
	"brainboost/internal/tasks"
)

// refreshUniqueWindow collapses bursts of toggles into one recompute.
const refreshUniqueWindow = 30 * time.Second

// Enqueuer is the subset of *asynq.Client used to schedule refresh jobs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Service 计算并缓存学习统计。cache 与 queue 均可为 nil。
type Service struct {
	db     *gorm.DB
	cache  Cache
	queue  Enqueuer
	logger *slog.Logger
}

func NewService(db *gorm.DB, cache Cache, queue Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, cache: cache, queue: queue, logger: logger}
}

// StudyTime returns the cached summary when present, otherwise computes and caches it.
// Cache failures are logged and never fail the request. A summary computed before a
// concurrent invalidation is stored under the old generation and is never served.
func (s *Service) StudyTime(ctx context.Context, userID uint) (StudyTime, error) {
	if s.cache == nil {
		return s.Compute(ctx, userID)
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "analytics cache generation read failed", "user_id", userID, "error", err)
		return s.Compute(ctx, userID)
	}
	st, ok, err := s.cache.Get(ctx, userID, gen)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "analytics cache read failed", "user_id", userID, "error", err)
	case ok:
		return st, nil
	}

	st, err = s.Compute(ctx, userID)
	if err != nil {
		return StudyTime{}, err
	}
	if err := s.cache.Set(ctx, userID, gen, st); err != nil {
		s.logger.WarnContext(ctx, "analytics cache write failed", "user_id", userID, "error", err)
	}
	return st, nil
}

// Compute aggregates the user's plans straight from the database.
func (s *Service) Compute(ctx context.Context, userID uint) (StudyTime, error) {
	var plans []database.StudyPlan
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&plans).Error; err != nil {
		return StudyTime{}, errcode.StoreFailed("load study plans", err)
	}
	return Aggregate(plans), nil
}

// Refresh recomputes the summary and caches it under the current generation.
func (s *Service) Refresh(ctx context.Context, userID uint) error {
	if s.cache == nil {
		_, err := s.Compute(ctx, userID)
		return err
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		return fmt.Errorf("read analytics generation: %w", err)
	}
	st, err := s.Compute(ctx, userID)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, userID, gen, st)
}

// PlansChanged invalidates the cached summary and schedules a background recompute.
func (s *Service) PlansChanged(ctx context.Context, userID uint, correlationID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "analytics cache invalidation failed", "user_id", userID, "error", err)
		}
	}
	if s.queue == nil {
		return
	}
	task, err := tasks.NewAnalyticsRefreshTask(userID, correlationID)
	if err != nil {
		s.logger.ErrorContext(ctx, "build analytics refresh task", "error", err)
		return
	}
	_, err = s.queue.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Unique(refreshUniqueWindow))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		s.logger.WarnContext(ctx, "enqueue analytics refresh failed", "user_id", userID, "error", err)
	}
}
