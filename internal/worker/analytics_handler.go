package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"brainboost/internal/tasks"
)

// Refresher recomputes a user's cached study statistics.
type Refresher interface {
	Refresh(ctx context.Context, userID uint) error
}

// AnalyticsRefreshHandler 消费 analytics:refresh 任务。
type AnalyticsRefreshHandler struct {
	refresher Refresher
	logger    *slog.Logger
}

// NewAnalyticsRefreshHandler 创建任务处理器。
func NewAnalyticsRefreshHandler(refresher Refresher, logger *slog.Logger) *AnalyticsRefreshHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsRefreshHandler{refresher: refresher, logger: logger}
}

// ProcessTask 实现 asynq.Handler。载荷无法解析时不重试。
func (h *AnalyticsRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseAnalyticsRefresh(t)
	if err != nil {
		h.logger.Error("invalid analytics refresh payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("user_id", uint64(payload.UserID)),
	)
	if err := h.refresher.Refresh(ctx, payload.UserID); err != nil {
		log.Error("analytics refresh failed", slog.Any("error", err))
		return err
	}
	log.Info("analytics refreshed")
	return nil
}
