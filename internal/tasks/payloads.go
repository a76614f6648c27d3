package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeAnalyticsRefresh = "analytics:refresh"
)

// AnalyticsRefreshPayload 指定需要重新计算学习统计的用户。
type AnalyticsRefreshPayload struct {
	UserID        uint   `json:"user_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewAnalyticsRefreshTask 构造一个学习统计刷新任务。
func NewAnalyticsRefreshTask(userID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AnalyticsRefreshPayload{
		UserID:        userID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAnalyticsRefresh, payload), nil
}

// ParseAnalyticsRefresh 解析任务载荷。
func ParseAnalyticsRefresh(task *asynq.Task) (AnalyticsRefreshPayload, error) {
	var p AnalyticsRefreshPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	if p.UserID == 0 {
		return p, fmt.Errorf("%s payload missing user_id", task.Type())
	}
	return p, nil
}
