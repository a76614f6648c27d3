package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsRefreshTask(t *testing.T) {
	task, err := NewAnalyticsRefreshTask(12, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, TypeAnalyticsRefresh, task.Type())

	p, err := ParseAnalyticsRefresh(task)
	require.NoError(t, err)
	assert.Equal(t, AnalyticsRefreshPayload{UserID: 12, CorrelationID: "corr-1"}, p)
}

func TestParseAnalyticsRefreshRejectsBadPayload(t *testing.T) {
	_, err := ParseAnalyticsRefresh(asynq.NewTask(TypeAnalyticsRefresh, []byte("{")))
	assert.Error(t, err)

	_, err = ParseAnalyticsRefresh(asynq.NewTask(TypeAnalyticsRefresh, []byte(`{"user_id":0}`)))
	assert.Error(t, err)
}
