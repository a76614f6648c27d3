package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainboost/internal/tasks"
)

type recordingRefresher struct {
	users []uint
	err   error
}

func (r *recordingRefresher) Refresh(_ context.Context, userID uint) error {
	r.users = append(r.users, userID)
	return r.err
}

func newHandler(r Refresher) *AnalyticsRefreshHandler {
	return NewAnalyticsRefreshHandler(r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAnalyticsRefreshHandler(t *testing.T) {
	r := &recordingRefresher{}
	task, err := tasks.NewAnalyticsRefreshTask(42, "corr")
	require.NoError(t, err)

	require.NoError(t, newHandler(r).ProcessTask(context.Background(), task))
	assert.Equal(t, []uint{42}, r.users)
}

func TestAnalyticsRefreshHandlerSkipsBadPayload(t *testing.T) {
	r := &recordingRefresher{}
	err := newHandler(r).ProcessTask(context.Background(), asynq.NewTask(tasks.TypeAnalyticsRefresh, []byte("oops")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, r.users)
}

func TestAnalyticsRefreshHandlerRetriesStoreErrors(t *testing.T) {
	r := &recordingRefresher{err: errors.New("db down")}
	task, err := tasks.NewAnalyticsRefreshTask(1, "")
	require.NoError(t, err)

	err = newHandler(r).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
