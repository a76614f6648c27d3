package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCounter struct {
	fakeCounter
	expired   map[string]time.Duration
	incrErr   error
	expireErr error
}

func newRecordingCounter() *recordingCounter {
	return &recordingCounter{
		fakeCounter: fakeCounter{counts: map[string]int64{}},
		expired:     map[string]time.Duration{},
	}
}

func (r *recordingCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	if r.incrErr != nil {
		return redis.NewIntResult(0, r.incrErr)
	}
	return r.fakeCounter.Incr(ctx, key)
}

func (r *recordingCounter) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	r.expired[key] = ttl
	return redis.NewBoolResult(r.expireErr == nil, r.expireErr)
}

func TestLoginAttemptKeyBucketsByUTCHour(t *testing.T) {
	at := time.Date(2026, 3, 4, 23, 59, 0, 0, time.FixedZone("UTC+8", 8*3600))
	assert.Equal(t, "rate:login:10.0.0.1:ada@example.com:2026030415", loginAttemptKey("10.0.0.1", "ada@example.com", at))
}

func TestCountLoginAttemptSetsWindowOnFirstHit(t *testing.T) {
	rc := newRecordingCounter()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := countLoginAttempt(ctx, rc, "k")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, map[string]time.Duration{"k": loginRateLimitWindow}, rc.expired)
}

func TestCountLoginAttemptIncrFailure(t *testing.T) {
	rc := newRecordingCounter()
	rc.incrErr = errors.New("down")

	count, err := countLoginAttempt(context.Background(), rc, "k")
	assert.ErrorContains(t, err, "incr k")
	assert.Zero(t, count)
	assert.Empty(t, rc.expired)
}

func TestCountLoginAttemptExpireFailureKeepsCount(t *testing.T) {
	rc := newRecordingCounter()
	rc.expireErr = errors.New("readonly replica")

	count, err := countLoginAttempt(context.Background(), rc, "k")
	assert.ErrorContains(t, err, "expire k")
	assert.EqualValues(t, 1, count)
}
