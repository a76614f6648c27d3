package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"brainboost/internal/database"
	"brainboost/internal/database/testutil"
	"brainboost/internal/tasks"
)

func plan(userID uint, days ...database.Day) database.StudyPlan {
	return database.StudyPlan{UserID: userID, Title: "p", Schedule: datatypes.NewJSONType(days)}
}

func TestAggregateEmpty(t *testing.T) {
	st := Aggregate(nil)
	assert.Equal(t, StudyTime{SubjectDistribution: map[string]int{}}, st)

	raw, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalPlannedTime":0,"totalCompletedTime":0,"completionRate":0,"subjectDistribution":{}}`, string(raw))
}

func TestAggregateTotals(t *testing.T) {
	plans := []database.StudyPlan{
		plan(1, database.Day{Day: "Day 1", Tasks: []database.Task{
			{ID: "a", Subject: "Math", Duration: 60, Completed: true},
			{ID: "b", Subject: "Physics", Duration: 30},
		}}),
		plan(1, database.Day{Day: "Day 1", Tasks: []database.Task{
			{ID: "c", Subject: "Math", Duration: 10, Completed: true},
		}}),
	}
	st := Aggregate(plans)
	assert.Equal(t, 100, st.TotalPlannedTime)
	assert.Equal(t, 70, st.TotalCompletedTime)
	assert.InDelta(t, 70.0, st.CompletionRate, 1e-9)
	assert.Equal(t, map[string]int{"Math": 70, "Physics": 30}, st.SubjectDistribution)
}

type cachedEntry struct {
	gen int64
	st  StudyTime
}

type memCache struct {
	items       map[uint]cachedEntry
	gens        map[uint]int64
	getErr      error
	invalidated []uint
	// beforeSet runs just before a write lands, standing in for a concurrent toggle.
	beforeSet func()
}

func newMemCache() *memCache {
	return &memCache{items: map[uint]cachedEntry{}, gens: map[uint]int64{}}
}

func (m *memCache) Generation(_ context.Context, userID uint) (int64, error) {
	return m.gens[userID], nil
}

func (m *memCache) Get(_ context.Context, userID uint, gen int64) (StudyTime, bool, error) {
	if m.getErr != nil {
		return StudyTime{}, false, m.getErr
	}
	e, ok := m.items[userID]
	if !ok || e.gen != gen {
		return StudyTime{}, false, nil
	}
	return e.st, true, nil
}

func (m *memCache) Set(_ context.Context, userID uint, gen int64, st StudyTime) error {
	if m.beforeSet != nil {
		hook := m.beforeSet
		m.beforeSet = nil
		hook()
	}
	m.items[userID] = cachedEntry{gen: gen, st: st}
	return nil
}

func (m *memCache) Invalidate(_ context.Context, userID uint) error {
	m.gens[userID]++
	delete(m.items, userID)
	m.invalidated = append(m.invalidated, userID)
	return nil
}

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	if q.err != nil {
		return nil, q.err
	}
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seedPlan(t *testing.T, db *gorm.DB, userID uint, minutes int) {
	t.Helper()
	p := plan(userID, database.Day{Day: "Day 1", Tasks: []database.Task{{ID: "x", Subject: "Math", Duration: minutes}}})
	require.NoError(t, db.Create(&p).Error)
}

func TestServiceStudyTimeReadThrough(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")
	seedPlan(t, db, user.ID, 45)

	cache := newMemCache()
	svc := NewService(db, cache, nil, discardLogger())

	st, err := svc.StudyTime(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, st.TotalPlannedTime)
	assert.Equal(t, st, cache.items[user.ID].st)

	// A cached value is served without touching the database.
	cache.items[user.ID] = cachedEntry{st: StudyTime{TotalPlannedTime: 999, SubjectDistribution: map[string]int{}}}
	st, err = svc.StudyTime(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 999, st.TotalPlannedTime)
}

func TestServiceStudyTimeDropsResultComputedBeforeToggle(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")
	seedPlan(t, db, user.ID, 45)

	cache := newMemCache()
	svc := NewService(db, cache, nil, discardLogger())
	cache.beforeSet = func() {
		seedPlan(t, db, user.ID, 30)
		svc.PlansChanged(context.Background(), user.ID, "")
	}

	st, err := svc.StudyTime(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, st.TotalPlannedTime)

	st, err = svc.StudyTime(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, st.TotalPlannedTime)
	assert.Equal(t, []uint{user.ID}, cache.invalidated)
}

func TestServiceStudyTimeIgnoresCacheErrors(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")

	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	svc := NewService(db, cache, nil, discardLogger())

	st, err := svc.StudyTime(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{}, st.SubjectDistribution)
}

func TestServiceStudyTimeIsScopedToUser(t *testing.T) {
	db := testutil.NewDB(t)
	ada := testutil.CreateUser(t, db, "Ada", "ada@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")
	seedPlan(t, db, bob.ID, 120)

	st, err := NewService(db, nil, nil, discardLogger()).StudyTime(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.Zero(t, st.TotalPlannedTime)
}

func TestPlansChangedInvalidatesAndEnqueues(t *testing.T) {
	db := testutil.NewDB(t)
	cache := newMemCache()
	cache.items[3] = cachedEntry{st: StudyTime{TotalPlannedTime: 1}}
	queue := &fakeQueue{}
	svc := NewService(db, cache, queue, discardLogger())

	svc.PlansChanged(context.Background(), 3, "corr")

	assert.NotContains(t, cache.items, uint(3))
	assert.EqualValues(t, 1, cache.gens[3])
	require.Len(t, queue.tasks, 1)
	p, err := tasks.ParseAnalyticsRefresh(queue.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, uint(3), p.UserID)
	assert.Equal(t, "corr", p.CorrelationID)
}

func TestPlansChangedToleratesQueueFailure(t *testing.T) {
	svc := NewService(testutil.NewDB(t), nil, &fakeQueue{err: errors.New("redis down")}, discardLogger())
	assert.NotPanics(t, func() { svc.PlansChanged(context.Background(), 1, "") })
}

func TestRefreshOverwritesCache(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "Ada", "ada@example.com")
	seedPlan(t, db, user.ID, 20)

	cache := newMemCache()
	cache.gens[user.ID] = 4
	cache.items[user.ID] = cachedEntry{gen: 3, st: StudyTime{TotalPlannedTime: 999}}
	require.NoError(t, NewService(db, cache, nil, discardLogger()).Refresh(context.Background(), user.ID))
	assert.Equal(t, cachedEntry{gen: 4, st: Aggregate([]database.StudyPlan{
		plan(user.ID, database.Day{Day: "Day 1", Tasks: []database.Task{{ID: "x", Subject: "Math", Duration: 20}}}),
	})}, cache.items[user.ID])
}

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	n, _ := strconv.ParseInt(f.values[key], 10, 64)
	n++
	f.values[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestRedisCache(t *testing.T) {
	rdb := newFakeRedis()
	cache := NewRedisCache(rdb, 0)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, gen)

	_, ok, err := cache.Get(ctx, 5, gen)
	require.NoError(t, err)
	assert.False(t, ok)

	want := StudyTime{TotalPlannedTime: 60, TotalCompletedTime: 30, CompletionRate: 50, SubjectDistribution: map[string]int{"Math": 60}}
	require.NoError(t, cache.Set(ctx, 5, gen, want))
	assert.Equal(t, DefaultCacheTTL, rdb.ttls["analytics:study_time:5"])

	got, ok, err := cache.Get(ctx, 5, gen)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, cache.Invalidate(ctx, 5))
	assert.Equal(t, generationTTL, rdb.ttls["analytics:study_time:5:gen"])
	next, err := cache.Generation(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, next)
	_, ok, err = cache.Get(ctx, 5, next)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheIgnoresOlderGeneration(t *testing.T) {
	rdb := newFakeRedis()
	cache := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Invalidate(ctx, 9))
	// A write computed before the invalidation lands afterwards.
	require.NoError(t, cache.Set(ctx, 9, 0, StudyTime{TotalPlannedTime: 1}))

	gen, err := cache.Generation(ctx, 9)
	require.NoError(t, err)
	_, ok, err := cache.Get(ctx, 9, gen)
	require.NoError(t, err)
	assert.False(t, ok)
}
