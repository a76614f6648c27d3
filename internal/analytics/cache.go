package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how stale a cached summary may get.
const DefaultCacheTTL = 10 * time.Minute

// generationTTL outlives any cached summary so a counter reset can never revive one.
const generationTTL = 24 * time.Hour

// Cache stores computed summaries per user, tagged with the user's generation.
// Invalidate bumps the generation; entries written under an older generation are never served.
type Cache interface {
	Generation(ctx context.Context, userID uint) (int64, error)
	Get(ctx context.Context, userID uint, generation int64) (StudyTime, bool, error)
	Set(ctx context.Context, userID uint, generation int64, st StudyTime) error
	Invalidate(ctx context.Context, userID uint) error
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisCache 使用 Redis 字符串保存 JSON 序列化后的统计结果，另用计数器记录失效代数。
type RedisCache struct {
	client redisKV
	ttl    time.Duration
}

func NewRedisCache(client redisKV, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

type cachedStudyTime struct {
	Generation int64     `json:"gen"`
	StudyTime  StudyTime `json:"studyTime"`
}

func cacheKey(userID uint) string {
	return fmt.Sprintf("analytics:study_time:%d", userID)
}

func generationKey(userID uint) string {
	return cacheKey(userID) + ":gen"
}

func (c *RedisCache) Generation(ctx context.Context, userID uint) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) Get(ctx context.Context, userID uint, generation int64) (StudyTime, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return StudyTime{}, false, nil
	}
	if err != nil {
		return StudyTime{}, false, err
	}
	var entry cachedStudyTime
	if err := json.Unmarshal(raw, &entry); err != nil {
		return StudyTime{}, false, fmt.Errorf("decode cached study time: %w", err)
	}
	if entry.Generation != generation {
		return StudyTime{}, false, nil
	}
	st := entry.StudyTime
	if st.SubjectDistribution == nil {
		st.SubjectDistribution = map[string]int{}
	}
	return st, true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID uint, generation int64, st StudyTime) error {
	raw, err := json.Marshal(cachedStudyTime{Generation: generation, StudyTime: st})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(userID), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, userID uint) error {
	bumpErr := c.client.Incr(ctx, generationKey(userID)).Err()
	if bumpErr == nil {
		bumpErr = c.client.Expire(ctx, generationKey(userID), generationTTL).Err()
	}
	if bumpErr != nil {
		bumpErr = fmt.Errorf("bump generation: %w", bumpErr)
	}
	return errors.Join(bumpErr, c.client.Del(ctx, cacheKey(userID)).Err())
}
