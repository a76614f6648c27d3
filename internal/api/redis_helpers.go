package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginRateLimitKeyPrefix = "rate:login:"
	loginRateLimitWindow    = time.Hour
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// loginAttemptKey 按 IP、邮箱与 UTC 小时分桶。
func loginAttemptKey(clientIP, email string, at time.Time) string {
	return loginRateLimitKeyPrefix + clientIP + ":" + email + ":" + at.UTC().Format("2006010215")
}

// countLoginAttempt 记录一次登录尝试并返回本窗口内的次数。
// 首次命中时设置过期；过期设置失败时仍返回已计入的次数。
func countLoginAttempt(ctx context.Context, client redisRateCounter, key string) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := client.Expire(ctx, key, loginRateLimitWindow).Err(); err != nil {
			return count, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return count, nil
}
