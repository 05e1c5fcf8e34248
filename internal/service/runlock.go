package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"BetenlaceSync/internal/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLocker 同一 (campaign, day) 的运行串行化
type RunLocker interface {
	// Acquire 成功返回释放函数，已被占用返回 ErrRunInProgress
	Acquire(ctx context.Context, campaignID uint64, day time.Time) (release func(), err error)
}

// NoopLocker 未配置 redis 时使用
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, uint64, time.Time) (func(), error) {
	return func() {}, nil
}

// RunLockKey 锁的 redis key
func RunLockKey(campaignID uint64, day time.Time) string {
	return fmt.Sprintf("betenlace:run:%d:%s", campaignID, day.Format(time.DateOnly))
}

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker SET NX PX 实现
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// ConnectRedis 支持 redis:// URL 与 host:port 两种写法
func ConnectRedis(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("解析redis地址失败: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, campaignID uint64, day time.Time) (func(), error) {
	key := RunLockKey(campaignID, day)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("获取运行锁失败: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrRunInProgress, key)
	}
	return func() {
		// 释放不受调用方 ctx 取消影响
		_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
	}, nil
}
