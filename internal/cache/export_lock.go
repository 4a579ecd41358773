package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ExportLock interface {
	// Acquire 取得鎖，成功時回傳釋放用的 token；已被佔用時回傳 "", false
	Acquire(ctx context.Context, key string) (string, bool, error)
	// Release 只釋放自己持有的鎖 (使用Lua腳本確保原子性)
	Release(ctx context.Context, key string, token string) error
}

type RedisExportLockImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisExportLock(client *redis.Client, ttl time.Duration) ExportLock {
	return &RedisExportLockImpl{
		client: client,
		ttl:    ttl,
	}
}

func (l *RedisExportLockImpl) getLockKey(key string) string {
	return fmt.Sprintf("export:%s:lock", key)
}

func (l *RedisExportLockImpl) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.getLockKey(key), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

var releaseScript = redis.NewScript(`
	-- 只有 token 相同才刪除，避免誤刪其他請求的鎖
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

func (l *RedisExportLockImpl) Release(ctx context.Context, key string, token string) error {
	return releaseScript.Run(ctx, l.client, []string{l.getLockKey(key)}, token).Err()
}
