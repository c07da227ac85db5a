package service

import (
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/redis"
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SubmitGuard 防止同一草稿被并发重复提交
type SubmitGuard interface {
	// Acquire 获取成功时返回释放函数；已被占用时 ok 为 false
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// NewSubmitGuard 配置了 Redis 时使用分布式锁，否则退化为进程内锁
func NewSubmitGuard(ttl time.Duration) SubmitGuard {
	if redis.Enabled() {
		return &redisGuard{ttl: ttl}
	}
	return &localGuard{}
}

type redisGuard struct {
	ttl time.Duration
}

func (g *redisGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	lockKey := consts.DraftSubmitLock + key
	lockUUID := uuid.NewString()

	ok, err := redis.TryLock(ctx, lockKey, lockUUID, g.ttl, 1)
	if err != nil || !ok {
		return nil, false, err
	}
	return func() {
		if err := redis.UnLock(context.WithoutCancel(ctx), lockKey, lockUUID); err != nil {
			log.WarnContext(ctx, "release submit lock failed", "key", lockKey, "err", err)
		}
	}, true, nil
}

type localGuard struct {
	held sync.Map
}

func (g *localGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	if _, loaded := g.held.LoadOrStore(key, struct{}{}); loaded {
		return nil, false, nil
	}
	return func() { g.held.Delete(key) }, true, nil
}
