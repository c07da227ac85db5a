package repository

import (
	"Inkwell/internal/pkg/consts"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftRepo 编辑会话存储，会话超过 TTL 未访问即失效
type DraftRepo interface {
	SaveDraft(ctx context.Context, id string, data []byte, ttl time.Duration) error
	GetDraft(ctx context.Context, id string) ([]byte, error)
	DeleteDraft(ctx context.Context, id string) error
}

type draftRepoImpl struct {
	rdb *redis.Client
}

func NewDraftRepository(rdb *redis.Client) DraftRepo {
	return &draftRepoImpl{
		rdb: rdb,
	}
}

func (s *draftRepoImpl) SaveDraft(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, consts.DraftSessionKey+id, data, ttl).Err()
}

// GetDraft 会话不存在时返回 nil, nil
func (s *draftRepoImpl) GetDraft(ctx context.Context, id string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, consts.DraftSessionKey+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *draftRepoImpl) DeleteDraft(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, consts.DraftSessionKey+id).Err()
}
