package repository

import (
	"context"
	"sync"
	"time"
)

// memoryDraftRepo 未配置 Redis 时使用，过期的会话在读取时清理
type memoryDraftRepo struct {
	mu      sync.Mutex
	entries map[string]memoryDraft
}

type memoryDraft struct {
	data     []byte
	expireAt time.Time
}

func NewMemoryDraftRepository() DraftRepo {
	return &memoryDraftRepo{
		entries: make(map[string]memoryDraft),
	}
}

func (s *memoryDraftRepo) SaveDraft(_ context.Context, id string, data []byte, ttl time.Duration) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryDraft{data: buf, expireAt: time.Now().Add(ttl)}
	return nil
}

func (s *memoryDraftRepo) GetDraft(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.expireAt) {
		delete(s.entries, id)
		return nil, nil
	}
	buf := make([]byte, len(e.data))
	copy(buf, e.data)
	return buf, nil
}

func (s *memoryDraftRepo) DeleteDraft(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
