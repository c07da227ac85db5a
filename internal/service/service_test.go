package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/pkg/testutil"
	"Inkwell/internal/repository"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	author = security.Actor{UserID: "u1", Roles: []string{consts.RoleAuthor}}
	other  = security.Actor{UserID: "u2", Roles: []string{consts.RoleAuthor}}
	admin  = security.Actor{UserID: "root", Roles: []string{consts.RoleAdmin}}

	anonymous = security.Actor{}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.PostEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev kafka.PostEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type testEnv struct {
	db         *gorm.DB
	posts      PostService
	tags       TagService
	categories CategoryService
	events     *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	events := &recordingPublisher{}
	categoryRepo := repository.NewCategoryRepository(db)
	return &testEnv{
		db:         db,
		posts:      NewPostService(repository.NewPostRepository(db), repository.NewPostTagRepository(db), categoryRepo, events),
		tags:       NewTagService(repository.NewTagRepository(db)),
		categories: NewCategoryService(categoryRepo),
		events:     events,
	}
}

func (e *testEnv) createPost(t *testing.T, actor security.Actor, title string) *dto.PostDTO {
	t.Helper()
	post, err := e.posts.CreatePost(context.Background(), actor, &dto.PostFieldsDTO{Title: title, Content: "<p>body</p>"})
	require.NoError(t, err)
	return post
}

func (e *testEnv) createTags(t *testing.T, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := e.tags.CreateTag(context.Background(), author, &dto.CreateTagDTO{Name: name})
		require.NoError(t, err)
		ids = append(ids, tag.ID)
	}
	return ids
}
