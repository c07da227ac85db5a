package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/editor"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/testutil"
	"Inkwell/internal/repository"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	err   error
	calls int
}

func (u *stubUploader) UploadFile(_ context.Context, objectName string, r io.Reader, _ int64, _ string) (string, error) {
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + objectName, nil
}

type draftEnv struct {
	*testEnv
	drafts DraftService
	guard  *localGuard
	mr     *miniredis.Miniredis
}

func newDraftEnv(t *testing.T, up editor.Uploader) *draftEnv {
	t.Helper()
	env := newTestEnv(t)
	mr, rdb := testutil.NewRedis(t)
	guard := &localGuard{}
	drafts := NewDraftService(
		repository.NewDraftRepository(rdb),
		env.posts,
		env.tags,
		up,
		guard,
		DraftOptions{TTL: time.Hour, HistorySize: 20},
	)
	return &draftEnv{testEnv: env, drafts: drafts, guard: guard, mr: mr}
}

func (e *draftEnv) exec(t *testing.T, draftID string, cmd dto.EditorCommandDTO) *dto.DraftDTO {
	t.Helper()
	out, err := e.drafts.Exec(context.Background(), author, draftID, &cmd)
	require.NoError(t, err)
	return out
}

func TestOpenNewDraft(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)
	assert.True(t, d.IsNew)
	assert.Empty(t, d.PostID)
	assert.Equal(t, model.PostStatusDraft, d.Status)
	assert.Empty(t, d.Tags)

	got, err := env.drafts.Get(ctx, author, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = env.drafts.Get(ctx, other, d.ID)
	assert.ErrorIs(t, err, UnauthorizedError)

	_, err = env.drafts.Get(ctx, author, "missing")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestSubmitNewDraft(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()
	tagIDs := env.createTags(t, "go", "web")

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	d, err = env.drafts.Patch(ctx, author, d.ID, &dto.DraftPatchDTO{Title: strPtr("My First Post")})
	require.NoError(t, err)
	assert.Equal(t, "my-first-post", d.Slug)

	env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdInsertText, Text: "Hello"})
	_, err = env.drafts.AddTag(ctx, author, d.ID, tagIDs[1])
	require.NoError(t, err)
	_, err = env.drafts.AddTag(ctx, author, d.ID, tagIDs[0])
	require.NoError(t, err)

	post, err := env.drafts.Submit(ctx, author, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "my-first-post", post.Slug)
	assert.Equal(t, "<p>Hello</p>", post.Content)
	assert.Equal(t, model.PostStatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)

	listed, err := env.posts.ListPostTags(ctx, author, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tagIDs[1], tagIDs[0]}, listed)

	_, err = env.drafts.Get(ctx, author, d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestSubmitRejectsInvalidDraft(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	_, err = env.drafts.Submit(ctx, author, d.ID)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)

	// 校验失败时会话仍然可用
	_, err = env.drafts.Get(ctx, author, d.ID)
	assert.NoError(t, err)
}

func TestSubmitWhileInFlight(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)
	_, err = env.drafts.Patch(ctx, author, d.ID, &dto.DraftPatchDTO{Title: strPtr("Once")})
	require.NoError(t, err)

	release, ok, err := env.guard.Acquire(ctx, d.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = env.drafts.Submit(ctx, author, d.ID)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	release()
	post, err := env.drafts.Submit(ctx, author, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "once", post.Slug)

	list, err := env.posts.ListPosts(ctx, author, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

// pausingDraftRepo 被 arm 之后，下一次读取会话时停住，直到 proceed 关闭
type pausingDraftRepo struct {
	repository.DraftRepo
	armed   atomic.Bool
	reached chan struct{}
	proceed chan struct{}
}

func (r *pausingDraftRepo) GetDraft(ctx context.Context, id string) ([]byte, error) {
	if r.armed.CompareAndSwap(true, false) {
		close(r.reached)
		<-r.proceed
	}
	return r.DraftRepo.GetDraft(ctx, id)
}

func TestConcurrentSubmitWaitsForSessionRead(t *testing.T) {
	env := newTestEnv(t)
	_, rdb := testutil.NewRedis(t)
	repo := &pausingDraftRepo{
		DraftRepo: repository.NewDraftRepository(rdb),
		reached:   make(chan struct{}),
		proceed:   make(chan struct{}),
	}
	drafts := NewDraftService(repo, env.posts, env.tags, nil, &localGuard{}, DraftOptions{TTL: time.Hour})
	ctx := context.Background()

	d, err := drafts.Open(ctx, author, "")
	require.NoError(t, err)
	_, err = drafts.Patch(ctx, author, d.ID, &dto.DraftPatchDTO{Title: strPtr("Only Once")})
	require.NoError(t, err)

	type result struct {
		post *dto.PostDTO
		err  error
	}
	done := make(chan result, 1)
	repo.armed.Store(true)
	go func() {
		post, err := drafts.Submit(ctx, author, d.ID)
		done <- result{post, err}
	}()
	<-repo.reached

	// 第一次提交正停在读取会话处，第二次提交必须被拦下
	_, err = drafts.Submit(ctx, author, d.ID)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(repo.proceed)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, "only-once", first.post.Slug)

	_, err = drafts.Submit(ctx, author, d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	list, err := env.posts.ListPosts(ctx, author, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

func TestOpenExistingPost(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()
	tagIDs := env.createTags(t, "zeta", "alpha", "mid")
	post := env.createPost(t, author, "Existing Post")
	_, err := env.posts.ReplacePostTags(ctx, author, post.ID, []string{tagIDs[0], tagIDs[1]})
	require.NoError(t, err)

	d, err := env.drafts.Open(ctx, author, post.ID)
	require.NoError(t, err)
	assert.False(t, d.IsNew)
	assert.Equal(t, post.ID, d.PostID)
	assert.Equal(t, "existing-post", d.Slug)
	assert.Equal(t, "<p>body</p>", d.Content)
	assert.Equal(t, []dto.TagDTO{{ID: tagIDs[0], Name: "zeta"}, {ID: tagIDs[1], Name: "alpha"}}, d.Tags)

	matched, err := env.drafts.SearchTags(ctx, author, d.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []dto.TagDTO{{ID: tagIDs[2], Name: "mid"}}, matched)

	_, err = env.drafts.Open(ctx, other, post.ID)
	assert.ErrorIs(t, err, UnauthorizedError)
}

type brokenDirectory struct {
	TagService
}

func (brokenDirectory) ListTags(context.Context) ([]dto.TagDTO, error) {
	return nil, errors.New("directory unavailable")
}

func TestOpenSurvivesDirectoryFailure(t *testing.T) {
	env := newTestEnv(t)
	_, rdb := testutil.NewRedis(t)
	drafts := NewDraftService(repository.NewDraftRepository(rdb), env.posts, brokenDirectory{env.tags}, nil, &localGuard{}, DraftOptions{})
	ctx := context.Background()
	tagIDs := env.createTags(t, "go")
	post := env.createPost(t, author, "Existing Post")
	_, err := env.posts.ReplacePostTags(ctx, author, post.ID, tagIDs)
	require.NoError(t, err)

	d, err := drafts.Open(ctx, author, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []dto.TagDTO{{ID: tagIDs[0], Name: "go"}}, d.Tags)

	_, err = drafts.SearchTags(ctx, author, d.ID, "")
	assert.Error(t, err)
}

func TestSubmitExistingPost(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()
	tagIDs := env.createTags(t, "go", "db")
	post := env.createPost(t, author, "Before")
	_, err := env.posts.ReplacePostTags(ctx, author, post.ID, tagIDs)
	require.NoError(t, err)

	d, err := env.drafts.Open(ctx, author, post.ID)
	require.NoError(t, err)
	_, err = env.drafts.Patch(ctx, author, d.ID, &dto.DraftPatchDTO{Title: strPtr("After")})
	require.NoError(t, err)
	_, err = env.drafts.RemoveTag(ctx, author, d.ID, tagIDs[0])
	require.NoError(t, err)

	updated, err := env.drafts.Submit(ctx, author, d.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, updated.ID)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, "before", updated.Slug)

	listed, err := env.posts.ListPostTags(ctx, author, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tagIDs[1]}, listed)
}

func TestDraftTags(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()
	tagIDs := env.createTags(t, "golang", "python")

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	_, err = env.drafts.AddTag(ctx, author, d.ID, "missing")
	assert.ErrorIs(t, err, ErrTagNotFound)

	d, err = env.drafts.AddTag(ctx, author, d.ID, tagIDs[0])
	require.NoError(t, err)
	d, err = env.drafts.AddTag(ctx, author, d.ID, tagIDs[0])
	require.NoError(t, err)
	assert.Equal(t, []dto.TagDTO{{ID: tagIDs[0], Name: "golang"}}, d.Tags)

	matched, err := env.drafts.SearchTags(ctx, author, d.ID, "GO")
	require.NoError(t, err)
	assert.Empty(t, matched)

	matched, err = env.drafts.SearchTags(ctx, author, d.ID, "py")
	require.NoError(t, err)
	assert.Equal(t, []dto.TagDTO{{ID: tagIDs[1], Name: "python"}}, matched)

	d, err = env.drafts.RemoveTag(ctx, author, d.ID, tagIDs[0])
	require.NoError(t, err)
	assert.Empty(t, d.Tags)
}

func TestExecCommands(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdInsertText, Text: "Hello"})
	env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdSelect, Block: 0, Start: 0, End: 5})
	out := env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdBold})
	assert.Equal(t, "<p><strong>Hello</strong></p>", out.Content)
	assert.True(t, out.Editor.Active[editor.ActiveBold])
	assert.True(t, out.Editor.CanUndo)

	out = env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdBold})
	assert.Equal(t, "<p>Hello</p>", out.Content)

	out = env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdHeading, Level: 2})
	assert.Equal(t, "<h2>Hello</h2>", out.Content)

	out = env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdUndo})
	assert.Equal(t, "<p>Hello</p>", out.Content)
	assert.True(t, out.Editor.CanRedo)

	_, err = env.drafts.Exec(ctx, author, d.ID, &dto.EditorCommandDTO{Command: dto.CmdLink, Href: "javascript:alert(1)"})
	assert.ErrorIs(t, err, editor.ErrInvalidLink)

	_, err = env.drafts.Exec(ctx, author, d.ID, &dto.EditorCommandDTO{Command: "explode"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestInsertImage(t *testing.T) {
	up := &stubUploader{}
	env := newDraftEnv(t, up)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	out, err := env.drafts.InsertImage(ctx, author, d.ID, "cat.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.URL, "https://cdn.example.com/blog-images/"))
	assert.Equal(t, `<img src="`+out.URL+`" alt="cat">`, out.Draft.Content)

	got, err := env.drafts.Get(ctx, author, d.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Draft.Content, got.Content)
}

func TestInsertImageFailureKeepsContent(t *testing.T) {
	storageErr := errors.New("connection refused")
	env := newDraftEnv(t, &stubUploader{err: storageErr})
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)
	before := env.exec(t, d.ID, dto.EditorCommandDTO{Command: dto.CmdInsertText, Text: "Hello, World!"})

	_, err = env.drafts.InsertImage(ctx, author, d.ID, "a.jpg", bytes.NewReader(nil), 0, "image/jpeg")
	assert.ErrorIs(t, err, editor.ErrUpload)
	assert.ErrorIs(t, err, storageErr)

	got, err := env.drafts.Get(ctx, author, d.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Content, got.Content)
}

func TestInsertImageWithoutStorage(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	_, err = env.drafts.InsertImage(ctx, author, d.ID, "a.png", bytes.NewReader(nil), 0, "image/png")
	assert.ErrorIs(t, err, editor.ErrUpload)
}

func TestTogglePublish(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	fresh, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)
	_, err = env.drafts.TogglePublish(ctx, author, fresh.ID, true)
	assert.ErrorIs(t, err, ErrDraftNotEdit)

	post := env.createPost(t, author, "Publish Me")
	d, err := env.drafts.Open(ctx, author, post.ID)
	require.NoError(t, err)

	d, err = env.drafts.TogglePublish(ctx, author, d.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, d.Status)
	assert.NotNil(t, d.PublishedAt)

	stored, err := env.posts.GetPost(ctx, author, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, stored.Status)
}

func TestDraftSessionExpires(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	env.mr.FastForward(2 * time.Hour)
	_, err = env.drafts.Get(ctx, author, d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDiscard(t *testing.T) {
	env := newDraftEnv(t, nil)
	ctx := context.Background()

	d, err := env.drafts.Open(ctx, author, "")
	require.NoError(t, err)

	assert.ErrorIs(t, env.drafts.Discard(ctx, other, d.ID), UnauthorizedError)
	require.NoError(t, env.drafts.Discard(ctx, author, d.ID))

	_, err = env.drafts.Get(ctx, author, d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisSubmitGuard(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	prev := redis.Rdb
	redis.Rdb = rdb
	t.Cleanup(func() { redis.Rdb = prev })

	guard := NewSubmitGuard(time.Minute)
	require.IsType(t, &redisGuard{}, guard)
	ctx := context.Background()

	release, ok, err := guard.Acquire(ctx, "d1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = guard.Acquire(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	release, ok, err = guard.Acquire(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func strPtr(s string) *string {
	return &s
}
