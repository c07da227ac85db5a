package api_test

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/pkg/testutil"
	"Inkwell/internal/wire"
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t      *testing.T
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	security.Init(config.JWTConfig{Secret: "test-secret", Issuer: "Inkwell"})

	cfg := &config.Config{
		Draft: config.DraftConfig{TTL: 60, SubmitLock: 30, HistorySize: 50},
	}
	app, err := wire.BuildApplication(wire.Infra{DB: testutil.NewDB(t)}, cfg)
	require.NoError(t, err)
	return &server{t: t, router: app.Router}
}

func token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	tok, err := security.GenerateToken(userID, roles, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *server) do(method, path, tok string, body []byte, contentType string) envelope {
	s.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(s.t, http.StatusOK, w.Code)

	var out envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *server) call(method, path, tok string, body any) envelope {
	s.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(s.t, err)
	}
	return s.do(method, path, tok, raw, "application/json")
}

func decode[T any](t *testing.T, e envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(e.Data, &v))
	return v
}

func TestPing(t *testing.T) {
	s := newServer(t)
	res := s.call(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "pong", res.Message)
}

func TestRequiresToken(t *testing.T) {
	s := newServer(t)

	res := s.call(http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, 401, res.Code)

	res = s.call(http.MethodGet, "/api/posts", "not-a-token", nil)
	assert.Equal(t, 401, res.Code)
}

func TestDraftToPostFlow(t *testing.T) {
	s := newServer(t)
	tok := token(t, "u1", "AUTHOR")

	res := s.call(http.MethodPost, "/api/tags", tok, map[string]string{"name": "go"})
	require.Equal(t, 200, res.Code)
	tag := decode[struct {
		ID string `json:"id"`
	}](t, res)

	res = s.call(http.MethodPost, "/api/drafts", tok, nil)
	require.Equal(t, 200, res.Code, res.Message)
	draftID := decode[struct {
		ID string `json:"id"`
	}](t, res).ID

	res = s.call(http.MethodPatch, "/api/drafts/"+draftID, tok, map[string]string{"title": "My First Post"})
	require.Equal(t, 200, res.Code, res.Message)

	res = s.call(http.MethodPost, "/api/drafts/"+draftID+"/editor", tok, map[string]any{"command": "insert_text", "text": "Hello"})
	require.Equal(t, 200, res.Code, res.Message)

	res = s.call(http.MethodPost, "/api/drafts/"+draftID+"/tags/"+tag.ID, tok, nil)
	require.Equal(t, 200, res.Code, res.Message)

	// 其他用户不能使用该会话
	res = s.call(http.MethodGet, "/api/drafts/"+draftID, token(t, "u2", "AUTHOR"), nil)
	assert.Equal(t, 403, res.Code)

	res = s.call(http.MethodPost, "/api/drafts/"+draftID+"/submit", tok, nil)
	require.Equal(t, 200, res.Code, res.Message)
	post := decode[struct {
		ID      string `json:"id"`
		Slug    string `json:"slug"`
		Status  string `json:"status"`
		Content string `json:"content"`
	}](t, res)
	assert.Equal(t, "my-first-post", post.Slug)
	assert.Equal(t, "draft", post.Status)
	assert.Equal(t, "<p>Hello</p>", post.Content)

	res = s.call(http.MethodGet, "/api/posts/"+post.ID+"/tags", tok, nil)
	require.Equal(t, 200, res.Code)
	assert.Equal(t, []string{tag.ID}, decode[struct {
		TagIDs []string `json:"tag_ids"`
	}](t, res).TagIDs)

	res = s.call(http.MethodPut, "/api/posts/"+post.ID+"/publish", tok, map[string]bool{"published": true})
	require.Equal(t, 200, res.Code, res.Message)

	res = s.call(http.MethodGet, "/api/dashboard/summary", tok, nil)
	require.Equal(t, 200, res.Code)
	summary := decode[struct {
		Total     int64 `json:"total"`
		Published int64 `json:"published"`
	}](t, res)
	assert.EqualValues(t, 1, summary.Total)
	assert.EqualValues(t, 1, summary.Published)

	res = s.call(http.MethodGet, "/api/drafts/"+draftID, tok, nil)
	assert.Equal(t, 404, res.Code)
}

func TestPublishRequiresFlag(t *testing.T) {
	s := newServer(t)
	res := s.call(http.MethodPut, "/api/posts/p1/publish", token(t, "u1"), map[string]string{})
	assert.Equal(t, 400, res.Code)
}

func TestDeleteTagRequiresAdmin(t *testing.T) {
	s := newServer(t)
	res := s.call(http.MethodDelete, "/api/tags/t1", token(t, "u1", "AUTHOR"), nil)
	assert.Equal(t, 403, res.Code)

	res = s.call(http.MethodDelete, "/api/tags/t1", token(t, "root", "ADMIN"), nil)
	assert.Equal(t, 404, res.Code)
}

func TestDuplicateTagReturnsExisting(t *testing.T) {
	s := newServer(t)
	tok := token(t, "u1")

	first := s.call(http.MethodPost, "/api/tags", tok, map[string]string{"name": "go"})
	require.Equal(t, 200, first.Code)
	second := s.call(http.MethodPost, "/api/tags", tok, map[string]string{"name": "go"})
	assert.Equal(t, 409, second.Code)
	assert.JSONEq(t, string(first.Data), string(second.Data))
}

func TestUploadImage(t *testing.T) {
	s := newServer(t)
	tok := token(t, "u1")

	res := s.call(http.MethodPost, "/api/drafts", tok, nil)
	require.Equal(t, 200, res.Code)
	draftID := decode[struct {
		ID string `json:"id"`
	}](t, res).ID

	upload := func(name string, content []byte) envelope {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return s.do(http.MethodPost, "/api/drafts/"+draftID+"/editor/image", tok, buf.Bytes(), mw.FormDataContentType())
	}

	res = upload("notes.txt", []byte(strings.Repeat("plain text ", 10)))
	assert.Equal(t, 400, res.Code)

	// 未配置对象存储
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	res = upload("cat.png", png)
	assert.Equal(t, 502, res.Code)

	res = s.call(http.MethodGet, "/api/drafts/"+draftID, tok, nil)
	require.Equal(t, 200, res.Code)
	assert.Equal(t, "", decode[struct {
		Content string `json:"content"`
	}](t, res).Content)
}
