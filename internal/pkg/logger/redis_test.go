package logger

import (
	"Inkwell/internal/pkg/consts"
	"bytes"
	"context"
	log "log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeArgs(t *testing.T) {
	cases := []struct {
		name string
		args []any
		want string
	}{
		{"auth", []any{"auth", "secret"}, "[PROTECTED]"},
		{"set", []any{"set", consts.DraftSessionKey + "d1", []byte(`{"content":"private"}`), "ex", 7200}, "[set draft:session:d1 <21 bytes> ex 7200]"},
		{"set", []any{"set", consts.DraftSubmitLock + "d1", "uuid-token", "ex", 30, "nx"}, "[set lock:draft:submit:d1 [token] ex 30 nx]"},
		{"eval", []any{"eval", "if redis.call ...", 1, consts.DraftSubmitLock + "d1", "uuid-token"}, "[eval <script> 1 lock:draft:submit:d1 [token]]"},
		{"get", []any{"get", "token:blacklist:abc"}, "[get token:blacklist:abc]"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, describeArgs(c.name, c.args))
	}
}

func TestRedisHookLogsWithoutSessionBody(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Default()
	log.SetDefault(log.New(log.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { log.SetDefault(prev) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	// 阈值极小，每条命令都按慢命令记录
	rdb.AddHook(NewRedisLogger(time.Nanosecond))

	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, consts.DraftSessionKey+"d1", `{"content":"private"}`, time.Minute).Err())

	assert.Contains(t, buf.String(), "Redis Slow")
	assert.Contains(t, buf.String(), "<21 bytes>")
	assert.NotContains(t, buf.String(), "private")

	buf.Reset()
	_, err := rdb.Get(ctx, "missing").Result()
	assert.ErrorIs(t, err, redis.Nil)
	assert.NotContains(t, buf.String(), "Redis Error")
}
