package logger

import (
	"Inkwell/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxArgsLen = 256

// RedisLoggerHook 记录 redis 错误与慢命令；会话内容和锁令牌不落日志
type RedisLoggerHook struct {
	slow time.Duration
}

// NewRedisLogger slow 为 0 时使用 100ms
func NewRedisLogger(slow time.Duration) *RedisLoggerHook {
	if slow <= 0 {
		slow = 100 * time.Millisecond
	}
	return &RedisLoggerHook{slow: slow}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		if err != nil && ignorable(cmd.Name(), err) {
			return err
		}
		if err == nil && elapsed < s.slow {
			return nil
		}

		fields := []any{
			log.String("command", cmd.Name()),
			log.String("args", describeArgs(cmd.Name(), cmd.Args())),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		} else {
			log.WarnContext(ctx, "Redis Slow", fields...)
		}
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if err != nil {
			log.ErrorContext(ctx, "Redis Pipeline Error",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err))
		}
		return err
	}
}

// ignorable 未命中、旧版服务端不支持 client setinfo 都不算错误
func ignorable(name string, err error) bool {
	if errors.Is(err, redis.Nil) || err.Error() == "ERR no such key" {
		return true
	}
	return name == "client" && strings.Contains(err.Error(), "setinfo")
}

// describeArgs 会话 JSON 只记长度，锁令牌与 eval 脚本隐藏
func describeArgs(name string, args []any) string {
	if name == "auth" || name == "hello" {
		return "[PROTECTED]"
	}

	out := make([]any, len(args))
	copy(out, args)
	switch name {
	case "set":
		if len(out) > 2 {
			key := fmt.Sprint(out[1])
			switch {
			case strings.HasPrefix(key, consts.DraftSessionKey):
				out[2] = fmt.Sprintf("<%d bytes>", payloadLen(out[2]))
			case strings.HasPrefix(key, consts.DraftSubmitLock):
				out[2] = "[token]"
			}
		}
	case "eval", "evalsha":
		if len(out) > 1 {
			out[1] = "<script>"
		}
		// eval script numkeys key... arg...，参数部分是锁令牌
		for i := 4; i < len(out); i++ {
			out[i] = "[token]"
		}
	}

	s := fmt.Sprint(out)
	if len(s) > maxArgsLen {
		s = s[:maxArgsLen] + "...[truncated]"
	}
	return s
}

func payloadLen(v any) int {
	switch p := v.(type) {
	case []byte:
		return len(p)
	case string:
		return len(p)
	}
	return len(fmt.Sprint(v))
}
