package middleware

import (
	"Inkwell/internal/pkg/logger"
	"context"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TraceHeader   = "X-Trace-ID"
	maxTraceIDLen = 64
)

// 路由参数里会带到日志上的资源 ID
var resourceParams = []string{"post_id", "draft_id", "tag_id"}

// TraceMiddleware 生成或沿用链路 ID，并把路由上的帖子、草稿、标签 ID 挂到请求 ctx
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		ctx := context.WithValue(c.Request.Context(), logger.TraceIDKey, traceID)

		var attrs []log.Attr
		for _, name := range resourceParams {
			if v := c.Param(name); v != "" {
				attrs = append(attrs, log.String(name, v))
			}
		}
		c.Request = c.Request.WithContext(logger.WithResources(ctx, attrs...))

		c.Header(TraceHeader, traceID)
		c.Next()
	}
}

// validTraceID 只接受字母、数字、- 和 _
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
