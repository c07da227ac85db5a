package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey 定义 Context 中的 Key
const TraceIDKey = "trace_id"

type resourceKey struct{}

// ContextHandler 从 ctx 中取出 trace_id 以及请求涉及的帖子、草稿 ID
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if traceID := TraceID(ctx); traceID != "" {
		r.AddAttrs(log.String(TraceIDKey, traceID))
	}
	if attrs := Resources(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) log.Handler {
	return &ContextHandler{h.Handler.WithGroup(name)}
}

// TraceID 取出请求链路 ID，没有时返回空串
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// WithResources 给 ctx 追加资源标识，之后该 ctx 上的日志都会带上
func WithResources(ctx context.Context, attrs ...log.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	prev := Resources(ctx)
	merged := make([]log.Attr, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, resourceKey{}, merged)
}

// Resources 取出 ctx 上的资源标识
func Resources(ctx context.Context) []log.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(resourceKey{}).([]log.Attr)
	return attrs
}
