package api

import "Inkwell/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	PostHandler     *handler.PostHandler
	TagHandler      *handler.TagHandler
	CategoryHandler *handler.CategoryHandler
	DraftHandler    *handler.DraftHandler
}
