package dto

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/editor"
	"time"
)

// DraftDTO 编辑会话的完整视图，前端据此渲染表单、标签与工具栏
type DraftDTO struct {
	ID              string           `json:"id"`
	PostID          string           `json:"post_id,omitempty"`
	IsNew           bool             `json:"is_new"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	Excerpt         string           `json:"excerpt"`
	MetaTitle       string           `json:"meta_title"`
	MetaDescription string           `json:"meta_description"`
	MetaKeywords    string           `json:"meta_keywords"`
	CategoryID      *string          `json:"category_id"`
	Status          model.PostStatus `json:"status"`
	PublishedAt     *time.Time       `json:"published_at"`
	Tags            []TagDTO         `json:"tags"`
	Editor          EditorStateDTO   `json:"editor"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type EditorStateDTO struct {
	Selection editor.Selection `json:"selection"`
	Active    map[string]bool  `json:"active"`
	CanUndo   bool             `json:"can_undo"`
	CanRedo   bool             `json:"can_redo"`
}

// DraftPatchDTO 草稿字段的局部修改
type DraftPatchDTO struct {
	Title           *string `json:"title" validate:"omitempty,max=255"`
	Content         *string `json:"content" validate:"omitempty,max=200000"`
	Excerpt         *string `json:"excerpt" validate:"omitempty,max=1000"`
	MetaTitle       *string `json:"meta_title" validate:"omitempty,max=255"`
	MetaDescription *string `json:"meta_description" validate:"omitempty,max=1000"`
	MetaKeywords    *string `json:"meta_keywords" validate:"omitempty,max=512"`
	CategoryID      *string `json:"category_id" validate:"omitempty,max=36"`
	ClearCategory   bool    `json:"clear_category"`
}

// 编辑器命令
const (
	CmdSelect         = "select"
	CmdInsertText     = "insert_text"
	CmdDelete         = "delete"
	CmdSetContent     = "set_content"
	CmdBold           = "bold"
	CmdItalic         = "italic"
	CmdBulletList     = "bullet_list"
	CmdOrderedList    = "ordered_list"
	CmdBlockquote     = "blockquote"
	CmdHeading        = "heading"
	CmdLink           = "link"
	CmdUnlink         = "unlink"
	CmdInsertImageURL = "insert_image_url"
	CmdUndo           = "undo"
	CmdRedo           = "redo"
)

// EditorCommandDTO 一次工具栏操作；select 使用 Block/Start/End，link 使用 Href
type EditorCommandDTO struct {
	Command string `json:"command" binding:"required"`
	Block   int    `json:"block" binding:"min=0"`
	Start   int    `json:"start" binding:"min=0"`
	End     int    `json:"end" binding:"min=0"`
	Text    string `json:"text" validate:"max=200000"`
	Href    string `json:"href" validate:"max=2048"`
	Level   int    `json:"level" binding:"min=0,max=6"`
	Src     string `json:"src" validate:"max=2048"`
	Alt     string `json:"alt" validate:"max=255"`
}

// ImageUploadDTO 上传后返回的图片地址
type ImageUploadDTO struct {
	URL   string    `json:"url"`
	Draft *DraftDTO `json:"draft"`
}
