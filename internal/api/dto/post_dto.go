package dto

import (
	"Inkwell/internal/model"
	"time"
)

type PostDTO struct {
	ID              string           `json:"id"`
	AuthorID        string           `json:"author_id"`
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	Content         string           `json:"content"`
	Excerpt         string           `json:"excerpt"`
	MetaTitle       string           `json:"meta_title"`
	MetaDescription string           `json:"meta_description"`
	MetaKeywords    string           `json:"meta_keywords"`
	Status          model.PostStatus `json:"status"`
	PublishedAt     *time.Time       `json:"published_at"`
	CategoryID      *string          `json:"category_id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// PostFieldsDTO 新建帖子时可写的字段
type PostFieldsDTO struct {
	Title           string  `json:"title" validate:"max=255"`
	Content         string  `json:"content" validate:"max=200000"`
	Excerpt         string  `json:"excerpt" validate:"max=1000"`
	MetaTitle       string  `json:"meta_title" validate:"max=255"`
	MetaDescription string  `json:"meta_description" validate:"max=1000"`
	MetaKeywords    string  `json:"meta_keywords" validate:"max=512"`
	CategoryID      *string `json:"category_id" validate:"omitempty,max=36"`
}

// PostPatchDTO 局部更新，nil 字段不修改；slug 不可修改
type PostPatchDTO struct {
	Title           *string `json:"title" validate:"omitempty,max=255"`
	Content         *string `json:"content" validate:"omitempty,max=200000"`
	Excerpt         *string `json:"excerpt" validate:"omitempty,max=1000"`
	MetaTitle       *string `json:"meta_title" validate:"omitempty,max=255"`
	MetaDescription *string `json:"meta_description" validate:"omitempty,max=1000"`
	MetaKeywords    *string `json:"meta_keywords" validate:"omitempty,max=512"`
	CategoryID      *string `json:"category_id" validate:"omitempty,max=36"`
	ClearCategory   bool    `json:"clear_category"`
}

type PostListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft published"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type PostListDTO struct {
	List     []*PostDTO `json:"list"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type DashboardSummaryDTO struct {
	Total     int64      `json:"total"`
	Published int64      `json:"published"`
	Drafts    int64      `json:"drafts"`
	Recent    []*PostDTO `json:"recent"`
}

type PublishStateDTO struct {
	Published *bool `json:"published" binding:"required"`
}

type PostTagsDTO struct {
	TagIDs []string `json:"tag_ids" binding:"max=50,dive,required,max=36"`
}
