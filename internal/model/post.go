package model

import (
	"time"
)

// PostStatus 帖子状态，只有草稿与已发布两种
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

type Post struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	AuthorID        string     `gorm:"type:varchar(64);not null;index:idx_author_id" json:"author_id"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug            string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_post_slug" json:"slug"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	Excerpt         string     `gorm:"type:text" json:"excerpt"`
	MetaTitle       string     `gorm:"type:varchar(255)" json:"meta_title"`
	MetaDescription string     `gorm:"type:text" json:"meta_description"`
	MetaKeywords    string     `gorm:"type:varchar(512)" json:"meta_keywords"`
	Status          PostStatus `gorm:"type:varchar(16);not null;default:draft;index:idx_status_created" json:"status"`
	PublishedAt     *time.Time `json:"published_at"`
	CategoryID      *string    `gorm:"type:varchar(36);index:idx_category_id" json:"category_id"`
	CreatedAt       time.Time  `gorm:"index:idx_status_created" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}
