package model

// PostTag 帖子与标签的关联，Position 记录编辑时的选择顺序
type PostTag struct {
	PostID   string `gorm:"type:varchar(36);primaryKey" json:"post_id"`
	TagID    string `gorm:"type:varchar(36);primaryKey;index:idx_tag_id" json:"tag_id"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

func (PostTag) TableName() string {
	return "post_tags"
}
