package kafka

import "time"

// 帖子事件类型
const (
	PostCreated     = "post.created"
	PostUpdated     = "post.updated"
	PostPublished   = "post.published"
	PostUnpublished = "post.unpublished"
	PostDeleted     = "post.deleted"
	PostTagsChanged = "post.tags_changed"
)

// PostEvent 帖子变更后发出的消息，下游据此刷新静态页面
type PostEvent struct {
	Type     string    `json:"type"`
	PostID   string    `json:"post_id"`
	Slug     string    `json:"slug,omitempty"`
	ActorID  string    `json:"actor_id"`
	TagIDs   []string  `json:"tag_ids,omitempty"`
	Occurred time.Time `json:"occurred_at"`
}
