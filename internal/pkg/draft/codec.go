package draft

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/editor"
	"Inkwell/internal/pkg/tagpicker"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// record 会话存储格式
type record struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	PostID      string            `json:"post_id,omitempty"`
	AuthorID    string            `json:"author_id"`
	Slug        string            `json:"slug,omitempty"`
	Fields      Fields            `json:"fields"`
	Status      model.PostStatus  `json:"status"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	TagIDs      []string          `json:"tag_ids"`
	TagNames    map[string]string `json:"tag_names,omitempty"`
	Editor      editor.State      `json:"editor"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Marshal 序列化整个草稿，包括编辑器的撤销历史
func (d *Draft) Marshal() ([]byte, error) {
	return json.Marshal(record{
		ID:          d.id,
		OwnerID:     d.ownerID,
		PostID:      d.postID,
		AuthorID:    d.authorID,
		Slug:        d.slug,
		Fields:      d.fields,
		Status:      d.status,
		PublishedAt: d.publishedAt,
		TagIDs:      d.tags.IDs(),
		TagNames:    d.tags.Names(),
		Editor:      d.editor.State(),
		UpdatedAt:   d.updatedAt,
	})
}

// Unmarshal 从会话存储恢复草稿
func Unmarshal(data []byte, opts ...editor.Option) (*Draft, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("decode draft: missing id")
	}

	tags := tagpicker.NewSelection(r.TagIDs...)
	resolved := make([]tagpicker.Tag, 0, len(r.TagNames))
	for id, name := range r.TagNames {
		resolved = append(resolved, tagpicker.Tag{ID: id, Name: name})
	}
	tags.MergeResolved(resolved)

	d := &Draft{
		id:          r.ID,
		ownerID:     r.OwnerID,
		postID:      r.PostID,
		authorID:    r.AuthorID,
		slug:        r.Slug,
		fields:      r.Fields,
		status:      r.Status,
		publishedAt: r.PublishedAt,
		tags:        tags,
		updatedAt:   r.UpdatedAt,
	}
	if d.status == "" {
		d.status = model.PostStatusDraft
	}
	d.attach(editor.Restore(r.Editor, opts...))
	return d, nil
}
