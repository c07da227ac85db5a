// Package draft 编辑中帖子的工作副本
//
// 草稿在设置字段时不做校验，只在 Snapshot().Validate() 时统一校验；
// 内容字段由编辑器的 onChange 回写。
package draft

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/editor"
	"Inkwell/internal/pkg/tagpicker"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fields 帖子上可编辑的字段
type Fields struct {
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Excerpt         string  `json:"excerpt"`
	MetaTitle       string  `json:"meta_title"`
	MetaDescription string  `json:"meta_description"`
	MetaKeywords    string  `json:"meta_keywords"`
	CategoryID      *string `json:"category_id"`
}

// Patch 局部修改，nil 字段保持不变；ClearCategory 优先于 CategoryID
type Patch struct {
	Title           *string `json:"title"`
	Content         *string `json:"content"`
	Excerpt         *string `json:"excerpt"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
	MetaKeywords    *string `json:"meta_keywords"`
	CategoryID      *string `json:"category_id"`
	ClearCategory   bool    `json:"clear_category"`
}

// Empty 是否没有任何修改
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil && p.MetaTitle == nil &&
		p.MetaDescription == nil && p.MetaKeywords == nil && p.CategoryID == nil && !p.ClearCategory
}

type Draft struct {
	id          string
	ownerID     string
	postID      string
	authorID    string
	slug        string
	fields      Fields
	status      model.PostStatus
	publishedAt *time.Time
	tags        *tagpicker.Selection
	editor      *editor.Editor
	updatedAt   time.Time
}

// New 新建帖子的空草稿，打开者即作者
func New(authorID string, opts ...editor.Option) *Draft {
	d := &Draft{
		id:       uuid.NewString(),
		ownerID:  authorID,
		authorID: authorID,
		status:   model.PostStatusDraft,
		tags:     tagpicker.NewSelection(),
	}
	// 空内容不会解析失败
	ed, _ := editor.New("", opts...)
	d.attach(ed)
	d.touch()
	return d
}

// FromPost 以已有帖子初始化草稿，ownerID 是打开会话的人，可能是管理员而不是作者
func FromPost(ownerID string, p *model.Post, tagIDs []string, opts ...editor.Option) (*Draft, error) {
	ed, err := editor.New(p.Content, opts...)
	if err != nil {
		return nil, err
	}
	d := &Draft{
		id:          uuid.NewString(),
		ownerID:     ownerID,
		postID:      p.ID,
		authorID:    p.AuthorID,
		slug:        p.Slug,
		status:      p.Status,
		publishedAt: p.PublishedAt,
		tags:        tagpicker.NewSelection(tagIDs...),
		fields: Fields{
			Title:           p.Title,
			Content:         p.Content,
			Excerpt:         p.Excerpt,
			MetaTitle:       p.MetaTitle,
			MetaDescription: p.MetaDescription,
			MetaKeywords:    p.MetaKeywords,
			CategoryID:      p.CategoryID,
		},
	}
	d.attach(ed)
	d.touch()
	return d, nil
}

func (d *Draft) attach(ed *editor.Editor) {
	d.editor = ed
	ed.OnChange(func(html string) {
		d.fields.Content = html
		d.touch()
	})
}

func (d *Draft) touch() {
	d.updatedAt = time.Now()
}

func (d *Draft) ID() string { return d.id }
func (d *Draft) OwnerID() string { return d.ownerID }
func (d *Draft) PostID() string { return d.postID }
func (d *Draft) AuthorID() string { return d.authorID }
func (d *Draft) Slug() string { return d.slug }
func (d *Draft) Status() model.PostStatus { return d.status }
func (d *Draft) PublishedAt() *time.Time { return d.publishedAt }
func (d *Draft) UpdatedAt() time.Time { return d.updatedAt }
func (d *Draft) Tags() *tagpicker.Selection { return d.tags }
func (d *Draft) Editor() *editor.Editor { return d.editor }
func (d *Draft) IsNew() bool { return d.postID == "" }

// Fields 字段副本
func (d *Draft) Fields() Fields {
	f := d.fields
	if f.CategoryID != nil {
		c := *f.CategoryID
		f.CategoryID = &c
	}
	return f
}

func (d *Draft) SetTitle(v string) {
	d.fields.Title = v
	d.touch()
}

// SetContent 替换编辑器内容，字段随编辑器回写
func (d *Draft) SetContent(v string) error {
	if err := d.editor.SetContent(v); err != nil {
		return err
	}
	d.fields.Content = d.editor.HTML()
	d.touch()
	return nil
}

func (d *Draft) SetExcerpt(v string) {
	d.fields.Excerpt = v
	d.touch()
}

func (d *Draft) SetMetaTitle(v string) {
	d.fields.MetaTitle = v
	d.touch()
}

func (d *Draft) SetMetaDescription(v string) {
	d.fields.MetaDescription = v
	d.touch()
}

func (d *Draft) SetMetaKeywords(v string) {
	d.fields.MetaKeywords = v
	d.touch()
}

// SetCategory 空字符串等同于清空
func (d *Draft) SetCategory(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		d.ClearCategory()
		return
	}
	d.fields.CategoryID = &id
	d.touch()
}

func (d *Draft) ClearCategory() {
	d.fields.CategoryID = nil
	d.touch()
}

// Apply 应用局部修改
func (d *Draft) Apply(p Patch) error {
	if p.Title != nil {
		d.SetTitle(*p.Title)
	}
	if p.Content != nil {
		if err := d.SetContent(*p.Content); err != nil {
			return err
		}
	}
	if p.Excerpt != nil {
		d.SetExcerpt(*p.Excerpt)
	}
	if p.MetaTitle != nil {
		d.SetMetaTitle(*p.MetaTitle)
	}
	if p.MetaDescription != nil {
		d.SetMetaDescription(*p.MetaDescription)
	}
	if p.MetaKeywords != nil {
		d.SetMetaKeywords(*p.MetaKeywords)
	}
	switch {
	case p.ClearCategory:
		d.ClearCategory()
	case p.CategoryID != nil:
		d.SetCategory(*p.CategoryID)
	}
	return nil
}

// SetPublishState 记录网关返回的发布状态
func (d *Draft) SetPublishState(status model.PostStatus, publishedAt *time.Time) {
	d.status = status
	d.publishedAt = publishedAt
	d.touch()
}

// MarkSaved 提交成功后绑定到已落库的帖子
func (d *Draft) MarkSaved(postID, slug string) {
	d.postID = postID
	d.slug = slug
	d.touch()
}
