package draft

import (
	"errors"
	"fmt"
	"strings"
)

var ErrValidation = errors.New("参数校验失败")

// ValidationError 字段校验失败，Rule 取值 required / slug / tag 等
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s failed on %s", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Snapshot 提交时使用的只读副本
type Snapshot struct {
	PostID string
	Fields Fields
	TagIDs []string
}

// Snapshot 导出当前字段与已选标签
func (d *Draft) Snapshot() Snapshot {
	return Snapshot{
		PostID: d.postID,
		Fields: d.Fields(),
		TagIDs: d.tags.IDs(),
	}
}

// Slug 由标题派生
func (s Snapshot) Slug() string {
	return Slugify(s.Fields.Title)
}

// Validate 标题去空白后不能为空；新建时派生出的 slug 也不能为空
func (s Snapshot) Validate() error {
	if strings.TrimSpace(s.Fields.Title) == "" {
		return &ValidationError{Field: "title", Rule: "required"}
	}
	if s.PostID == "" && s.Slug() == "" {
		return &ValidationError{Field: "slug", Rule: "slug"}
	}
	return nil
}
