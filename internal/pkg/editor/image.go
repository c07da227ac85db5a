package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUpload   = errors.New("图片上传失败")
	ErrNotImage = errors.New("只允许上传图片")
)

// Uploader 对象存储，上传成功后返回可公开访问的地址
type Uploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

// Remover 可选接口，上传后无法插入时删除对象
type Remover interface {
	DeleteFile(ctx context.Context, objectName string) error
}

// UploadError 上传失败时的错误，同时匹配 ErrUpload 和底层错误
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrUpload, e.Err}
}

// ObjectName 生成对象名 prefix/<uuid>.<ext>，扩展名统一小写
func ObjectName(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := uuid.NewString() + ext
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// InsertImage 上传图片并插入到光标处；任何一步失败文档都保持不变
func (e *Editor) InsertImage(ctx context.Context, up Uploader, prefix, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", ErrNotImage
	}
	if up == nil {
		return "", &UploadError{Name: filename, Err: errors.New("storage not configured")}
	}

	objectName := ObjectName(prefix, filename)
	url, err := up.UploadFile(ctx, objectName, r, size, contentType)
	if err != nil {
		return "", &UploadError{Name: filename, Err: err}
	}
	if url == "" {
		return "", &UploadError{Name: filename, Err: errors.New("empty object url")}
	}

	var alt string
	if filename != "" {
		alt = strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	}
	if !e.InsertImageURL(url, alt) {
		if rm, ok := up.(Remover); ok {
			_ = rm.DeleteFile(context.WithoutCancel(ctx), objectName)
		}
		return "", &UploadError{Name: filename, Err: fmt.Errorf("unusable object url %q", url)}
	}
	return url, nil
}
