package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
)

// UploadFile 上传文件到 MinIO，返回公共访问地址
func (s *Storage) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	uploadInfo, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.PublicURL(uploadInfo.Key), nil
}

// DeleteFile 删除 MinIO 中的文件
func (s *Storage) DeleteFile(ctx context.Context, objectName string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("minio client is not initialized")
	}

	err := s.client.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// PublicURL 获取文件的公共访问 URL，配置了 PublicEndpoint 时优先使用
func (s *Storage) PublicURL(objectName string) string {
	if s.cfg.PublicEndpoint != "" {
		return strings.TrimRight(s.cfg.PublicEndpoint, "/") + "/" + s.cfg.Bucket + "/" + escapeObjectName(objectName)
	}

	protocol := "http"
	if s.cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.cfg.Endpoint, s.cfg.Bucket, escapeObjectName(objectName))
}

func escapeObjectName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
