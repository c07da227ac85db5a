package minio

import (
	"Inkwell/internal/api/config"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// publicReadPolicy 允许匿名读取桶内对象，图片地址直接嵌入文章
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// Storage 文章图片所在的对象存储
type Storage struct {
	client *minio.Client
	cfg    config.MinIOConfig
}

// Init 初始化 MinIO 客户端并确保存储桶可用
func Init(ctx context.Context, cfg config.MinIOConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	s := &Storage{client: client, cfg: cfg}
	if err = s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket 桶不存在时创建并设置公共读
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if exists {
		log.Info("检测到已存在的存储桶", "bucket", s.cfg.Bucket)
		return nil
	}

	if err = s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	if err = s.client.SetBucketPolicy(ctx, s.cfg.Bucket, fmt.Sprintf(publicReadPolicy, s.cfg.Bucket)); err != nil {
		return fmt.Errorf("设置存储桶策略失败: %w", err)
	}
	log.Info("已创建存储桶并开启公共读", "bucket", s.cfg.Bucket)
	return nil
}

// PathPrefix 图片对象名前缀
func (s *Storage) PathPrefix() string {
	return s.cfg.PathPrefix
}
