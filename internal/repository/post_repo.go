package repository

import (
	"Inkwell/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// PostQuery 列表查询条件，AuthorID 为空表示不限作者
type PostQuery struct {
	AuthorID string
	Status   model.PostStatus
	Offset   int
	Limit    int
}

type PostRepo interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]*model.Post, int64, error)
	CountByStatus(ctx context.Context, authorID string) (map[model.PostStatus]int64, error)
	UpdatePost(ctx context.Context, id string, updates map[string]interface{}) error
	SetPublishState(ctx context.Context, id string, status model.PostStatus, publishedAt *time.Time) (bool, error)
	DeletePost(ctx context.Context, id string) error
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepo {
	return &PostRepoImpl{
		db: db,
	}
}

func (s *PostRepoImpl) CreatePost(ctx context.Context, post *model.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

func (s *PostRepoImpl) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostRepoImpl) ListPosts(ctx context.Context, q PostQuery) ([]*model.Post, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q.AuthorID != "" {
			db = db.Where("author_id = ?", q.AuthorID)
		}
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*model.Post
	err := s.db.WithContext(ctx).Scopes(filter).
		Order("created_at DESC").Order("id DESC").
		Offset(q.Offset).Limit(q.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostRepoImpl) CountByStatus(ctx context.Context, authorID string) (map[model.PostStatus]int64, error) {
	var rows []struct {
		Status model.PostStatus
		Count  int64
	}
	db := s.db.WithContext(ctx).Model(&model.Post{}).Select("status, COUNT(*) AS count")
	if authorID != "" {
		db = db.Where("author_id = ?", authorID)
	}
	if err := db.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.PostStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// UpdatePost 只更新给定的列，记录不存在时返回 gorm.ErrRecordNotFound
func (s *PostRepoImpl) UpdatePost(ctx context.Context, id string, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetPublishState 状态与发布时间一起更新，状态未变时不写库，返回是否发生了变化
func (s *PostRepoImpl) SetPublishState(ctx context.Context, id string, status model.PostStatus, publishedAt *time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND status <> ?", id, status).
		Updates(map[string]interface{}{
			"status":       status,
			"published_at": publishedAt,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeletePost 硬删除帖子及其标签关联
func (s *PostRepoImpl) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
