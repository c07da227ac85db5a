package repository

import (
	"Inkwell/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRepo interface {
	ListTags(ctx context.Context) ([]*model.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []string) ([]*model.Tag, error)
	GetOrCreateTag(ctx context.Context, name string) (*model.Tag, bool, error)
	DeleteTag(ctx context.Context, id string) error
}

type tagRepoImpl struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepo {
	return &tagRepoImpl{
		db: db,
	}
}

// ListTags 按名称排序的完整目录
func (s *tagRepoImpl) ListTags(ctx context.Context) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *tagRepoImpl) GetTagsByIDs(ctx context.Context, ids []string) ([]*model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []*model.Tag
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// GetOrCreateTag 名称已存在时返回已有记录，第二个返回值表示是否新建
func (s *tagRepoImpl) GetOrCreateTag(ctx context.Context, name string) (*model.Tag, bool, error) {
	tag := model.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tag)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &tag, true, nil
	}
	// 如果记录已存在，查询获取完整数据
	var existing model.Tag
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// DeleteTag 同时删除所有帖子上的该标签
func (s *tagRepoImpl) DeleteTag(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Tag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
