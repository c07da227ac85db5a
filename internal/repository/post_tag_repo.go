package repository

import (
	"Inkwell/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrUnknownTag 关联的标签不在目录中
var ErrUnknownTag = errors.New("unknown tag id")

type PostTagRepo interface {
	ListTagIDs(ctx context.Context, postID string) ([]string, error)
	ReplacePostTags(ctx context.Context, postID string, tagIDs []string) error
}

type postTagRepoImpl struct {
	db *gorm.DB
}

func NewPostTagRepository(db *gorm.DB) PostTagRepo {
	return &postTagRepoImpl{
		db: db,
	}
}

// ListTagIDs 按保存时的顺序返回
func (s *postTagRepoImpl) ListTagIDs(ctx context.Context, postID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.PostTag{}).
		Where("post_id = ?", postID).
		Order("position ASC").Order("tag_id ASC").
		Pluck("tag_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ReplacePostTags 在同一个事务里删除旧关联并写入新关联，调用方负责去重
func (s *postTagRepoImpl) ReplacePostTags(ctx context.Context, postID string, tagIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(tagIDs) > 0 {
			var count int64
			if err := tx.Model(&model.Tag{}).Where("id IN ?", tagIDs).Count(&count).Error; err != nil {
				return err
			}
			if count != int64(len(tagIDs)) {
				return ErrUnknownTag
			}
		}

		if err := tx.Where("post_id = ?", postID).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}
		if len(tagIDs) == 0 {
			return nil
		}

		rows := make([]model.PostTag, 0, len(tagIDs))
		for i, id := range tagIDs {
			rows = append(rows, model.PostTag{PostID: postID, TagID: id, Position: i})
		}
		return tx.Create(&rows).Error
	})
}
