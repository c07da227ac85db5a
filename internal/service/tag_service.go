package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/pkg/util"
	"Inkwell/internal/repository"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// TagService 标签目录
type TagService interface {
	ListTags(ctx context.Context) ([]dto.TagDTO, error)
	ResolveTags(ctx context.Context, ids []string) ([]dto.TagDTO, error)
	CreateTag(ctx context.Context, actor security.Actor, in *dto.CreateTagDTO) (*dto.TagDTO, error)
	DeleteTag(ctx context.Context, actor security.Actor, tagID string) error
}

type tagServiceImpl struct {
	tagRepo repository.TagRepo
}

func NewTagService(tagRepo repository.TagRepo) TagService {
	return &tagServiceImpl{
		tagRepo: tagRepo,
	}
}

// ListTags 按名称排序的完整目录
func (s *tagServiceImpl) ListTags(ctx context.Context) ([]dto.TagDTO, error) {
	tags, err := s.tagRepo.ListTags(ctx)
	if err != nil {
		return nil, backendErr("list tags", err)
	}
	return toTagDTOs(tags), nil
}

// ResolveTags 查询给定 ID 的名称，不存在的 ID 直接忽略
func (s *tagServiceImpl) ResolveTags(ctx context.Context, ids []string) ([]dto.TagDTO, error) {
	ids = util.DedupeStrings(ids)
	if len(ids) == 0 {
		return []dto.TagDTO{}, nil
	}
	tags, err := s.tagRepo.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, backendErr("resolve tags", err)
	}
	return toTagDTOs(tags), nil
}

// CreateTag 名称重复时返回 ErrTagExists 以及已有的标签
func (s *tagServiceImpl) CreateTag(ctx context.Context, actor security.Actor, in *dto.CreateTagDTO) (*dto.TagDTO, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := util.ValidateDTO(in); err != nil {
		return nil, err
	}

	tag, created, err := s.tagRepo.GetOrCreateTag(ctx, in.Name)
	if err != nil {
		return nil, backendErr("create tag", err)
	}
	out := &dto.TagDTO{ID: tag.ID, Name: tag.Name}
	if !created {
		return out, ErrTagExists
	}
	return out, nil
}

// DeleteTag 仅管理员，会同时从所有帖子上移除
func (s *tagServiceImpl) DeleteTag(ctx context.Context, actor security.Actor, tagID string) error {
	if !actor.IsAdmin() {
		return UnauthorizedError
	}
	if err := s.tagRepo.DeleteTag(ctx, tagID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return backendErr("delete tag", err)
	}
	return nil
}

func toTagDTOs(tags []*model.Tag) []dto.TagDTO {
	out := make([]dto.TagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, dto.TagDTO{ID: t.ID, Name: t.Name})
	}
	return out
}
