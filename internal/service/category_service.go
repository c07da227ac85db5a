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
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// CategoryService 文章分类
type CategoryService interface {
	ListCategories(ctx context.Context) ([]*dto.CategoryDTO, error)
	CreateCategory(ctx context.Context, actor security.Actor, in *dto.CreateCategoryDTO) (*dto.CategoryDTO, error)
}

type categoryServiceImpl struct {
	categoryRepo repository.CategoryRepo
}

func NewCategoryService(categoryRepo repository.CategoryRepo) CategoryService {
	return &categoryServiceImpl{
		categoryRepo: categoryRepo,
	}
}

func (s *categoryServiceImpl) ListCategories(ctx context.Context) ([]*dto.CategoryDTO, error) {
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, backendErr("list categories", err)
	}
	out := make([]*dto.CategoryDTO, 0, len(categories))
	if err = copier.Copy(&out, &categories); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory 仅管理员
func (s *categoryServiceImpl) CreateCategory(ctx context.Context, actor security.Actor, in *dto.CreateCategoryDTO) (*dto.CategoryDTO, error) {
	if !actor.IsAdmin() {
		return nil, UnauthorizedError
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := util.ValidateDTO(in); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:        uuid.NewString(),
		Name:      in.Name,
		CreatedAt: time.Now(),
	}
	if err := s.categoryRepo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, backendErr("create category", err)
	}

	out := &dto.CategoryDTO{}
	if err := copier.Copy(out, category); err != nil {
		return nil, err
	}
	return out, nil
}
