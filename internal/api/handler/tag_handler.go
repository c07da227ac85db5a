package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/service"
	"errors"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tagSvc service.TagService
}

func NewTagHandler(tagSvc service.TagService) *TagHandler {
	return &TagHandler{
		tagSvc: tagSvc,
	}
}

func (s *TagHandler) ListTags(c *gin.Context) {
	tags, err := s.tagSvc.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

// CreateTag 名称已存在时返回冲突码，同时带上已有标签
func (s *TagHandler) CreateTag(c *gin.Context) {
	var req dto.CreateTagDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	tag, err := s.tagSvc.CreateTag(c.Request.Context(), middleware.CurrentActor(c), &req)
	if errors.Is(err, service.ErrTagExists) {
		response.FailWithData(c, response.Conflict, err.Error(), tag)
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tag)
}

func (s *TagHandler) DeleteTag(c *gin.Context) {
	if err := s.tagSvc.DeleteTag(c.Request.Context(), middleware.CurrentActor(c), c.Param("tag_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
