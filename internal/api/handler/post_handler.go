package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postSvc service.PostService
}

func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{
		postSvc: postSvc,
	}
}

func (s *PostHandler) Summary(c *gin.Context) {
	summary, err := s.postSvc.Summary(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

func (s *PostHandler) ListPosts(c *gin.Context) {
	var query dto.PostListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}

	posts, err := s.postSvc.ListPosts(c.Request.Context(), middleware.CurrentActor(c), &query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

func (s *PostHandler) GetPost(c *gin.Context) {
	post, err := s.postSvc.GetPost(c.Request.Context(), middleware.CurrentActor(c), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) DeletePost(c *gin.Context) {
	if err := s.postSvc.DeletePost(c.Request.Context(), middleware.CurrentActor(c), c.Param("post_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *PostHandler) SetPublishState(c *gin.Context) {
	var req dto.PublishStateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	post, err := s.postSvc.SetPublishState(c.Request.Context(), middleware.CurrentActor(c), c.Param("post_id"), *req.Published)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) ListPostTags(c *gin.Context) {
	ids, err := s.postSvc.ListPostTags(c.Request.Context(), middleware.CurrentActor(c), c.Param("post_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.PostTagsDTO{TagIDs: ids})
}

func (s *PostHandler) ReplacePostTags(c *gin.Context) {
	var req dto.PostTagsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	ids, err := s.postSvc.ReplacePostTags(c.Request.Context(), middleware.CurrentActor(c), c.Param("post_id"), req.TagIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.PostTagsDTO{TagIDs: ids})
}
