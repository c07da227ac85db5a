package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/editor"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/util"
	"Inkwell/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

type DraftHandler struct {
	draftSvc service.DraftService
}

func NewDraftHandler(draftSvc service.DraftService) *DraftHandler {
	return &DraftHandler{
		draftSvc: draftSvc,
	}
}

// OpenNew 新建帖子的编辑会话
func (s *DraftHandler) OpenNew(c *gin.Context) {
	draft, err := s.draftSvc.Open(c.Request.Context(), middleware.CurrentActor(c), "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

// OpenPost 编辑已有帖子
func (s *DraftHandler) OpenPost(c *gin.Context) {
	postID := c.Param("post_id")
	if postID == "" {
		response.Error(c, service.ErrPostNotFound)
		return
	}

	draft, err := s.draftSvc.Open(c.Request.Context(), middleware.CurrentActor(c), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) Get(c *gin.Context) {
	draft, err := s.draftSvc.Get(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) Patch(c *gin.Context) {
	var req dto.DraftPatchDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	draft, err := s.draftSvc.Patch(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) AddTag(c *gin.Context) {
	draft, err := s.draftSvc.AddTag(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"), c.Param("tag_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) RemoveTag(c *gin.Context) {
	draft, err := s.draftSvc.RemoveTag(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"), c.Param("tag_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) SearchTags(c *gin.Context) {
	tags, err := s.draftSvc.SearchTags(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

func (s *DraftHandler) Exec(c *gin.Context) {
	var req dto.EditorCommandDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	draft, err := s.draftSvc.Exec(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

// UploadImage 表单字段 file，类型按文件头识别而不是信任客户端
func (s *DraftHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if file.Size <= 0 || file.Size > consts.MaxImageSize {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.SniffContentType(reader)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if !util.IsImage(contentType) {
		log.InfoContext(c.Request.Context(), "reject non-image upload", "file", file.Filename, "content_type", contentType)
		response.Error(c, editor.ErrNotImage)
		return
	}

	out, err := s.draftSvc.InsertImage(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"), file.Filename, reader, file.Size, contentType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

func (s *DraftHandler) TogglePublish(c *gin.Context) {
	var req dto.PublishStateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	draft, err := s.draftSvc.TogglePublish(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"), *req.Published)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

func (s *DraftHandler) Submit(c *gin.Context) {
	post, err := s.draftSvc.Submit(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *DraftHandler) Discard(c *gin.Context) {
	if err := s.draftSvc.Discard(c.Request.Context(), middleware.CurrentActor(c), c.Param("draft_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
