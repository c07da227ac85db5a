package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/draft"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/pkg/util"
	"Inkwell/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type PostService interface {
	CreatePost(ctx context.Context, actor security.Actor, in *dto.PostFieldsDTO) (*dto.PostDTO, error)
	GetPost(ctx context.Context, actor security.Actor, postID string) (*dto.PostDTO, error)
	ListPosts(ctx context.Context, actor security.Actor, q *dto.PostListQuery) (*dto.PostListDTO, error)
	Summary(ctx context.Context, actor security.Actor) (*dto.DashboardSummaryDTO, error)
	UpdatePost(ctx context.Context, actor security.Actor, postID string, patch *dto.PostPatchDTO) (*dto.PostDTO, error)
	DeletePost(ctx context.Context, actor security.Actor, postID string) error
	ListPostTags(ctx context.Context, actor security.Actor, postID string) ([]string, error)
	ReplacePostTags(ctx context.Context, actor security.Actor, postID string, tagIDs []string) ([]string, error)
	SetPublishState(ctx context.Context, actor security.Actor, postID string, published bool) (*dto.PostDTO, error)
}

type postServiceImpl struct {
	postRepo     repository.PostRepo
	postTagRepo  repository.PostTagRepo
	categoryRepo repository.CategoryRepo
	publisher    kafka.PostEventPublisher
}

func NewPostService(postRepo repository.PostRepo, postTagRepo repository.PostTagRepo, categoryRepo repository.CategoryRepo, publisher kafka.PostEventPublisher) PostService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &postServiceImpl{
		postRepo:     postRepo,
		postTagRepo:  postTagRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
	}
}

// CreatePost 新建帖子，slug 由标题派生，初始为草稿
func (s *postServiceImpl) CreatePost(ctx context.Context, actor security.Actor, in *dto.PostFieldsDTO) (*dto.PostDTO, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}
	if err := util.ValidateDTO(in); err != nil {
		return nil, err
	}
	snap := draft.Snapshot{Fields: draft.Fields{Title: in.Title}}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	post := &model.Post{}
	if err := copier.Copy(post, in); err != nil {
		return nil, err
	}
	post.ID = uuid.NewString()
	post.AuthorID = actor.UserID
	post.Title = strings.TrimSpace(in.Title)
	post.Slug = snap.Slug()
	post.Status = model.PostStatusDraft
	post.PublishedAt = nil
	if post.CategoryID != nil && *post.CategoryID == "" {
		post.CategoryID = nil
	}

	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return nil, postErr("create post", err)
	}

	s.emit(ctx, actor, kafka.PostCreated, post, nil)
	return toPostDTO(post)
}

// GetPost 作者本人或管理员可见
func (s *postServiceImpl) GetPost(ctx context.Context, actor security.Actor, postID string) (*dto.PostDTO, error) {
	post, err := s.loadEditable(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	return toPostDTO(post)
}

// ListPosts 新的在前；管理员看到所有人的帖子
func (s *postServiceImpl) ListPosts(ctx context.Context, actor security.Actor, q *dto.PostListQuery) (*dto.PostListDTO, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}
	page, pageSize := 1, consts.DefaultPageSize
	var status model.PostStatus
	if q != nil {
		if q.Page > 0 {
			page = q.Page
		}
		if q.PageSize > 0 {
			pageSize = min(q.PageSize, consts.MaxPageSize)
		}
		status = model.PostStatus(q.Status)
	}

	posts, total, err := s.postRepo.ListPosts(ctx, repository.PostQuery{
		AuthorID: scopeAuthor(actor),
		Status:   status,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		return nil, backendErr("list posts", err)
	}

	list, err := batchToPostDTO(posts)
	if err != nil {
		return nil, err
	}
	return &dto.PostListDTO{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Summary 仪表盘统计与最近发布的帖子
func (s *postServiceImpl) Summary(ctx context.Context, actor security.Actor) (*dto.DashboardSummaryDTO, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}
	author := scopeAuthor(actor)

	counts, err := s.postRepo.CountByStatus(ctx, author)
	if err != nil {
		return nil, backendErr("count posts", err)
	}
	recent, _, err := s.postRepo.ListPosts(ctx, repository.PostQuery{
		AuthorID: author,
		Status:   model.PostStatusPublished,
		Limit:    consts.RecentPostsLimit,
	})
	if err != nil {
		return nil, backendErr("list recent posts", err)
	}

	list, err := batchToPostDTO(recent)
	if err != nil {
		return nil, err
	}
	published := counts[model.PostStatusPublished]
	drafts := counts[model.PostStatusDraft]
	return &dto.DashboardSummaryDTO{
		Total:     published + drafts,
		Published: published,
		Drafts:    drafts,
		Recent:    list,
	}, nil
}

// UpdatePost 只更新传入的字段，slug 保持创建时的值
func (s *postServiceImpl) UpdatePost(ctx context.Context, actor security.Actor, postID string, patch *dto.PostPatchDTO) (*dto.PostDTO, error) {
	post, err := s.loadEditable(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if patch == nil {
		return toPostDTO(post)
	}
	if err = util.ValidateDTO(patch); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Rule: "required"}
		}
		updates["title"] = title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		updates["excerpt"] = *patch.Excerpt
	}
	if patch.MetaTitle != nil {
		updates["meta_title"] = *patch.MetaTitle
	}
	if patch.MetaDescription != nil {
		updates["meta_description"] = *patch.MetaDescription
	}
	if patch.MetaKeywords != nil {
		updates["meta_keywords"] = *patch.MetaKeywords
	}
	switch {
	case patch.ClearCategory, patch.CategoryID != nil && *patch.CategoryID == "":
		updates["category_id"] = nil
	case patch.CategoryID != nil:
		if err = s.checkCategory(ctx, patch.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *patch.CategoryID
	}
	if len(updates) == 0 {
		return toPostDTO(post)
	}
	updates["updated_at"] = time.Now()

	if err = s.postRepo.UpdatePost(ctx, postID, updates); err != nil {
		return nil, postErr("update post", err)
	}
	updated, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, postErr("get post", err)
	}

	s.emit(ctx, actor, kafka.PostUpdated, updated, nil)
	return toPostDTO(updated)
}

// DeletePost 硬删除，标签关联在同一事务中删除
func (s *postServiceImpl) DeletePost(ctx context.Context, actor security.Actor, postID string) error {
	post, err := s.loadEditable(ctx, actor, postID)
	if err != nil {
		return err
	}
	if err = s.postRepo.DeletePost(ctx, postID); err != nil {
		return postErr("delete post", err)
	}

	s.emit(ctx, actor, kafka.PostDeleted, post, nil)
	return nil
}

func (s *postServiceImpl) ListPostTags(ctx context.Context, actor security.Actor, postID string) ([]string, error) {
	if _, err := s.loadEditable(ctx, actor, postID); err != nil {
		return nil, err
	}
	ids, err := s.postTagRepo.ListTagIDs(ctx, postID)
	if err != nil {
		return nil, backendErr("list post tags", err)
	}
	return ids, nil
}

// ReplacePostTags 去重后整体替换，失败时保留原有关联
func (s *postServiceImpl) ReplacePostTags(ctx context.Context, actor security.Actor, postID string, tagIDs []string) ([]string, error) {
	post, err := s.loadEditable(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	ids := util.DedupeStrings(tagIDs)
	if err = s.postTagRepo.ReplacePostTags(ctx, postID, ids); err != nil {
		return nil, postErr("replace post tags", err)
	}

	s.emit(ctx, actor, kafka.PostTagsChanged, post, ids)
	return ids, nil
}

// SetPublishState 发布时写入发布时间，撤回时清空；目标状态与当前一致时不做修改
func (s *postServiceImpl) SetPublishState(ctx context.Context, actor security.Actor, postID string, published bool) (*dto.PostDTO, error) {
	post, err := s.loadEditable(ctx, actor, postID)
	if err != nil {
		return nil, err
	}

	target := model.PostStatusDraft
	var publishedAt *time.Time
	eventType := kafka.PostUnpublished
	if published {
		target = model.PostStatusPublished
		now := time.Now()
		publishedAt = &now
		eventType = kafka.PostPublished
	}
	if post.Status == target {
		return toPostDTO(post)
	}

	changed, err := s.postRepo.SetPublishState(ctx, postID, target, publishedAt)
	if err != nil {
		return nil, postErr("set publish state", err)
	}
	updated, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, postErr("get post", err)
	}
	if changed {
		s.emit(ctx, actor, eventType, updated, nil)
	}
	return toPostDTO(updated)
}

// loadEditable 读取帖子并检查操作者是否为作者或管理员
func (s *postServiceImpl) loadEditable(ctx context.Context, actor security.Actor, postID string) (*model.Post, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}
	if postID == "" {
		return nil, ErrPostNotFound
	}
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, postErr("get post", err)
	}
	if !actor.CanEdit(post.AuthorID) {
		return nil, UnauthorizedError
	}
	return post, nil
}

func (s *postServiceImpl) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	if _, err := s.categoryRepo.GetCategory(ctx, *categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return backendErr("get category", err)
	}
	return nil
}

// emit 事件发送失败只记录日志，不影响主流程
func (s *postServiceImpl) emit(ctx context.Context, actor security.Actor, eventType string, post *model.Post, tagIDs []string) {
	err := s.publisher.Publish(ctx, kafka.PostEvent{
		Type:     eventType,
		PostID:   post.ID,
		Slug:     post.Slug,
		ActorID:  actor.UserID,
		TagIDs:   tagIDs,
		Occurred: time.Now(),
	})
	if err != nil {
		log.WarnContext(ctx, "publish post event failed", "type", eventType, "post_id", post.ID, "err", err)
	}
}

// scopeAuthor 管理员不限作者
func scopeAuthor(actor security.Actor) string {
	if actor.IsAdmin() {
		return ""
	}
	return actor.UserID
}

// postErr 把存储层错误翻译为业务错误
func postErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrPostNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrPostConflict
	case errors.Is(err, repository.ErrUnknownTag):
		return ErrTagNotFound
	default:
		return backendErr(op, err)
	}
}

func toPostDTO(post *model.Post) (*dto.PostDTO, error) {
	out := &dto.PostDTO{}
	if err := copier.Copy(out, post); err != nil {
		return nil, err
	}
	return out, nil
}

func batchToPostDTO(posts []*model.Post) ([]*dto.PostDTO, error) {
	out := make([]*dto.PostDTO, len(posts))
	for i, post := range posts {
		item, err := toPostDTO(post)
		if err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}
