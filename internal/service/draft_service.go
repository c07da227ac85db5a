package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/draft"
	"Inkwell/internal/pkg/editor"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/pkg/tagpicker"
	"Inkwell/internal/repository"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DraftService 编辑会话：打开、修改、上传图片、提交
type DraftService interface {
	Open(ctx context.Context, actor security.Actor, postID string) (*dto.DraftDTO, error)
	Get(ctx context.Context, actor security.Actor, draftID string) (*dto.DraftDTO, error)
	Patch(ctx context.Context, actor security.Actor, draftID string, in *dto.DraftPatchDTO) (*dto.DraftDTO, error)
	AddTag(ctx context.Context, actor security.Actor, draftID, tagID string) (*dto.DraftDTO, error)
	RemoveTag(ctx context.Context, actor security.Actor, draftID, tagID string) (*dto.DraftDTO, error)
	SearchTags(ctx context.Context, actor security.Actor, draftID, query string) ([]dto.TagDTO, error)
	Exec(ctx context.Context, actor security.Actor, draftID string, cmd *dto.EditorCommandDTO) (*dto.DraftDTO, error)
	InsertImage(ctx context.Context, actor security.Actor, draftID, filename string, r io.Reader, size int64, contentType string) (*dto.ImageUploadDTO, error)
	TogglePublish(ctx context.Context, actor security.Actor, draftID string, published bool) (*dto.DraftDTO, error)
	Submit(ctx context.Context, actor security.Actor, draftID string) (*dto.PostDTO, error)
	Discard(ctx context.Context, actor security.Actor, draftID string) error
}

// DraftOptions 会话过期时间、撤销栈深度、图片对象前缀
type DraftOptions struct {
	TTL         time.Duration
	HistorySize int
	ImagePrefix string
}

type draftServiceImpl struct {
	draftRepo   repository.DraftRepo
	postService PostService
	tagService  TagService
	uploader    editor.Uploader
	guard       SubmitGuard
	opts        DraftOptions
}

func NewDraftService(draftRepo repository.DraftRepo, postService PostService, tagService TagService, uploader editor.Uploader, guard SubmitGuard, opts DraftOptions) DraftService {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.ImagePrefix == "" {
		opts.ImagePrefix = "blog-images"
	}
	if guard == nil {
		guard = &localGuard{}
	}
	return &draftServiceImpl{
		draftRepo:   draftRepo,
		postService: postService,
		tagService:  tagService,
		uploader:    uploader,
		guard:       guard,
		opts:        opts,
	}
}

// Open postID 为空时新建草稿，否则以已有帖子初始化
func (s *draftServiceImpl) Open(ctx context.Context, actor security.Actor, postID string) (*dto.DraftDTO, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}

	var d *draft.Draft
	if postID == "" {
		d = draft.New(actor.UserID, s.editorOpts()...)
	} else {
		post, err := s.postService.GetPost(ctx, actor, postID)
		if err != nil {
			return nil, err
		}
		tagIDs, err := s.postService.ListPostTags(ctx, actor, postID)
		if err != nil {
			return nil, err
		}
		d, err = draft.FromPost(actor.UserID, postFromDTO(post), tagIDs, s.editorOpts()...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
		}
	}

	// 目录与已选名称并发查询，谁先返回都只合并名称
	// 目录不随会话保存，这里只用来补全标签名；SearchTags 每次重新加载
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tags, err := s.tagService.ListTags(gctx)
		if err != nil {
			// 目录加载失败不影响打开，标签名退回已解析的结果
			log.WarnContext(ctx, "load tag directory failed", "post_id", postID, "err", err)
			return nil
		}
		d.Tags().LoadDirectory(toPickerTags(tags))
		return nil
	})
	if ids := d.Tags().IDs(); len(ids) > 0 {
		g.Go(func() error {
			tags, err := s.tagService.ResolveTags(gctx, ids)
			if err != nil {
				return err
			}
			d.Tags().MergeResolved(toPickerTags(tags))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return toDraftDTO(d), nil
}

func (s *draftServiceImpl) Get(ctx context.Context, actor security.Actor, draftID string) (*dto.DraftDTO, error) {
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}
	return toDraftDTO(d), nil
}

// Patch 字段修改不做校验，提交时统一校验
func (s *draftServiceImpl) Patch(ctx context.Context, actor security.Actor, draftID string, in *dto.DraftPatchDTO) (*dto.DraftDTO, error) {
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return toDraftDTO(d), nil
	}

	patch := draft.Patch{
		Title:           in.Title,
		Content:         in.Content,
		Excerpt:         in.Excerpt,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		MetaKeywords:    in.MetaKeywords,
		CategoryID:      in.CategoryID,
		ClearCategory:   in.ClearCategory,
	}
	if patch.Empty() {
		return toDraftDTO(d), nil
	}
	if err = d.Apply(patch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	return s.saveAndView(ctx, d)
}

// AddTag 只能选择目录里存在的标签，重复添加不做任何事
func (s *draftServiceImpl) AddTag(ctx context.Context, actor security.Actor, draftID, tagID string) (*dto.DraftDTO, error) {
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}
	if d.Tags().Contains(tagID) {
		return toDraftDTO(d), nil
	}

	tags, err := s.tagService.ResolveTags(ctx, []string{tagID})
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, ErrTagNotFound
	}
	d.Tags().Add(tagID)
	d.Tags().MergeResolved(toPickerTags(tags))
	return s.saveAndView(ctx, d)
}

func (s *draftServiceImpl) RemoveTag(ctx context.Context, actor security.Actor, draftID, tagID string) (*dto.DraftDTO, error) {
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}
	if !d.Tags().Remove(tagID) {
		return toDraftDTO(d), nil
	}
	return s.saveAndView(ctx, d)
}

// SearchTags 目录不随会话保存，每次搜索重新加载
func (s *draftServiceImpl) SearchTags(ctx context.Context, actor security.Actor, draftID, query string) ([]dto.TagDTO, error) {
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}
	tags, err := s.tagService.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	d.Tags().LoadDirectory(toPickerTags(tags))

	matched := d.Tags().Filter(query)
	out := make([]dto.TagDTO, 0, len(matched))
	for _, t := range matched {
		out = append(out, dto.TagDTO{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// Exec 执行一次工具栏命令，文档没有变化时不写回会话
func (s *draftServiceImpl) Exec(ctx context.Context, actor security.Actor, draftID string, cmd *dto.EditorCommandDTO) (*dto.DraftDTO, error) {
	if cmd == nil {
		return nil, ErrParamInvalid
	}
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}

	ed := d.Editor()
	var changed bool
	switch cmd.Command {
	case dto.CmdSelect:
		// 选区变化会清掉待生效样式，总是写回
		ed.Select(cmd.Block, cmd.Start, cmd.End)
		changed = true
	case dto.CmdInsertText:
		changed = ed.InsertText(cmd.Text)
	case dto.CmdDelete:
		changed = ed.Delete()
	case dto.CmdSetContent:
		if err = d.SetContent(cmd.Text); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParamInvalid, err)
		}
		changed = true
	case dto.CmdBold:
		changed = ed.ToggleBold()
	case dto.CmdItalic:
		changed = ed.ToggleItalic()
	case dto.CmdBulletList:
		changed = ed.ToggleBulletList()
	case dto.CmdOrderedList:
		changed = ed.ToggleOrderedList()
	case dto.CmdBlockquote:
		changed = ed.ToggleBlockquote()
	case dto.CmdHeading:
		changed = ed.SetHeading(cmd.Level)
	case dto.CmdLink:
		if changed, err = ed.SetLink(cmd.Href); err != nil {
			return nil, err
		}
	case dto.CmdUnlink:
		changed = ed.UnsetLink()
	case dto.CmdInsertImageURL:
		if !ed.InsertImageURL(cmd.Src, cmd.Alt) {
			return nil, editor.ErrInvalidLink
		}
		changed = true
	case dto.CmdUndo:
		changed = ed.Undo()
	case dto.CmdRedo:
		changed = ed.Redo()
	default:
		return nil, ErrUnknownCommand
	}

	if !changed {
		return toDraftDTO(d), nil
	}
	return s.saveAndView(ctx, d)
}

// InsertImage 上传成功后才修改文档，失败时会话保持原样
func (s *draftServiceImpl) InsertImage(ctx context.Context, actor security.Actor, draftID, filename string, r io.Reader, size int64, contentType string) (*dto.ImageUploadDTO, error) {
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}

	url, err := d.Editor().InsertImage(ctx, s.uploader, s.opts.ImagePrefix, filename, r, size, contentType)
	if err != nil {
		log.WarnContext(ctx, "insert image failed", "draft_id", draftID, "file", filename, "err", err)
		return nil, err
	}
	view, err := s.saveAndView(ctx, d)
	if err != nil {
		return nil, err
	}
	return &dto.ImageUploadDTO{URL: url, Draft: view}, nil
}

// TogglePublish 直接修改已有帖子的发布状态，新建草稿需要先提交
func (s *draftServiceImpl) TogglePublish(ctx context.Context, actor security.Actor, draftID string, published bool) (*dto.DraftDTO, error) {
	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}
	if d.IsNew() {
		return nil, ErrDraftNotEdit
	}

	post, err := s.postService.SetPublishState(ctx, actor, d.PostID(), published)
	if err != nil {
		return nil, err
	}
	d.SetPublishState(post.Status, post.PublishedAt)
	return s.saveAndView(ctx, d)
}

// Submit 校验后新建或更新帖子，再整体替换标签；成功后会话删除
// 先拿提交锁再读会话，前一次提交已删除会话时返回 ErrDraftNotFound
func (s *draftServiceImpl) Submit(ctx context.Context, actor security.Actor, draftID string) (*dto.PostDTO, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}
	if draftID == "" {
		return nil, ErrDraftNotFound
	}

	release, ok, err := s.guard.Acquire(ctx, draftID)
	if err != nil {
		return nil, backendErr("acquire submit lock", err)
	}
	if !ok {
		return nil, ErrSubmitInFlight
	}
	defer release()

	d, err := s.load(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}

	snap := d.Snapshot()
	if err = snap.Validate(); err != nil {
		return nil, err
	}

	var post *dto.PostDTO
	if d.IsNew() {
		post, err = s.postService.CreatePost(ctx, actor, &dto.PostFieldsDTO{
			Title:           snap.Fields.Title,
			Content:         snap.Fields.Content,
			Excerpt:         snap.Fields.Excerpt,
			MetaTitle:       snap.Fields.MetaTitle,
			MetaDescription: snap.Fields.MetaDescription,
			MetaKeywords:    snap.Fields.MetaKeywords,
			CategoryID:      snap.Fields.CategoryID,
		})
	} else {
		post, err = s.postService.UpdatePost(ctx, actor, snap.PostID, &dto.PostPatchDTO{
			Title:           &snap.Fields.Title,
			Content:         &snap.Fields.Content,
			Excerpt:         &snap.Fields.Excerpt,
			MetaTitle:       &snap.Fields.MetaTitle,
			MetaDescription: &snap.Fields.MetaDescription,
			MetaKeywords:    &snap.Fields.MetaKeywords,
			CategoryID:      snap.Fields.CategoryID,
			ClearCategory:   snap.Fields.CategoryID == nil,
		})
	}
	if err != nil {
		return nil, err
	}

	if _, err = s.postService.ReplacePostTags(ctx, actor, post.ID, snap.TagIDs); err != nil {
		// 帖子已经落库，会话绑定到该帖子，重试时走更新
		if d.IsNew() {
			d.MarkSaved(post.ID, post.Slug)
			d.SetPublishState(post.Status, post.PublishedAt)
			if saveErr := s.save(ctx, d); saveErr != nil {
				log.ErrorContext(ctx, "save draft after partial submit failed", "draft_id", draftID, "post_id", post.ID, "err", saveErr)
			}
		}
		return nil, err
	}

	if err = s.draftRepo.DeleteDraft(ctx, draftID); err != nil {
		log.WarnContext(ctx, "delete submitted draft failed", "draft_id", draftID, "err", err)
	}
	return post, nil
}

func (s *draftServiceImpl) Discard(ctx context.Context, actor security.Actor, draftID string) error {
	if _, err := s.load(ctx, actor, draftID); err != nil {
		return err
	}
	if err := s.draftRepo.DeleteDraft(ctx, draftID); err != nil {
		return backendErr("delete draft", err)
	}
	return nil
}

// load 读取会话并检查是否为打开者本人
func (s *draftServiceImpl) load(ctx context.Context, actor security.Actor, draftID string) (*draft.Draft, error) {
	if actor.UserID == "" {
		return nil, UnauthorizedError
	}
	if draftID == "" {
		return nil, ErrDraftNotFound
	}
	data, err := s.draftRepo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, backendErr("get draft", err)
	}
	if data == nil {
		return nil, ErrDraftNotFound
	}
	d, err := draft.Unmarshal(data, s.editorOpts()...)
	if err != nil {
		log.ErrorContext(ctx, "decode draft session failed", "draft_id", draftID, "err", err)
		return nil, ErrDraftNotFound
	}
	if d.OwnerID() != actor.UserID {
		return nil, UnauthorizedError
	}
	return d, nil
}

func (s *draftServiceImpl) save(ctx context.Context, d *draft.Draft) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err = s.draftRepo.SaveDraft(ctx, d.ID(), data, s.opts.TTL); err != nil {
		return backendErr("save draft", err)
	}
	return nil
}

func (s *draftServiceImpl) saveAndView(ctx context.Context, d *draft.Draft) (*dto.DraftDTO, error) {
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return toDraftDTO(d), nil
}

func (s *draftServiceImpl) editorOpts() []editor.Option {
	if s.opts.HistorySize <= 0 {
		return nil
	}
	return []editor.Option{editor.WithHistorySize(s.opts.HistorySize)}
}

func postFromDTO(p *dto.PostDTO) *model.Post {
	return &model.Post{
		ID:              p.ID,
		AuthorID:        p.AuthorID,
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		Excerpt:         p.Excerpt,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    p.MetaKeywords,
		Status:          p.Status,
		PublishedAt:     p.PublishedAt,
		CategoryID:      p.CategoryID,
	}
}

func toPickerTags(tags []dto.TagDTO) []tagpicker.Tag {
	out := make([]tagpicker.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagpicker.Tag{ID: t.ID, Name: t.Name})
	}
	return out
}

func toDraftDTO(d *draft.Draft) *dto.DraftDTO {
	f := d.Fields()
	chips := d.Tags().Chips()
	tags := make([]dto.TagDTO, 0, len(chips))
	for _, t := range chips {
		tags = append(tags, dto.TagDTO{ID: t.ID, Name: t.Name})
	}
	slug := d.Slug()
	if d.IsNew() {
		slug = draft.Slugify(f.Title)
	}

	ed := d.Editor()
	return &dto.DraftDTO{
		ID:              d.ID(),
		PostID:          d.PostID(),
		IsNew:           d.IsNew(),
		Slug:            slug,
		Title:           f.Title,
		Content:         f.Content,
		Excerpt:         f.Excerpt,
		MetaTitle:       f.MetaTitle,
		MetaDescription: f.MetaDescription,
		MetaKeywords:    f.MetaKeywords,
		CategoryID:      f.CategoryID,
		Status:          d.Status(),
		PublishedAt:     d.PublishedAt(),
		Tags:            tags,
		Editor: dto.EditorStateDTO{
			Selection: ed.Selection(),
			Active:    ed.ActiveStates(),
			CanUndo:   ed.CanUndo(),
			CanRedo:   ed.CanRedo(),
		},
		UpdatedAt: d.UpdatedAt(),
	}
}
