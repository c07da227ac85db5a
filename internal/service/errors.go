package service

import (
	"Inkwell/internal/pkg/draft"
	"Inkwell/internal/pkg/editor"
	"errors"
	"fmt"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
	UploadFailed        = 502
)

// ValidationError 字段校验失败，由草稿快照校验产生
type ValidationError = draft.ValidationError

var (
	ErrValidation       = draft.ErrValidation
	ErrBackend          = errors.New("存储服务异常")
	ErrParamInvalid     = errors.New("参数错误")
	ErrPostNotFound     = errors.New("帖子不存在")
	ErrPostConflict     = errors.New("slug 已被占用")
	ErrTagNotFound      = errors.New("标签不存在")
	ErrTagExists        = errors.New("标签已存在")
	ErrCategoryExists   = errors.New("分类已存在")
	ErrCategoryNotFound = errors.New("分类不存在")
	ErrDraftNotFound    = errors.New("草稿不存在或已过期")
	ErrDraftNotEdit     = errors.New("新建草稿不能修改发布状态")
	ErrSubmitInFlight   = errors.New("草稿正在提交中")
	ErrUnknownCommand   = errors.New("不支持的编辑命令")
	UnauthorizedError   = errors.New("权限不足")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

// BackendError 数据库或缓存调用失败，同时匹配 ErrBackend 和底层错误
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() []error {
	return []error{ErrBackend, e.Err}
}

func backendErr(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}

var ErrorMap = map[error]int{
	ErrValidation:         BadRequest,
	ErrParamInvalid:       BadRequest,
	ErrPostNotFound:       NotFound,
	ErrPostConflict:       Conflict,
	ErrTagNotFound:        NotFound,
	ErrTagExists:          Conflict,
	ErrCategoryExists:     Conflict,
	ErrCategoryNotFound:   NotFound,
	ErrDraftNotFound:      NotFound,
	ErrDraftNotEdit:       BadRequest,
	ErrSubmitInFlight:     Conflict,
	ErrUnknownCommand:     BadRequest,
	editor.ErrUpload:      UploadFailed,
	editor.ErrNotImage:    BadRequest,
	editor.ErrInvalidLink: BadRequest,
	UnauthorizedError:     Forbidden,
	ErrBackend:            InternalServerError,
	UnExpectedError:       InternalServerError,
}

// 具体的业务错误排在前面，ErrBackend 兜底
var orderedSentinels = []error{
	ErrValidation,
	ErrParamInvalid,
	ErrPostNotFound,
	ErrPostConflict,
	ErrTagNotFound,
	ErrTagExists,
	ErrCategoryExists,
	ErrCategoryNotFound,
	ErrDraftNotFound,
	ErrDraftNotEdit,
	ErrSubmitInFlight,
	ErrUnknownCommand,
	editor.ErrUpload,
	editor.ErrNotImage,
	editor.ErrInvalidLink,
	UnauthorizedError,
	UnExpectedError,
	ErrBackend,
}

// ResolveCode 按 errors.Is 查找业务码
func ResolveCode(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for _, sentinel := range orderedSentinels {
		if errors.Is(err, sentinel) {
			return ErrorMap[sentinel], true
		}
	}
	return 0, false
}
