package response

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = service.BadRequest
	Unauthorized        = service.Unauthorized
	Forbidden           = service.Forbidden
	NotFound            = service.NotFound
	Conflict            = service.Conflict
	InternalServerError = service.InternalServerError
)

// Success 成功返回封装
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, businessCode int, message string) {
	FailWithData(c, businessCode, message, nil)
}

// FailWithData 失败但仍需要返回数据，例如标签已存在时返回已有标签
func FailWithData(c *gin.Context, businessCode int, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    data,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	code, message := Resolve(err)
	if code == InternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
	}
	Fail(c, code, message)
}

// Resolve 把错误翻译为业务码和可展示的消息，内部错误不向外暴露细节
func Resolve(err error) (int, string) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return BadRequest, "参数错误: " + ve[0].Field()
	}

	var fe *service.ValidationError
	if errors.As(err, &fe) {
		return BadRequest, "参数错误: " + fe.Field
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		return BadRequest, "Json错误"
	}
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return BadRequest, "Json错误"
	}

	code, ok := service.ResolveCode(err)
	if !ok || code == InternalServerError {
		return InternalServerError, service.UnExpectedError.Error()
	}
	return code, err.Error()
}
