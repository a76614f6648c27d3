package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brainboost/internal/api/middleware"
	"brainboost/internal/database"
	"brainboost/internal/errcode"
)

const serverErrorMessage = "Server error"

// Message 写出统一的 {message} 响应体。
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func BadRequest(c *gin.Context, msg string) { Message(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Message(c, http.StatusNotFound, msg) }
func Internal(c *gin.Context)               { Message(c, http.StatusInternalServerError, serverErrorMessage) }

// RespondError 按错误类型映射状态码。5xx 只返回通用提示，详细原因写入日志。
func RespondError(c *gin.Context, err error) {
	kind := errcode.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		middleware.LoggerFromContext(c).Error("request failed",
			"kind", kind.String(),
			"error", err,
		)
		msg := serverErrorMessage
		if kind == errcode.Unavailable {
			msg = errcode.MessageOf(err)
		}
		Message(c, status, msg)
		return
	}
	Message(c, status, errcode.MessageOf(err))
}

// requireUser 取出当前用户；缺失时写出 401 并返回 false。
func requireUser(c *gin.Context) (*database.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, middleware.ErrUnauthenticated)
		return nil, false
	}
	return user, true
}
