package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"brainboost/internal/auth"
	"brainboost/internal/database"
	"brainboost/internal/errcode"
)

const currentUserKey = "currentUser"

// ErrUnauthenticated 是所有认证失败共用的响应，不区分具体原因。
var ErrUnauthenticated = errcode.Denied("Please authenticate")

// abortWithError 按错误类型中止请求；5xx 只返回通用提示。
func abortWithError(c *gin.Context, err error) {
	status := errcode.KindOf(err).HTTPStatus()
	msg := errcode.MessageOf(err)
	if status >= http.StatusInternalServerError {
		msg = "Server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// AuthMiddleware 校验 Bearer Token，并加载对应用户注入上下文。
// 用户已被删除时同样视为未认证。
func AuthMiddleware(authService *auth.AuthService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, ErrUnauthenticated)
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			LoggerFromContext(c).Debug("token rejected", "error", err)
			abortWithError(c, ErrUnauthenticated)
			return
		}

		var user database.User
		err = db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			abortWithError(c, ErrUnauthenticated)
			return
		case err != nil:
			LoggerFromContext(c).Error("load authenticated user failed", "user_id", claims.UserID, "error", err)
			abortWithError(c, errcode.StoreFailed("load authenticated user", err))
			return
		}

		c.Set(currentUserKey, &user)
		c.Next()
	}
}

// CurrentUser 返回认证中间件加载的用户。
func CurrentUser(c *gin.Context) (*database.User, bool) {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*database.User)
	return user, ok && user != nil
}
