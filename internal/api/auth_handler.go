package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"brainboost/internal/api/middleware"
	"brainboost/internal/auth"
	"brainboost/internal/database"
)

const (
	defaultLearningStyle   = "visual"
	invalidCredentialsMsg  = "Invalid credentials"
	loginRateLimitExceeded = "Too many login attempts, please try again later"
)

// AuthHandler 处理注册、登录与个人资料。
type AuthHandler struct {
	db                    *gorm.DB
	authService           *auth.AuthService
	redis                 redisRateCounter
	logger                *slog.Logger
	loginRateLimitPerHour int
	now                   func() time.Time
}

// NewAuthHandler 构造认证处理器；redisClient 为 nil 时不做登录限流。
func NewAuthHandler(db *gorm.DB, authService *auth.AuthService, redisClient redisRateCounter, logger *slog.Logger, loginRateLimitPerHour int) *AuthHandler {
	return &AuthHandler{
		db:                    db,
		authService:           authService,
		redis:                 redisClient,
		logger:                logger,
		loginRateLimitPerHour: loginRateLimitPerHour,
		now:                   time.Now,
	}
}

type registerRequest struct {
	Name          string   `json:"name" binding:"required,max=255"`
	Email         string   `json:"email" binding:"required,email,max=255"`
	Password      string   `json:"password" binding:"required,max=72"`
	Subjects      []string `json:"subjects"`
	LearningStyle string   `json:"learningStyle"`
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

// Register 创建新用户并直接返回登录令牌。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Name, a valid email and password are required")
		return
	}

	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	var existing database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		logger.Info("register conflict: user already exists")
		BadRequest(c, "User already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("register lookup failed", slog.Any("error", err))
		Internal(c)
		return
	}

	hashed, err := h.authService.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c)
		return
	}

	learningStyle := strings.TrimSpace(req.LearningStyle)
	if learningStyle == "" {
		learningStyle = defaultLearningStyle
	}
	user := database.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		PasswordHash:  hashed,
		Subjects:      datatypes.NewJSONSlice(nonNil(req.Subjects)),
		LearningStyle: learningStyle,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			BadRequest(c, "User already exists")
			return
		}
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c)
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		logger.Error("generate token failed", slog.Any("error", err))
		Internal(c)
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	c.JSON(http.StatusCreated, authResponse{User: newUserView(&user), Token: token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验口令并返回令牌。邮箱不存在与密码错误返回相同响应。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, invalidCredentialsMsg)
		return
	}

	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	// 速率限制：每 IP+邮箱 每小时 N 次；Redis 不可用时放行
	if h.redis != nil && h.loginRateLimitPerHour > 0 {
		count, err := countLoginAttempt(ctx, h.redis, loginAttemptKey(c.ClientIP(), email, h.now()))
		if err != nil {
			logger.Warn("login rate limit degraded", slog.Any("error", err))
		}
		if count > int64(h.loginRateLimitPerHour) {
			Message(c, http.StatusTooManyRequests, loginRateLimitExceeded)
			return
		}
	}

	var user database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("login failed: user not found")
			BadRequest(c, invalidCredentialsMsg)
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c)
		return
	}

	if !h.authService.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("user_id", uint64(user.ID)))
		BadRequest(c, invalidCredentialsMsg)
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		logger.Error("generate token failed", slog.Any("error", err))
		Internal(c)
		return
	}
	c.JSON(http.StatusOK, authResponse{User: newUserView(&user), Token: token})
}

// Me 返回当前用户的公开资料。
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

type updateProfileRequest struct {
	Name          string   `json:"name"`
	Subjects      []string `json:"subjects"`
	LearningStyle string   `json:"learningStyle"`
}

// UpdateMe 只更新请求中给出的非空字段。
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Subjects != nil {
		updates["subjects"] = datatypes.NewJSONSlice(req.Subjects)
	}
	if style := strings.TrimSpace(req.LearningStyle); style != "" {
		updates["learning_style"] = style
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(user).Updates(updates).Error; err != nil {
			h.loggerFromContext(c).Error("update profile failed", slog.Any("error", err))
			Internal(c)
			return
		}
		if err := h.db.WithContext(c.Request.Context()).First(user, user.ID).Error; err != nil {
			h.loggerFromContext(c).Error("reload profile failed", slog.Any("error", err))
			Internal(c)
			return
		}
	}
	c.JSON(http.StatusOK, newUserView(user))
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
