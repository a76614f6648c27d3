package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brainboost/internal/database"
	"brainboost/internal/resource"
)

// ResourceHandler 处理闪卡、笔记与导出。
type ResourceHandler struct {
	resources *resource.Service
}

func NewResourceHandler(resources *resource.Service) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

type upsertFlashcardsRequest struct {
	Title      string               `json:"title"`
	Subject    string               `json:"subject"`
	Flashcards []resource.Flashcard `json:"flashcards"`
}

// UpsertFlashcards 保存闪卡，同名同学科的卡组会被覆盖。
func (h *ResourceHandler) UpsertFlashcards(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req upsertFlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}
	res, err := h.resources.UpsertFlashcards(c.Request.Context(), user.ID, req.Title, req.Subject, req.Flashcards)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.respondResource(c, http.StatusCreated, res)
}

// List 返回当前用户的全部资料。
func (h *ResourceHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	resources, err := h.resources.List(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]resourceView, 0, len(resources))
	for i := range resources {
		view, err := newResourceView(&resources[i])
		if err != nil {
			RespondError(c, err)
			return
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, out)
}

// GenerateFlashcards 生成闪卡内容但不保存。
func (h *ResourceHandler) GenerateFlashcards(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}
	set, err := h.resources.GenerateFlashcards(c.Request.Context(), resource.TopicInput{
		Subject:       req.Subject,
		Topic:         req.Topic,
		LearningStyle: user.LearningStyle,
		Count:         req.Count,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// GenerateNotes 生成笔记并保存为新资料。
func (h *ResourceHandler) GenerateNotes(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}
	res, notes, err := h.resources.GenerateNotes(c.Request.Context(), user.ID, resource.TopicInput{
		Subject:       req.Subject,
		Topic:         req.Topic,
		LearningStyle: user.LearningStyle,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	view, err := newResourceView(res)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource": view, "notes": notes})
}

// Export 上传资料文件并返回 15 分钟有效的下载链接。
func (h *ResourceHandler) Export(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	resourceID, ok := parseID(c.Param("id"))
	if !ok {
		RespondError(c, resource.ErrResourceNotFound)
		return
	}
	url, err := h.resources.Export(c.Request.Context(), user.ID, resourceID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *ResourceHandler) respondResource(c *gin.Context, status int, res *database.Resource) {
	view, err := newResourceView(res)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(status, view)
}
