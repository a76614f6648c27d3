package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"brainboost/internal/generation"
)

// TopicGenerator is the subset of *generation.Generator served directly over HTTP.
type TopicGenerator interface {
	Explanation(ctx context.Context, req generation.TopicRequest) (string, error)
	Questions(ctx context.Context, req generation.TopicRequest) (generation.QuestionSet, error)
}

// GenerationHandler 提供讲解与练习题生成接口，结果不落库。
type GenerationHandler struct {
	generator TopicGenerator
}

func NewGenerationHandler(generator TopicGenerator) *GenerationHandler {
	return &GenerationHandler{generator: generator}
}

type topicRequest struct {
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

func (r topicRequest) valid() bool {
	return strings.TrimSpace(r.Subject) != "" && strings.TrimSpace(r.Topic) != ""
}

func (h *GenerationHandler) Explanation(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		BadRequest(c, "Subject and topic are required")
		return
	}
	explanation, err := h.generator.Explanation(c.Request.Context(), generation.TopicRequest{
		Subject:       req.Subject,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		LearningStyle: user.LearningStyle,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}

func (h *GenerationHandler) Questions(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		BadRequest(c, "Subject and topic are required")
		return
	}
	set, err := h.generator.Questions(c.Request.Context(), generation.TopicRequest{
		Subject:       req.Subject,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		LearningStyle: user.LearningStyle,
		Count:         req.Count,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}
