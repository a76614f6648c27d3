package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brainboost/internal/analytics"
)

type AnalyticsHandler struct {
	analytics *analytics.Service
}

func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc}
}

// StudyTime 返回计划学习时长、完成时长、完成率与各学科分布。
func (h *AnalyticsHandler) StudyTime(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	st, err := h.analytics.StudyTime(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
