package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"brainboost/internal/api/middleware"
	"brainboost/internal/studyplan"
)

// StudyPlanHandler 处理学习计划的创建、查询与任务勾选。
type StudyPlanHandler struct {
	plans *studyplan.Service
}

func NewStudyPlanHandler(plans *studyplan.Service) *StudyPlanHandler {
	return &StudyPlanHandler{plans: plans}
}

type createStudyPlanRequest struct {
	Subjects []string `json:"subjects"`
	Duration int      `json:"duration"`
	Goals    string   `json:"goals"`
}

// Create 生成并保存一份学习计划。
func (h *StudyPlanHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createStudyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	plan, err := h.plans.Create(c.Request.Context(), user.ID, studyplan.CreateInput{
		Subjects:      req.Subjects,
		DurationDays:  req.Duration,
		Goals:         req.Goals,
		LearningStyle: user.LearningStyle,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newStudyPlanView(plan))
}

// List 返回当前用户的全部学习计划。
func (h *StudyPlanHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	plans, err := h.plans.List(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]studyPlanView, 0, len(plans))
	for i := range plans {
		out = append(out, newStudyPlanView(&plans[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get 返回单个学习计划。
func (h *StudyPlanHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := parseID(c.Param("id"))
	if !ok {
		RespondError(c, studyplan.ErrPlanNotFound)
		return
	}
	plan, err := h.plans.Get(c.Request.Context(), user.ID, planID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStudyPlanView(plan))
}

type setTaskCompletionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// SetTaskCompletion 设置任务完成状态，重复调用结果不变。
func (h *StudyPlanHandler) SetTaskCompletion(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := parseID(c.Param("id"))
	if !ok {
		RespondError(c, studyplan.ErrPlanNotFound)
		return
	}
	var req setTaskCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "completed is required")
		return
	}

	plan, err := h.plans.SetTaskCompletion(c.Request.Context(), user.ID, planID, c.Param("taskId"), *req.Completed,
		middleware.GetCorrelationID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStudyPlanView(plan))
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
