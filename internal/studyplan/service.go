// Package studyplan creates AI-assisted study plans and tracks task completion.
package studyplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"brainboost/internal/database"
	"brainboost/internal/errcode"
	"brainboost/internal/generation"
)

const (
	MinDurationDays = 1
	MaxDurationDays = 365
)

var (
	ErrPlanNotFound = errcode.Missing("Study plan not found")
	ErrTaskNotFound = errcode.Missing("Task not found")
)

// Planner produces a plan draft; implemented by *generation.Generator.
type Planner interface {
	StudyPlan(ctx context.Context, req generation.StudyPlanRequest) (generation.StudyPlanDraft, error)
}

// ChangeObserver is told whenever a user's plans change.
type ChangeObserver interface {
	PlansChanged(ctx context.Context, userID uint, correlationID string)
}

// CreateInput 是创建学习计划的请求参数。
type CreateInput struct {
	Subjects      []string
	DurationDays  int
	Goals         string
	LearningStyle string
	CorrelationID string
}

type Service struct {
	db       *gorm.DB
	planner  Planner
	observer ChangeObserver
	logger   *slog.Logger
	newID    func() (string, error)
}

func NewService(db *gorm.DB, planner Planner, observer ChangeObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		planner:  planner,
		observer: observer,
		logger:   logger,
		newID:    func() (string, error) { return gonanoid.New() },
	}
}

// Create 调用大模型生成计划（失败时回退到模板），重新分配任务 ID 后落库。
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*database.StudyPlan, error) {
	subjects := cleanSubjects(in.Subjects)
	if len(subjects) == 0 {
		return nil, errcode.Invalid("At least one subject is required")
	}
	if in.DurationDays < MinDurationDays || in.DurationDays > MaxDurationDays {
		return nil, errcode.Invalid(fmt.Sprintf("Duration must be between %d and %d days", MinDurationDays, MaxDurationDays))
	}

	draft, err := s.planner.StudyPlan(ctx, generation.StudyPlanRequest{
		Subjects:      subjects,
		DurationDays:  in.DurationDays,
		Goals:         in.Goals,
		LearningStyle: in.LearningStyle,
	})
	if err != nil {
		return nil, err
	}

	schedule, err := s.buildSchedule(draft.Schedule)
	if err != nil {
		return nil, errcode.Wrap(errcode.Internal, "assign task ids", err)
	}
	planSubjects := cleanSubjects(draft.Subjects)
	if len(planSubjects) == 0 {
		planSubjects = subjects
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = subjects[0] + " Study Plan"
	}

	plan := database.StudyPlan{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		Subjects:    datatypes.NewJSONSlice(planSubjects),
		Schedule:    datatypes.NewJSONType(schedule),
	}
	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, errcode.StoreFailed("create study plan", err)
	}
	s.notify(ctx, userID, in.CorrelationID)
	return &plan, nil
}

// buildSchedule copies the draft into stored days, giving every task a fresh id.
// Model-supplied ids are never trusted.
func (s *Service) buildSchedule(draft []generation.DraftDay) ([]database.Day, error) {
	days := make([]database.Day, 0, len(draft))
	for _, d := range draft {
		day := database.Day{Day: d.Day, Tasks: make([]database.Task, 0, len(d.Tasks))}
		for _, t := range d.Tasks {
			id, err := s.newID()
			if err != nil {
				return nil, err
			}
			day.Tasks = append(day.Tasks, database.Task{
				ID:          id,
				Subject:     t.Subject,
				Duration:    t.Duration,
				Description: t.Description,
			})
		}
		days = append(days, day)
	}
	return days, nil
}

// List 返回用户全部学习计划，最新创建的在前。
func (s *Service) List(ctx context.Context, userID uint) ([]database.StudyPlan, error) {
	plans := make([]database.StudyPlan, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&plans).Error
	if err != nil {
		return nil, errcode.StoreFailed("list study plans", err)
	}
	return plans, nil
}

// Get 查询单个计划；不存在或不属于该用户均视为不存在。
func (s *Service) Get(ctx context.Context, userID, planID uint) (*database.StudyPlan, error) {
	return s.find(ctx, s.db, userID, planID)
}

func (s *Service) find(ctx context.Context, db *gorm.DB, userID, planID uint) (*database.StudyPlan, error) {
	var plan database.StudyPlan
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, errcode.StoreFailed("load study plan", err)
	}
	return &plan, nil
}

// SetTaskCompletion 扫描所有天的所有任务，对每个匹配的任务写入 completed。
// 重复调用结果相同。
func (s *Service) SetTaskCompletion(ctx context.Context, userID, planID uint, taskID string, completed bool, correlationID string) (*database.StudyPlan, error) {
	var plan *database.StudyPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		plan, err = s.find(ctx, tx, userID, planID)
		if err != nil {
			return err
		}

		days := plan.Schedule.Data()
		if !applyCompletion(days, taskID, completed) {
			return ErrTaskNotFound
		}
		plan.Schedule = datatypes.NewJSONType(days)
		if err := tx.Model(plan).Update("schedule", plan.Schedule).Error; err != nil {
			return errcode.StoreFailed("update study plan", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, userID, correlationID)
	return plan, nil
}

// applyCompletion reports whether any task matched.
func applyCompletion(days []database.Day, taskID string, completed bool) bool {
	found := false
	for i := range days {
		for j := range days[i].Tasks {
			if days[i].Tasks[j].ID == taskID {
				days[i].Tasks[j].Completed = completed
				found = true
			}
		}
	}
	return found
}

func (s *Service) notify(ctx context.Context, userID uint, correlationID string) {
	if s.observer != nil {
		s.observer.PlansChanged(ctx, userID, correlationID)
	}
}

func cleanSubjects(in []string) []string {
	out := make([]string, 0, len(in))
	for _, subject := range in {
		if subject = strings.TrimSpace(subject); subject != "" {
			out = append(out, subject)
		}
	}
	return out
}
