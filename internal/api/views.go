package api

import (
	"time"

	"brainboost/internal/database"
	"brainboost/internal/resource"
)

type userView struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Subjects      []string  `json:"subjects"`
	LearningStyle string    `json:"learningStyle"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserView(u *database.User) userView {
	return userView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Subjects:      nonNil(u.Subjects),
		LearningStyle: u.LearningStyle,
		CreatedAt:     u.CreatedAt,
	}
}

type studyPlanView struct {
	ID          uint           `json:"id"`
	UserID      uint           `json:"userId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Subjects    []string       `json:"subjects"`
	Schedule    []database.Day `json:"schedule"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func newStudyPlanView(p *database.StudyPlan) studyPlanView {
	schedule := p.Schedule.Data()
	if schedule == nil {
		schedule = []database.Day{}
	}
	for i := range schedule {
		if schedule[i].Tasks == nil {
			schedule[i].Tasks = []database.Task{}
		}
	}
	return studyPlanView{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		Subjects:    nonNil(p.Subjects),
		Schedule:    schedule,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type resourceView struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Type      string    `json:"type"`
	Content   any       `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newResourceView(r *database.Resource) (resourceView, error) {
	content, err := resource.Decode(*r)
	if err != nil {
		return resourceView{}, err
	}
	return resourceView{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Subject:   r.Subject,
		Type:      r.Type,
		Content:   content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

type chatMessageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
