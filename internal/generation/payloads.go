package generation

import (
	"fmt"
	"strings"
)

// StudyPlanDraft is the JSON shape requested from the model for a study plan.
type StudyPlanDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Subjects    []string   `json:"subjects"`
	Schedule    []DraftDay `json:"schedule"`
}

type DraftDay struct {
	Day   string      `json:"day"`
	Tasks []DraftTask `json:"tasks"`
}

type DraftTask struct {
	Subject     string `json:"subject"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

// Question is one multiple-choice practice question.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type QuestionSet struct {
	Questions []Question `json:"questions"`
}

// Flashcard is a front/back pair.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
}

const (
	defaultTaskMinutes = 60
	defaultCount       = 5
	defaultDifficulty  = "medium"
)

func validStudyPlan(d StudyPlanDraft) bool {
	if len(d.Schedule) == 0 {
		return false
	}
	for _, day := range d.Schedule {
		for _, task := range day.Tasks {
			if task.Duration < 0 {
				return false
			}
		}
	}
	return true
}

func validQuestions(q QuestionSet) bool { return len(q.Questions) > 0 }

func validFlashcards(f FlashcardSet) bool { return len(f.Flashcards) > 0 }

// FallbackStudyPlan is the deterministic plan used when the model output is unusable:
// durationDays days, each holding one 60 minute task per subject.
func FallbackStudyPlan(subjects []string, durationDays int) StudyPlanDraft {
	title := "Study Plan"
	if len(subjects) > 0 {
		title = subjects[0] + " Study Plan"
	}
	schedule := make([]DraftDay, 0, durationDays)
	for i := 0; i < durationDays; i++ {
		tasks := make([]DraftTask, 0, len(subjects))
		for _, subject := range subjects {
			tasks = append(tasks, DraftTask{
				Subject:     subject,
				Duration:    defaultTaskMinutes,
				Description: fmt.Sprintf("Study %s fundamentals", subject),
			})
		}
		schedule = append(schedule, DraftDay{Day: fmt.Sprintf("Day %d", i+1), Tasks: tasks})
	}
	return StudyPlanDraft{
		Title:       title,
		Description: "A personalized study plan for " + strings.Join(subjects, ", "),
		Subjects:    append([]string(nil), subjects...),
		Schedule:    schedule,
	}
}

// FallbackQuestions is a single placeholder question about topic.
func FallbackQuestions(subject, topic string) QuestionSet {
	return QuestionSet{Questions: []Question{{
		Question:      fmt.Sprintf("Sample question about %s in %s", topic, subject),
		Options:       []string{"Option A", "Option B", "Option C", "Option D"},
		CorrectAnswer: "Option B",
		Explanation:   "This is a placeholder explanation.",
	}}}
}

// FallbackFlashcards is a single placeholder card about topic.
func FallbackFlashcards(subject, topic string) FlashcardSet {
	return FlashcardSet{Flashcards: []Flashcard{{
		Front: fmt.Sprintf("What is %s?", topic),
		Back:  fmt.Sprintf("This is a placeholder definition for %s in %s.", topic, subject),
	}}}
}
