// Package analytics aggregates study-plan task durations into summary statistics.
package analytics

import (
	"brainboost/internal/database"
)

// StudyTime 汇总用户所有学习计划中的任务时长（分钟）。
type StudyTime struct {
	TotalPlannedTime    int            `json:"totalPlannedTime"`
	TotalCompletedTime  int            `json:"totalCompletedTime"`
	CompletionRate      float64        `json:"completionRate"`
	SubjectDistribution map[string]int `json:"subjectDistribution"`
}

// Aggregate walks every task of every plan. SubjectDistribution is never nil.
func Aggregate(plans []database.StudyPlan) StudyTime {
	out := StudyTime{SubjectDistribution: map[string]int{}}
	for _, plan := range plans {
		for _, day := range plan.Schedule.Data() {
			for _, task := range day.Tasks {
				out.TotalPlannedTime += task.Duration
				if task.Completed {
					out.TotalCompletedTime += task.Duration
				}
				out.SubjectDistribution[task.Subject] += task.Duration
			}
		}
	}
	if out.TotalPlannedTime > 0 {
		out.CompletionRate = float64(out.TotalCompletedTime) / float64(out.TotalPlannedTime) * 100
	}
	return out
}
