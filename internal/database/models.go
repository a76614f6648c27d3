package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resource 类型标签。
const (
	ResourceTypeFlashcard = "flashcard"
	ResourceTypeNotes     = "notes"
)

// Chat 消息角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Name          string `gorm:"size:255;not null"`
	Email         string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string `gorm:"size:255;not null"`
	Subjects      datatypes.JSONSlice[string]
	LearningStyle string `gorm:"size:32"`
}

// Task 是学习计划中某一天的一项任务，ID 在计划内唯一。
type Task struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Day 表示计划中的一天。
type Day struct {
	Day   string `json:"day"`
	Tasks []Task `json:"tasks"`
}

// StudyPlan 表示用户的学习计划，Schedule 以 JSON 存储。
type StudyPlan struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	User        User   `gorm:"constraint:OnDelete:CASCADE"`
	Title       string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Subjects    datatypes.JSONSlice[string]
	Schedule    datatypes.JSONType[[]Day]
}

// Resource 表示用户的学习资料（闪卡或笔记），Content 的结构由 Type 决定。
type Resource struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	User    User   `gorm:"constraint:OnDelete:CASCADE"`
	Title   string `gorm:"size:255;index"`
	Subject string `gorm:"size:255"`
	Type    string `gorm:"size:32;index"`
	Content datatypes.JSON
}

// Chat 每个用户至多一条，清空历史时整条删除。
type Chat struct {
	ID        uint          `gorm:"primaryKey"`
	UserID    uint          `gorm:"uniqueIndex;not null"`
	User      User          `gorm:"constraint:OnDelete:CASCADE"`
	Messages  []ChatMessage `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// ChatMessage 只追加，按自增 ID 排序。
type ChatMessage struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    uint   `gorm:"index;not null"`
	Role      string `gorm:"size:16;not null"`
	Content   string `gorm:"type:text"`
	Timestamp time.Time
}

// Models lists every table managed by AutoMigrate, parents first.
func Models() []any {
	return []any{&User{}, &StudyPlan{}, &Resource{}, &Chat{}, &ChatMessage{}}
}
