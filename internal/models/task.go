package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// DefaultTaskReminderDays is the lead time used when a task is created without one.
const DefaultTaskReminderDays = 3

type Task struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	FileID       *uint           `gorm:"index" json:"file_id,omitempty"`
	AssignedTo   *uint           `gorm:"index" json:"assigned_to,omitempty"`
	Priority     TaskPriority    `gorm:"type:varchar(10);not null;default:medium" json:"priority"`
	Status       TaskStatus      `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	DueDate      *datatypes.Date `gorm:"index" json:"due_date,omitempty"`
	ReminderDays *int            `gorm:"default:3" json:"reminder_days,omitempty"`
	CreatedBy    *uint           `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

type CreateTaskRequest struct {
	Title        string       `json:"title" binding:"required,max=255"`
	Description  string       `json:"description"`
	FileID       *uint        `json:"file_id"`
	AssignedTo   uint         `json:"assigned_to" binding:"required"`
	Priority     TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate      string       `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	ReminderDays *int         `json:"reminder_days" binding:"omitempty,gte=0,lte=365"`
}

type UpdateTaskRequest struct {
	Title        string       `json:"title" binding:"required,max=255"`
	Description  string       `json:"description"`
	FileID       *uint        `json:"file_id"`
	AssignedTo   *uint        `json:"assigned_to"`
	Priority     TaskPriority `json:"priority" binding:"required,oneof=low medium high"`
	Status       TaskStatus   `json:"status" binding:"required,oneof=pending in_progress completed cancelled"`
	DueDate      string       `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	ReminderDays *int         `json:"reminder_days" binding:"omitempty,gte=0,lte=365"`
}

// TaskView is a task joined with display names.
type TaskView struct {
	Task
	FileDebtor     string   `json:"file_debtor,omitempty"`
	FileAmount     *float64 `json:"file_amount,omitempty"`
	AssignedToName string   `json:"assigned_to_name,omitempty"`
	CreatedByName  string   `json:"created_by_name,omitempty"`
}
