package models

import "time"

type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusOnHold      TaskStatus = "onHold"
	TaskStatusInProgress  TaskStatus = "inProgress"
	TaskStatusUnderReview TaskStatus = "underReview"
	TaskStatusCompleted   TaskStatus = "completed"
)

// TaskStatuses lists every accepted status, in workflow order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusOnHold,
	TaskStatusInProgress,
	TaskStatusUnderReview,
	TaskStatusCompleted,
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Task struct {
	ID          string         `json:"_id"`
	ProjectID   string         `json:"project"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status"`
	CompletedBy []StatusChange `json:"completedBy,omitempty"`
	Notes       []Note         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// StatusChange is one entry of a task's status history.
type StatusChange struct {
	User      UserSummary `json:"user"`
	Status    TaskStatus  `json:"status"`
	ChangedAt time.Time   `json:"changedAt"`
}
