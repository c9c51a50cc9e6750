package domain

import (
	"errors"
	"time"
)

const maxTaskTitleLength = 200

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidTaskTitle    = errors.New("invalid task title")
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrTaskNotAssigned     = errors.New("task is not assigned to a developer")
	ErrTaskAlreadyAssigned = errors.New("task is already assigned to this developer")
)

// Task status constants
const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusCompleted  = "COMPLETED"
	TaskStatusBlocked    = "BLOCKED"
)

func ValidTaskStatuses() []string {
	return []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked}
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   string     `json:"project_id"`
	DeveloperID *string    `json:"developer_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	ProjectID   string     `json:"project_id"`
	DeveloperID *string    `json:"developer_id"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TaskStats aggregates task counts per status.
type TaskStats struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Blocked    int64 `json:"blocked"`
}

// Add folds count tasks of the given status into the stats.
func (s *TaskStats) Add(status string, count int64) {
	s.Total += count
	switch status {
	case TaskStatusCompleted:
		s.Completed += count
	case TaskStatusTodo:
		s.Pending += count
	case TaskStatusInProgress:
		s.InProgress += count
	case TaskStatusBlocked:
		s.Blocked += count
	}
}

func ValidateTaskTitle(title string) error {
	if title == "" || len(title) > maxTaskTitleLength {
		return ErrInvalidTaskTitle
	}
	return nil
}

func ParseTaskStatus(status string) (string, error) {
	s := normalize(status)
	for _, valid := range ValidTaskStatuses() {
		if s == valid {
			return s, nil
		}
	}
	return "", ErrInvalidTaskStatus
}
