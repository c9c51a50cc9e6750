package domain

import (
	"errors"
	"time"
)

const (
	maxProjectNameLength        = 100
	maxProjectDescriptionLength = 1000
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectNameExists    = errors.New("project with this name already exists")
	ErrInvalidProjectName   = errors.New("invalid project name")
	ErrInvalidProjectStatus = errors.New("invalid project status")
	ErrInvalidDescription   = errors.New("description is too long")
)

// Project status constants
const (
	ProjectStatusPlanning  = "PLANNING"
	ProjectStatusActive    = "ACTIVE"
	ProjectStatusOnHold    = "ON_HOLD"
	ProjectStatusCompleted = "COMPLETED"
	ProjectStatusCancelled = "CANCELLED"
)

func ValidProjectStatuses() []string {
	return []string{ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled}
}

type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      string     `json:"status"`
	TaskCount   int64      `json:"task_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOverdue reports whether the deadline has passed for an unfinished project.
func (p *Project) IsOverdue(now time.Time) bool {
	return p.Deadline != nil && p.Deadline.Before(Today(now)) && p.Status != ProjectStatusCompleted
}

type CreateProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
}

type UpdateProjectRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

func ValidateProjectName(name string) error {
	if name == "" || len(name) > maxProjectNameLength {
		return ErrInvalidProjectName
	}
	return nil
}

// ParseProjectStatus accepts any casing and returns the canonical status.
func ParseProjectStatus(status string) (string, error) {
	s := normalize(status)
	for _, valid := range ValidProjectStatuses() {
		if s == valid {
			return s, nil
		}
	}
	return "", ErrInvalidProjectStatus
}

func ValidateDescription(description string) error {
	if len(description) > maxProjectDescriptionLength {
		return ErrInvalidDescription
	}
	return nil
}
