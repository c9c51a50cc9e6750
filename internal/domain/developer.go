package domain

import (
	"errors"
	"regexp"
	"time"
)

const maxDeveloperNameLength = 100

var (
	ErrDeveloperNotFound    = errors.New("developer not found")
	ErrDeveloperEmailExists = errors.New("developer with this email already exists")
	ErrInvalidDeveloperName = errors.New("invalid developer name")
	ErrInvalidEmail         = errors.New("invalid email format")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type Developer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Skills    string    `json:"skills,omitempty"`
	TaskCount int64     `json:"task_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateDeveloperRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Skills string `json:"skills"`
}

type UpdateDeveloperRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Skills *string `json:"skills,omitempty"`
}

func ValidateDeveloperName(name string) error {
	if name == "" || len(name) > maxDeveloperNameLength {
		return ErrInvalidDeveloperName
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}
