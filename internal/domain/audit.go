package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ActionType is the closed set of mutations recorded in the audit trail.
type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
)

// Entity type labels used by the domain services.
const (
	EntityProject   = "Project"
	EntityDeveloper = "Developer"
	EntityTask      = "Task"
)

// Reserved payload keys.
const (
	PayloadEntityClass = "_entityClass"
	PayloadCaptureTime = "_captureTime"
	PayloadError       = "_error"

	SerializationFailureMessage = "Failed to serialize entity"
)

// TimestampLayout renders audit timestamps as yyyy-MM-dd HH:mm:ss.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	ErrInvalidActionType  = errors.New("invalid action type")
	ErrInvalidAuditRecord = errors.New("invalid audit record")
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func (a ActionType) String() string {
	return string(a)
}

// ParseActionType accepts any casing of CREATE, UPDATE or DELETE.
func ParseActionType(raw string) (ActionType, error) {
	a := ActionType(normalize(raw))
	if !a.Valid() {
		return "", ErrInvalidActionType
	}
	return a, nil
}

// Payload is a schema-less snapshot of an entity at audit time.
type Payload map[string]interface{}

// AuditRecord is written once and never updated.
type AuditRecord struct {
	ID         string     `json:"id"`
	ActionType ActionType `json:"action_type"`
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	ActorName  string     `json:"actor_name"`
	Timestamp  time.Time  `json:"timestamp"`
	Payload    Payload    `json:"payload"`
}

// AuditRecordView is the read projection returned to API callers.
type AuditRecordView struct {
	ID                 string     `json:"id"`
	ActionType         ActionType `json:"action_type"`
	ActionDescription  string     `json:"action_description"`
	EntityType         string     `json:"entity_type"`
	EntityID           string     `json:"entity_id"`
	Timestamp          time.Time  `json:"timestamp"`
	FormattedTimestamp string     `json:"formatted_timestamp"`
	ActorName          string     `json:"actor_name"`
	Payload            Payload    `json:"payload"`
	ChangesSummary     string     `json:"changes_summary"`
}

// AuditError reports a failed read or write against the audit store.
type AuditError struct {
	Op  string
	Err error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit %s failed: %v", e.Op, e.Err)
}

func (e *AuditError) Unwrap() error {
	return e.Err
}

func NewAuditError(op string, err error) *AuditError {
	return &AuditError{Op: op, Err: err}
}

// Sortable audit fields, keyed by their API name.
var auditSortFields = map[string]struct{}{
	"timestamp":  {},
	"actionType": {},
	"entityType": {},
	"entityId":   {},
	"actorName":  {},
}

// AuditSortField returns the canonical sort field, falling back to timestamp.
func AuditSortField(field string) string {
	for name := range auditSortFields {
		if strings.EqualFold(name, field) {
			return name
		}
	}
	return "timestamp"
}
