package service

import (
	"fmt"
	"strings"

	"project-tracker/internal/domain"
)

const (
	maxSummaryDescriptionLength = 50
	summaryUnavailable          = "Changes summary unavailable"
)

// ActionDescription renders a human-readable sentence for an action on an
// entity kind, e.g. "Created a new task".
func ActionDescription(actionType domain.ActionType, entityType string) string {
	entity := strings.ToLower(entityType)

	switch actionType {
	case domain.ActionCreate:
		return fmt.Sprintf("Created a new %s", entity)
	case domain.ActionUpdate:
		return fmt.Sprintf("Updated %s", entity)
	case domain.ActionDelete:
		return fmt.Sprintf("Deleted %s", entity)
	default:
		return fmt.Sprintf("%s %s", strings.ToLower(string(actionType)), entity)
	}
}

// ChangesSummary describes the well-known fields of a payload. It is cosmetic
// and does not diff against earlier records. A null description makes the
// summary unavailable.
func ChangesSummary(payload domain.Payload) string {
	if len(payload) == 0 {
		return "No changes recorded"
	}

	var parts []string
	if v, ok := payload["name"]; ok {
		parts = append(parts, "Name: "+summaryValue(v))
	}
	if v, ok := payload["status"]; ok {
		parts = append(parts, "Status: "+summaryValue(v))
	}
	if v, ok := payload["description"]; ok {
		if v == nil {
			return summaryUnavailable
		}
		parts = append(parts, "Description: "+truncate(summaryValue(v), maxSummaryDescriptionLength))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Entity modified with %d field(s) changed", len(payload))
	}
	return strings.Join(parts, "; ")
}

// ToView projects a stored record into its API representation.
func ToView(record domain.AuditRecord) domain.AuditRecordView {
	payload := record.Payload
	if payload == nil {
		payload = domain.Payload{}
	}

	return domain.AuditRecordView{
		ID:                 record.ID,
		ActionType:         record.ActionType,
		ActionDescription:  ActionDescription(record.ActionType, record.EntityType),
		EntityType:         record.EntityType,
		EntityID:           record.EntityID,
		Timestamp:          record.Timestamp,
		FormattedTimestamp: record.Timestamp.Format(domain.TimestampLayout),
		ActorName:          record.ActorName,
		Payload:            payload,
		ChangesSummary:     ChangesSummary(payload),
	}
}

func summaryValue(v interface{}) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
