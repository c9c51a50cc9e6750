package service

import (
	"context"

	"project-tracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

type AuditRecorder interface {
	Record(ctx context.Context, actionType domain.ActionType, entityType, entityID, actorName string, snapshot interface{}) (*domain.AuditRecord, error)
}

// auditTrail appends audit records for entity mutations that have already
// been committed. A failed audit write is logged and the mutation stands.
type auditTrail struct {
	recorder AuditRecorder
}

func (t auditTrail) record(ctx context.Context, actionType domain.ActionType, entityType, entityID string, snapshot interface{}) {
	if t.recorder == nil {
		return
	}

	actor := ActorFromContext(ctx)
	if _, err := t.recorder.Record(ctx, actionType, entityType, entityID, actor, snapshot); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"action_type": actionType,
			"entity_type": entityType,
			"entity_id":   entityID,
			"actor":       actor,
		}).Error("Mutation committed without audit record")
	}
}
