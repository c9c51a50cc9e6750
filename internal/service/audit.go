package service

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"project-tracker/internal/domain"
	"project-tracker/internal/metrics"

	log "github.com/sirupsen/logrus"
)

const defaultNotifyTimeout = 10 * time.Second

type AuditRepository interface {
	Insert(ctx context.Context, record *domain.AuditRecord) error
	FindByEntity(ctx context.Context, entityType, entityID string, page domain.PageRequest) (domain.Page[domain.AuditRecord], error)
	FindByActor(ctx context.Context, actorName string, page domain.PageRequest) (domain.Page[domain.AuditRecord], error)
	FindByActionType(ctx context.Context, actionType domain.ActionType, page domain.PageRequest) (domain.Page[domain.AuditRecord], error)
	FindByTimestampBetween(ctx context.Context, start, end time.Time, page domain.PageRequest) (domain.Page[domain.AuditRecord], error)
	FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.AuditRecord], error)
	CountByEntityType(ctx context.Context, entityType string) (int64, error)
	CountByActionType(ctx context.Context, actionType domain.ActionType) (int64, error)
	CountByActor(ctx context.Context, actorName string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditNotifier forwards persisted records to downstream consumers.
type AuditNotifier interface {
	Publish(ctx context.Context, record domain.AuditRecord) error
}

// AuditService is the only writer of audit records and answers every
// audit-trail query.
type AuditService struct {
	repo          AuditRepository
	notifier      AuditNotifier
	notifyTimeout time.Duration
	now           func() time.Time

	inflight sync.WaitGroup
}

func NewAuditService(repo AuditRepository, notifier AuditNotifier, notifyTimeout time.Duration) *AuditService {
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &AuditService{
		repo:          repo,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

// Record persists one audit record for a mutation that has already
// succeeded, then notifies downstream consumers in the background.
// Serialization problems degrade the payload; only store failures are
// returned, as *domain.AuditError.
func (s *AuditService) Record(ctx context.Context, actionType domain.ActionType, entityType, entityID, actorName string, snapshot interface{}) (*domain.AuditRecord, error) {
	if !actionType.Valid() {
		return nil, domain.NewAuditError("record", fmt.Errorf("%w: %w", domain.ErrInvalidAuditRecord, domain.ErrInvalidActionType))
	}
	if strings.TrimSpace(entityType) == "" {
		return nil, domain.NewAuditError("record", fmt.Errorf("%w: entity type is required", domain.ErrInvalidAuditRecord))
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	record := &domain.AuditRecord{
		ActionType: actionType,
		EntityType: entityType,
		EntityID:   entityID,
		ActorName:  actorName,
		Timestamp:  now,
		Payload:    buildPayload(snapshot, now),
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		metrics.AuditRecordsFailed.Inc()
		log.WithError(err).WithFields(log.Fields{
			"action_type": actionType,
			"entity_type": entityType,
			"entity_id":   entityID,
			"actor":       actorName,
		}).Error("Failed to create audit record")
		return nil, domain.NewAuditError("record", err)
	}

	metrics.AuditRecordsTotal.WithLabelValues(string(actionType)).Inc()
	log.WithFields(log.Fields{
		"audit_id":    record.ID,
		"action_type": actionType,
		"entity_type": entityType,
		"entity_id":   entityID,
		"actor":       actorName,
	}).Info("Audit record created")

	s.notify(ctx, *record)

	return record, nil
}

func (s *AuditService) notify(ctx context.Context, record domain.AuditRecord) {
	if s.notifier == nil {
		return
	}

	record.Payload = maps.Clone(record.Payload)
	ctx = context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.AuditNotificationsFailed.Inc()
				log.WithField("audit_id", record.ID).Errorf("Audit notifier panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()

		if err := s.notifier.Publish(ctx, record); err != nil {
			metrics.AuditNotificationsFailed.Inc()
			log.WithError(err).WithField("audit_id", record.ID).Error("Failed to publish audit event")
			return
		}
		log.WithField("audit_id", record.ID).Debug("Audit event published")
	}()
}

// Close waits for in-flight notifications.
func (s *AuditService) Close() {
	s.inflight.Wait()
}

func (s *AuditService) GetTrailForEntity(ctx context.Context, entityType, entityID string, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error) {
	page.SortBy = domain.AuditSortField(page.SortBy)

	records, err := s.repo.FindByEntity(ctx, entityType, entityID, page)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"entity_type": entityType,
			"entity_id":   entityID,
		}).Error("Failed to retrieve audit trail")
		return domain.Page[domain.AuditRecordView]{}, domain.NewAuditError("get trail for entity", err)
	}
	return domain.MapPage(records, ToView), nil
}

func (s *AuditService) GetActionsByActor(ctx context.Context, actorName string, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error) {
	page.SortBy = "timestamp"
	page.SortDir = domain.SortDesc

	records, err := s.repo.FindByActor(ctx, actorName, page)
	if err != nil {
		log.WithError(err).WithField("actor", actorName).Error("Failed to retrieve actor actions")
		return domain.Page[domain.AuditRecordView]{}, domain.NewAuditError("get actions by actor", err)
	}
	return domain.MapPage(records, ToView), nil
}

func (s *AuditService) GetActionsByType(ctx context.Context, actionType domain.ActionType, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error) {
	if !actionType.Valid() {
		return domain.Page[domain.AuditRecordView]{}, domain.ErrInvalidActionType
	}
	page.SortBy = domain.AuditSortField(page.SortBy)

	records, err := s.repo.FindByActionType(ctx, actionType, page)
	if err != nil {
		log.WithError(err).WithField("action_type", actionType).Error("Failed to retrieve actions by type")
		return domain.Page[domain.AuditRecordView]{}, domain.NewAuditError("get actions by type", err)
	}
	return domain.MapPage(records, ToView), nil
}

// GetByDateRange returns records with start <= timestamp <= end.
func (s *AuditService) GetByDateRange(ctx context.Context, start, end time.Time, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error) {
	if start.After(end) {
		return domain.Page[domain.AuditRecordView]{}, domain.ErrInvalidDateRange
	}
	page.SortBy = domain.AuditSortField(page.SortBy)

	records, err := s.repo.FindByTimestampBetween(ctx, start, end, page)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"start": start,
			"end":   end,
		}).Error("Failed to retrieve audits by date range")
		return domain.Page[domain.AuditRecordView]{}, domain.NewAuditError("get by date range", err)
	}
	return domain.MapPage(records, ToView), nil
}

func (s *AuditService) GetAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error) {
	page.SortBy = "timestamp"
	page.SortDir = domain.SortDesc

	records, err := s.repo.FindAll(ctx, page)
	if err != nil {
		log.WithError(err).Error("Failed to retrieve all audits")
		return domain.Page[domain.AuditRecordView]{}, domain.NewAuditError("get all", err)
	}
	return domain.MapPage(records, ToView), nil
}

func (s *AuditService) CountByEntityType(ctx context.Context, entityType string) (int64, error) {
	count, err := s.repo.CountByEntityType(ctx, entityType)
	if err != nil {
		log.WithError(err).WithField("entity_type", entityType).Error("Failed to count audits by entity type")
		return 0, domain.NewAuditError("count by entity type", err)
	}
	return count, nil
}

func (s *AuditService) CountByActionType(ctx context.Context, actionType domain.ActionType) (int64, error) {
	if !actionType.Valid() {
		return 0, domain.ErrInvalidActionType
	}
	count, err := s.repo.CountByActionType(ctx, actionType)
	if err != nil {
		log.WithError(err).WithField("action_type", actionType).Error("Failed to count audits by action type")
		return 0, domain.NewAuditError("count by action type", err)
	}
	return count, nil
}

func (s *AuditService) CountByActor(ctx context.Context, actorName string) (int64, error) {
	count, err := s.repo.CountByActor(ctx, actorName)
	if err != nil {
		log.WithError(err).WithField("actor", actorName).Error("Failed to count audits by actor")
		return 0, domain.NewAuditError("count by actor", err)
	}
	return count, nil
}

// CleanupOlderThan deletes every record with timestamp < cutoff and returns
// how many were removed. It is not reversible.
func (s *AuditService) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.WithError(err).WithField("cutoff", cutoff).Error("Failed to cleanup old audits")
		return 0, domain.NewAuditError("cleanup", err)
	}

	metrics.AuditRecordsDeleted.Add(float64(deleted))
	log.WithFields(log.Fields{
		"deleted": deleted,
		"cutoff":  cutoff,
	}).Info("Cleaned up old audit records")
	return deleted, nil
}
