package repository

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"project-tracker/internal/domain"

	"github.com/google/uuid"
)

// InMemoryAuditRepository keeps audit records in process memory.
type InMemoryAuditRepository struct {
	mu      sync.RWMutex
	records []domain.AuditRecord
}

func NewInMemoryAuditRepository() *InMemoryAuditRepository {
	return &InMemoryAuditRepository{}
}

func (r *InMemoryAuditRepository) Insert(ctx context.Context, record *domain.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.ID = uuid.NewString()
	stored := *record
	stored.Payload = maps.Clone(record.Payload)
	if stored.Payload == nil {
		stored.Payload = domain.Payload{}
	}
	r.records = append(r.records, stored)
	return nil
}

func (r *InMemoryAuditRepository) FindByEntity(ctx context.Context, entityType, entityID string, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(func(rec domain.AuditRecord) bool {
		return rec.EntityType == entityType && rec.EntityID == entityID
	}, page), nil
}

func (r *InMemoryAuditRepository) FindByActor(ctx context.Context, actorName string, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(func(rec domain.AuditRecord) bool {
		return rec.ActorName == actorName
	}, page), nil
}

func (r *InMemoryAuditRepository) FindByActionType(ctx context.Context, actionType domain.ActionType, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(func(rec domain.AuditRecord) bool {
		return rec.ActionType == actionType
	}, page), nil
}

func (r *InMemoryAuditRepository) FindByTimestampBetween(ctx context.Context, start, end time.Time, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(func(rec domain.AuditRecord) bool {
		return !rec.Timestamp.Before(start) && !rec.Timestamp.After(end)
	}, page), nil
}

func (r *InMemoryAuditRepository) FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return r.findPage(func(domain.AuditRecord) bool { return true }, page), nil
}

func (r *InMemoryAuditRepository) CountByEntityType(ctx context.Context, entityType string) (int64, error) {
	return r.count(func(rec domain.AuditRecord) bool { return rec.EntityType == entityType }), nil
}

func (r *InMemoryAuditRepository) CountByActionType(ctx context.Context, actionType domain.ActionType) (int64, error) {
	return r.count(func(rec domain.AuditRecord) bool { return rec.ActionType == actionType }), nil
}

func (r *InMemoryAuditRepository) CountByActor(ctx context.Context, actorName string) (int64, error) {
	return r.count(func(rec domain.AuditRecord) bool { return rec.ActorName == actorName }), nil
}

func (r *InMemoryAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if rec.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

func (r *InMemoryAuditRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *InMemoryAuditRepository) findPage(match func(domain.AuditRecord) bool, page domain.PageRequest) domain.Page[domain.AuditRecord] {
	r.mu.RLock()
	matched := make([]domain.AuditRecord, 0)
	for _, rec := range r.records {
		if match(rec) {
			rec.Payload = maps.Clone(rec.Payload)
			matched = append(matched, rec)
		}
	}
	r.mu.RUnlock()

	field := domain.AuditSortField(page.SortBy)
	slices.SortStableFunc(matched, func(a, b domain.AuditRecord) int {
		c := compareAuditField(a, b, field)
		if page.SortDir == domain.SortAsc {
			return c
		}
		return -c
	})

	return domain.Paginate(matched, page)
}

func (r *InMemoryAuditRepository) count(match func(domain.AuditRecord) bool) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, rec := range r.records {
		if match(rec) {
			n++
		}
	}
	return n
}

func compareAuditField(a, b domain.AuditRecord, field string) int {
	switch field {
	case "actionType":
		return strings.Compare(string(a.ActionType), string(b.ActionType))
	case "entityType":
		return strings.Compare(a.EntityType, b.EntityType)
	case "entityId":
		return strings.Compare(a.EntityID, b.EntityID)
	case "actorName":
		return strings.Compare(a.ActorName, b.ActorName)
	default:
		return a.Timestamp.Compare(b.Timestamp)
	}
}
