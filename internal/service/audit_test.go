package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"project-tracker/internal/domain"
	"project-tracker/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu      sync.Mutex
	records []domain.AuditRecord
	err     error
}

func (n *fakeNotifier) Publish(ctx context.Context, record domain.AuditRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, record)
	return n.err
}

func (n *fakeNotifier) published() []domain.AuditRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.AuditRecord(nil), n.records...)
}

type failingAuditRepository struct {
	*repository.InMemoryAuditRepository
	err error
}

func (r *failingAuditRepository) Insert(ctx context.Context, record *domain.AuditRecord) error {
	return r.err
}

func (r *failingAuditRepository) FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.AuditRecord], error) {
	return domain.Page[domain.AuditRecord]{}, r.err
}

type unencodable struct {
	Name string
	Ch   chan int
}

func newTestAuditService(t *testing.T, clock *time.Time) (*AuditService, *repository.InMemoryAuditRepository, *fakeNotifier) {
	t.Helper()

	repo := repository.NewInMemoryAuditRepository()
	notifier := &fakeNotifier{}
	svc := NewAuditService(repo, notifier, time.Second)
	svc.now = func() time.Time { return *clock }
	t.Cleanup(svc.Close)
	return svc, repo, notifier
}

func TestAuditServiceRecordTask(t *testing.T) {
	clock := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, _, notifier := newTestAuditService(t, &clock)
	ctx := context.Background()

	task := domain.Task{ID: "t1", Title: "Fix bug", Status: domain.TaskStatusTodo}
	record, err := svc.Record(ctx, domain.ActionCreate, domain.EntityTask, "t1", "alice", task)
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)

	assert.Equal(t, "Fix bug", record.Payload["title"])
	assert.Equal(t, "TODO", record.Payload["status"])
	assert.Equal(t, "Task", record.Payload[domain.PayloadEntityClass])
	assert.Equal(t, clock, record.Payload[domain.PayloadCaptureTime])
	assert.Equal(t, clock, record.Timestamp)

	trail, err := svc.GetTrailForEntity(ctx, domain.EntityTask, "t1", domain.NewPageRequest(0, 20, "", ""))
	require.NoError(t, err)
	require.Len(t, trail.Content, 1)

	view := trail.Content[0]
	assert.Equal(t, "Created a new task", view.ActionDescription)
	assert.Equal(t, "Status: TODO", view.ChangesSummary)
	assert.Equal(t, "alice", view.ActorName)
	assert.Equal(t, "2025-01-02 03:04:05", view.FormattedTimestamp)

	svc.Close()
	published := notifier.published()
	require.Len(t, published, 1)
	assert.Equal(t, record.ID, published[0].ID)
}

func TestAuditServiceRecordNilSnapshot(t *testing.T) {
	clock := time.Now().UTC()
	svc, _, _ := newTestAuditService(t, &clock)

	record, err := svc.Record(context.Background(), domain.ActionDelete, domain.EntityProject, "p1", "bob", nil)
	require.NoError(t, err)

	require.NotNil(t, record.Payload)
	assert.Empty(t, record.Payload)
	assert.Equal(t, "No changes recorded", ToView(*record).ChangesSummary)
}

func TestAuditServiceRecordUnencodableSnapshot(t *testing.T) {
	clock := time.Now().UTC()
	svc, _, _ := newTestAuditService(t, &clock)

	record, err := svc.Record(context.Background(), domain.ActionUpdate, domain.EntityTask, "t9", "carol", &unencodable{Name: "x", Ch: make(chan int)})
	require.NoError(t, err)

	assert.Equal(t, domain.SerializationFailureMessage, record.Payload[domain.PayloadError])
	assert.Equal(t, "unencodable", record.Payload[domain.PayloadEntityClass])
	assert.Contains(t, record.Payload, domain.PayloadCaptureTime)
	assert.Len(t, record.Payload, 3)
}

type chainNode struct {
	Name string     `json:"name"`
	Next *chainNode `json:"next"`
}

func TestAuditServiceRecordCyclicSnapshot(t *testing.T) {
	clock := time.Now().UTC()
	svc, _, _ := newTestAuditService(t, &clock)

	node := &chainNode{Name: "loop"}
	node.Next = node

	selfMap := map[string]interface{}{"name": "loop"}
	selfMap["self"] = selfMap

	tests := []struct {
		name      string
		snapshot  interface{}
		wantClass string
	}{
		{name: "pointer cycle", snapshot: node, wantClass: "chainNode"},
		{name: "self-containing map", snapshot: selfMap, wantClass: "map[string]interface {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := svc.Record(context.Background(), domain.ActionUpdate, domain.EntityTask, "t9", "carol", tt.snapshot)
			require.NoError(t, err)
			require.NotNil(t, record)

			assert.Equal(t, domain.SerializationFailureMessage, record.Payload[domain.PayloadError])
			assert.Equal(t, tt.wantClass, record.Payload[domain.PayloadEntityClass])
			assert.Contains(t, record.Payload, domain.PayloadCaptureTime)
			assert.Len(t, record.Payload, 3)
		})
	}
}

func TestAuditServiceRecordNonObjectSnapshot(t *testing.T) {
	clock := time.Now().UTC()
	svc, _, _ := newTestAuditService(t, &clock)

	record, err := svc.Record(context.Background(), domain.ActionUpdate, domain.EntityTask, "t9", "carol", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, domain.SerializationFailureMessage, record.Payload[domain.PayloadError])
}

func TestAuditServiceRecordValidation(t *testing.T) {
	clock := time.Now().UTC()
	svc, repo, _ := newTestAuditService(t, &clock)
	ctx := context.Background()

	_, err := svc.Record(ctx, domain.ActionType("READ"), domain.EntityTask, "t1", "alice", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAuditRecord)
	assert.ErrorIs(t, err, domain.ErrInvalidActionType)

	_, err = svc.Record(ctx, domain.ActionCreate, " ", "t1", "alice", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAuditRecord)

	count, err := repo.CountByActor(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAuditServiceStoreFailure(t *testing.T) {
	storeErr := errors.New("store unavailable")
	notifier := &fakeNotifier{}
	svc := NewAuditService(&failingAuditRepository{InMemoryAuditRepository: repository.NewInMemoryAuditRepository(), err: storeErr}, notifier, time.Second)

	record, err := svc.Record(context.Background(), domain.ActionCreate, domain.EntityTask, "t1", "alice", nil)
	assert.Nil(t, record)

	var auditErr *domain.AuditError
	require.ErrorAs(t, err, &auditErr)
	assert.Equal(t, "record", auditErr.Op)
	assert.ErrorIs(t, err, storeErr)

	_, err = svc.GetAll(context.Background(), domain.NewPageRequest(0, 20, "", ""))
	require.ErrorAs(t, err, &auditErr)

	svc.Close()
	assert.Empty(t, notifier.published())
}

func TestAuditServiceNotifierFailureIsNotReturned(t *testing.T) {
	repo := repository.NewInMemoryAuditRepository()
	notifier := &fakeNotifier{err: errors.New("broker down")}
	svc := NewAuditService(repo, notifier, time.Second)

	record, err := svc.Record(context.Background(), domain.ActionCreate, domain.EntityTask, "t1", "alice", nil)
	require.NoError(t, err)
	require.NotNil(t, record)

	svc.Close()
	assert.Len(t, notifier.published(), 1)
}

func TestAuditServicePaginationPastEnd(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newTestAuditService(t, &clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		clock = clock.Add(time.Minute)
		_, err := svc.Record(ctx, domain.ActionUpdate, domain.EntityProject, "p1", "alice", nil)
		require.NoError(t, err)
	}

	page, err := svc.GetActionsByType(ctx, domain.ActionUpdate, domain.NewPageRequest(3, 2, "", ""))
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.EqualValues(t, 5, page.TotalElements)

	page, err = svc.GetActionsByType(ctx, domain.ActionUpdate, domain.NewPageRequest(2, 2, "", ""))
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.EqualValues(t, 5, page.TotalElements)
}

func TestAuditServiceQueries(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc, _, _ := newTestAuditService(t, &clock)
	ctx := context.Background()

	record := func(offset time.Duration, action domain.ActionType, entityType, id, actor string) {
		clock = base.Add(offset)
		_, err := svc.Record(ctx, action, entityType, id, actor, nil)
		require.NoError(t, err)
	}

	record(0, domain.ActionCreate, domain.EntityProject, "p1", "alice")
	record(time.Hour, domain.ActionUpdate, domain.EntityProject, "p1", "bob")
	record(2*time.Hour, domain.ActionCreate, domain.EntityTask, "t1", "alice")
	record(3*time.Hour, domain.ActionDelete, domain.EntityProject, "p1", "alice")

	page := domain.NewPageRequest(0, 20, "", "")

	t.Run("entity trail newest first", func(t *testing.T) {
		trail, err := svc.GetTrailForEntity(ctx, domain.EntityProject, "p1", page)
		require.NoError(t, err)
		require.Len(t, trail.Content, 3)
		assert.Equal(t, domain.ActionDelete, trail.Content[0].ActionType)
		assert.Equal(t, domain.ActionCreate, trail.Content[2].ActionType)
	})

	t.Run("entity trail ascending", func(t *testing.T) {
		trail, err := svc.GetTrailForEntity(ctx, domain.EntityProject, "p1", domain.NewPageRequest(0, 20, "timestamp", "asc"))
		require.NoError(t, err)
		require.Len(t, trail.Content, 3)
		assert.Equal(t, domain.ActionCreate, trail.Content[0].ActionType)
	})

	t.Run("actor ignores requested sort", func(t *testing.T) {
		actions, err := svc.GetActionsByActor(ctx, "alice", domain.NewPageRequest(0, 20, "entityType", "asc"))
		require.NoError(t, err)
		require.Len(t, actions.Content, 3)
		assert.True(t, actions.Content[0].Timestamp.After(actions.Content[1].Timestamp))
	})

	t.Run("date range is inclusive", func(t *testing.T) {
		result, err := svc.GetByDateRange(ctx, base.Add(time.Hour), base.Add(2*time.Hour), page)
		require.NoError(t, err)
		assert.EqualValues(t, 2, result.TotalElements)
	})

	t.Run("inverted date range", func(t *testing.T) {
		_, err := svc.GetByDateRange(ctx, base.Add(time.Hour), base, page)
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("recent", func(t *testing.T) {
		recent, err := svc.GetAll(ctx, domain.NewPageRequest(0, 2, "", ""))
		require.NoError(t, err)
		assert.Len(t, recent.Content, 2)
		assert.EqualValues(t, 4, recent.TotalElements)
		assert.Equal(t, 2, recent.TotalPages)
	})

	t.Run("counts", func(t *testing.T) {
		n, err := svc.CountByEntityType(ctx, domain.EntityProject)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		n, err = svc.CountByActionType(ctx, domain.ActionCreate)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = svc.CountByActor(ctx, "bob")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = svc.CountByActionType(ctx, domain.ActionType("nope"))
		assert.ErrorIs(t, err, domain.ErrInvalidActionType)
	})
}

func TestAuditServiceCleanup(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	svc, _, _ := newTestAuditService(t, &clock)
	ctx := context.Background()

	for _, offset := range []time.Duration{0, time.Hour, 2 * time.Hour} {
		clock = base.Add(offset)
		_, err := svc.Record(ctx, domain.ActionCreate, domain.EntityTask, "t1", "alice", nil)
		require.NoError(t, err)
	}

	cutoff := base.Add(time.Hour)
	deleted, err := svc.CleanupOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	deleted, err = svc.CleanupOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	remaining, err := svc.GetAll(ctx, domain.NewPageRequest(0, 20, "", ""))
	require.NoError(t, err)
	require.Len(t, remaining.Content, 2)
	for _, r := range remaining.Content {
		assert.False(t, r.Timestamp.Before(cutoff))
	}
}
