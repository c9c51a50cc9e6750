//go:build integration

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"project-tracker/internal/domain"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoAuditRepositoryIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	repo := NewMongoAuditRepository(client.Database("project_tracker_test"), "audit_logs")
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.EnsureIndexes(ctx))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		record := &domain.AuditRecord{
			ActionType: domain.ActionUpdate,
			EntityType: domain.EntityTask,
			EntityID:   "t1",
			ActorName:  "alice",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Payload:    domain.Payload{"status": "TODO", "_captureTime": base},
		}
		require.NoError(t, repo.Insert(ctx, record))
		require.Len(t, record.ID, 24)
	}

	page, err := repo.FindByEntity(ctx, domain.EntityTask, "t1", domain.NewPageRequest(0, 2, "", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Content, 2)
	assert.Equal(t, base.Add(4*time.Minute), page.Content[0].Timestamp)
	assert.Equal(t, "TODO", page.Content[0].Payload["status"])
	assert.Equal(t, base, page.Content[0].Payload["_captureTime"])

	past, err := repo.FindByActionType(ctx, domain.ActionUpdate, domain.NewPageRequest(10, 2, "", ""))
	require.NoError(t, err)
	assert.Empty(t, past.Content)
	assert.EqualValues(t, 5, past.TotalElements)

	inRange, err := repo.FindByTimestampBetween(ctx, base.Add(time.Minute), base.Add(3*time.Minute), domain.NewPageRequest(0, 20, "timestamp", "asc"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, inRange.TotalElements)
	assert.Equal(t, base.Add(time.Minute), inRange.Content[0].Timestamp)

	deleted, err := repo.DeleteOlderThan(ctx, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	deleted, err = repo.DeleteOlderThan(ctx, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, deleted)

	n, err := repo.CountByActor(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestPostgresRepositoriesIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tracker"),
		postgres.WithUsername("tracker"),
		postgres.WithPassword("tracker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../db/migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	projects := NewPostgresProjectRepository(db)
	developers := NewPostgresDeveloperRepository(db)
	tasks := NewPostgresTaskRepository(db)

	project, err := projects.Create(ctx, domain.CreateProjectRequest{Name: "Apollo", Status: domain.ProjectStatusActive})
	require.NoError(t, err)

	_, err = projects.Create(ctx, domain.CreateProjectRequest{Name: "APOLLO", Status: domain.ProjectStatusActive})
	assert.ErrorIs(t, err, domain.ErrProjectNameExists)

	found, err := projects.GetByName(ctx, "apollo")
	require.NoError(t, err)
	assert.Equal(t, project.ID, found.ID)

	dev, err := developers.Create(ctx, domain.CreateDeveloperRequest{Name: "Ada", Email: "ada@example.com", Skills: "go,sql"})
	require.NoError(t, err)

	due := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	task, err := tasks.Create(ctx, domain.CreateTaskRequest{
		Title:     "Fix bug",
		Status:    domain.TaskStatusTodo,
		DueDate:   &due,
		ProjectID: project.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, task.DeveloperID)

	assigned, err := tasks.SetDeveloper(ctx, task.ID, &dev.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.DeveloperID)
	assert.Equal(t, dev.ID, *assigned.DeveloperID)

	top, err := developers.ListTopByTaskCount(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.EqualValues(t, 1, top[0].TaskCount)

	bySkill, err := developers.SearchBySkill(ctx, "SQL", domain.NewPageRequest(0, 10, "", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 1, bySkill.TotalElements)

	overdue, err := tasks.ListOverdue(ctx, due.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	counts, err := tasks.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.TaskStatusTodo])

	page, err := projects.List(ctx, domain.NewPageRequest(0, 10, "name", "asc"))
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.EqualValues(t, 1, page.Content[0].TaskCount)

	require.NoError(t, developers.Delete(ctx, dev.ID))
	orphan, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.DeveloperID)

	require.NoError(t, projects.Delete(ctx, project.ID))
	_, err = tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	empty, err := projects.ListWithoutTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
