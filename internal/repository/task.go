package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-tracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

const taskColumns = `id, title, description, status, due_date, project_id, developer_id, created_at, updated_at`

var taskSortColumns = map[string]string{
	"title":      "title",
	"status":     "status",
	"due_date":   "due_date",
	"dueDate":    "due_date",
	"created_at": "created_at",
	"createdAt":  "created_at",
	"updated_at": "updated_at",
	"updatedAt":  "updated_at",
}

type postgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTaskRepository(db *sql.DB) *postgresTaskRepository {
	return &postgresTaskRepository{db: db}
}

func (r *postgresTaskRepository) Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithFields(log.Fields{
		"title":      req.Title,
		"project_id": req.ProjectID,
	}).Info("Creating new task")

	query := `INSERT INTO tasks (title, description, status, due_date, project_id, developer_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING ` + taskColumns

	var developerID interface{}
	if req.DeveloperID != nil {
		developerID = *req.DeveloperID
	}

	task, err := scanTask(r.db.QueryRowContext(ctx, query,
		req.Title,
		req.Description,
		req.Status,
		nullTime(req.DueDate),
		req.ProjectID,
		developerID,
	))
	if err != nil {
		if isPQError(err, pqForeignKeyViolation) {
			return nil, domain.ErrProjectNotFound
		}
		log.WithError(err).WithField("project_id", req.ProjectID).Error("Failed to insert task")
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (r *postgresTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		log.WithError(err).WithField("task_id", id).Error("Failed to get task by ID")
		return nil, fmt.Errorf("failed to get task by ID: %w", err)
	}
	return task, nil
}

func (r *postgresTaskRepository) Update(ctx context.Context, id string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	setParts := []string{}
	args := []interface{}{}
	argPos := 1

	if req.Title != nil {
		setParts = append(setParts, fmt.Sprintf("title = $%d", argPos))
		args = append(args, *req.Title)
		argPos++
	}
	if req.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *req.Description)
		argPos++
	}
	if req.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.DueDate != nil {
		setParts = append(setParts, fmt.Sprintf("due_date = $%d", argPos))
		args = append(args, *req.DueDate)
		argPos++
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE tasks
	                      SET %s
	                      WHERE id = $%d
	                      RETURNING %s`,
		strings.Join(setParts, ", "), argPos, taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		log.WithError(err).WithField("task_id", id).Error("Failed to update task")
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// SetDeveloper assigns the task, or unassigns it when developerID is nil.
func (r *postgresTaskRepository) SetDeveloper(ctx context.Context, id string, developerID *string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var value interface{}
	if developerID != nil {
		value = *developerID
	}

	query := `UPDATE tasks SET developer_id = $1, updated_at = NOW()
	          WHERE id = $2
	          RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRowContext(ctx, query, value, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		if isPQError(err, pqForeignKeyViolation) {
			return nil, domain.ErrDeveloperNotFound
		}
		log.WithError(err).WithField("task_id", id).Error("Failed to set task developer")
		return nil, fmt.Errorf("failed to set task developer: %w", err)
	}
	return task, nil
}

func (r *postgresTaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithField("task_id", id).Info("Deleting task")

	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("task_id", id).Error("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *postgresTaskRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return r.listPage(ctx, "TRUE", nil, page)
}

func (r *postgresTaskRepository) ListByProject(ctx context.Context, projectID string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return r.listPage(ctx, "project_id = $1", []interface{}{projectID}, page)
}

func (r *postgresTaskRepository) ListByDeveloper(ctx context.Context, developerID string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return r.listPage(ctx, "developer_id = $1", []interface{}{developerID}, page)
}

func (r *postgresTaskRepository) ListByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return r.listPage(ctx, "status = $1", []interface{}{status}, page)
}

func (r *postgresTaskRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.Task, error) {
	return r.listAll(ctx,
		`WHERE due_date < $1 AND status <> $2 ORDER BY due_date ASC`,
		today, domain.TaskStatusCompleted)
}

func (r *postgresTaskRepository) ListUnassigned(ctx context.Context) ([]domain.Task, error) {
	return r.listAll(ctx, `WHERE developer_id IS NULL ORDER BY created_at DESC`)
}

func (r *postgresTaskRepository) ListByDueDateRange(ctx context.Context, start, end time.Time) ([]domain.Task, error) {
	return r.listAll(ctx, `WHERE due_date BETWEEN $1 AND $2 ORDER BY due_date ASC`, start, end)
}

func (r *postgresTaskRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		log.WithError(err).Error("Failed to count tasks by status")
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *postgresTaskRepository) listPage(ctx context.Context, where string, args []interface{}, page domain.PageRequest) (domain.Page[domain.Task], error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Task]{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where +
		orderBy(page.SortBy, page.SortDir, taskSortColumns, "created_at") +
		limitOffset(len(args)+1)
	args = append(args, page.Size, page.Offset())

	tasks, err := r.query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Task]{}, err
	}
	return domain.NewPage(tasks, page, total), nil
}

func (r *postgresTaskRepository) listAll(ctx context.Context, clause string, args ...interface{}) ([]domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks `+clause, args...)
}

func (r *postgresTaskRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan task row")
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var dueDate sql.NullTime
	var developerID sql.NullString

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&dueDate,
		&task.ProjectID,
		&developerID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.DueDate = timePtr(dueDate)
	if developerID.Valid {
		task.DeveloperID = &developerID.String
	}
	return &task, nil
}
