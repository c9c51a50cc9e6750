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

const projectColumns = `p.id, p.name, p.description, p.deadline, p.status, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count`

var projectSortColumns = map[string]string{
	"name":       "p.name",
	"status":     "p.status",
	"deadline":   "p.deadline",
	"created_at": "p.created_at",
	"createdAt":  "p.created_at",
	"updated_at": "p.updated_at",
	"updatedAt":  "p.updated_at",
}

type postgresProjectRepository struct {
	db *sql.DB
}

func NewPostgresProjectRepository(db *sql.DB) *postgresProjectRepository {
	return &postgresProjectRepository{db: db}
}

func (r *postgresProjectRepository) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithFields(log.Fields{
		"name":   req.Name,
		"status": req.Status,
	}).Info("Creating new project")

	query := `INSERT INTO projects AS p (name, description, deadline, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING ` + projectColumns

	project, err := scanProject(r.db.QueryRowContext(ctx, query,
		req.Name,
		req.Description,
		nullTime(req.Deadline),
		req.Status,
	))
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return nil, domain.ErrProjectNameExists
		}
		log.WithError(err).WithField("name", req.Name).Error("Failed to insert project")
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

func (r *postgresProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = $1`

	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		log.WithError(err).WithField("project_id", id).Error("Failed to get project by ID")
		return nil, fmt.Errorf("failed to get project by ID: %w", err)
	}
	return project, nil
}

// GetByName matches case-insensitively.
func (r *postgresProjectRepository) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + projectColumns + ` FROM projects p WHERE LOWER(p.name) = LOWER($1)`

	project, err := scanProject(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		log.WithError(err).WithField("name", name).Error("Failed to get project by name")
		return nil, fmt.Errorf("failed to get project by name: %w", err)
	}
	return project, nil
}

func (r *postgresProjectRepository) Update(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	setParts := []string{}
	args := []interface{}{}
	argPos := 1

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *req.Name)
		argPos++
	}
	if req.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *req.Description)
		argPos++
	}
	if req.Deadline != nil {
		setParts = append(setParts, fmt.Sprintf("deadline = $%d", argPos))
		args = append(args, *req.Deadline)
		argPos++
	}
	if req.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE projects AS p
	                      SET %s
	                      WHERE p.id = $%d
	                      RETURNING %s`,
		strings.Join(setParts, ", "), argPos, projectColumns)

	project, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return nil, domain.ErrProjectNameExists
		}
		log.WithError(err).WithField("project_id", id).Error("Failed to update project")
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

func (r *postgresProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithField("project_id", id).Info("Deleting project")

	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("project_id", id).Error("Failed to delete project")
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *postgresProjectRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Project], error) {
	return r.listPage(ctx, "TRUE", nil, page)
}

func (r *postgresProjectRepository) ListByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Project], error) {
	return r.listPage(ctx, "p.status = $1", []interface{}{status}, page)
}

func (r *postgresProjectRepository) SearchByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Project], error) {
	return r.listPage(ctx, "p.name ILIKE '%' || $1 || '%'", []interface{}{name}, page)
}

func (r *postgresProjectRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.Project, error) {
	return r.listAll(ctx,
		`WHERE p.deadline < $1 AND p.status <> $2 ORDER BY p.deadline ASC`,
		today, domain.ProjectStatusCompleted)
}

func (r *postgresProjectRepository) ListWithoutTasks(ctx context.Context) ([]domain.Project, error) {
	return r.listAll(ctx,
		`WHERE NOT EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id) ORDER BY p.created_at DESC`)
}

func (r *postgresProjectRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE status = $1`, status).Scan(&count); err != nil {
		log.WithError(err).WithField("status", status).Error("Failed to count projects by status")
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

func (r *postgresProjectRepository) listPage(ctx context.Context, where string, args []interface{}, page domain.PageRequest) (domain.Page[domain.Project], error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects p WHERE `+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Project]{}, fmt.Errorf("failed to count projects: %w", err)
	}

	query := `SELECT ` + projectColumns + ` FROM projects p WHERE ` + where +
		orderBy(page.SortBy, page.SortDir, projectSortColumns, "p.created_at") +
		limitOffset(len(args)+1)
	args = append(args, page.Size, page.Offset())

	projects, err := r.query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Project]{}, err
	}
	return domain.NewPage(projects, page, total), nil
}

func (r *postgresProjectRepository) listAll(ctx context.Context, clause string, args ...interface{}) ([]domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.query(ctx, `SELECT `+projectColumns+` FROM projects p `+clause, args...)
}

func (r *postgresProjectRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan project row")
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var project domain.Project
	var deadline sql.NullTime

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&deadline,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
		&project.TaskCount,
	)
	if err != nil {
		return nil, err
	}

	project.Deadline = timePtr(deadline)
	return &project, nil
}
