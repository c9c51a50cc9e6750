package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"project-tracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

const developerColumns = `d.id, d.name, d.email, d.skills, d.created_at, d.updated_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.developer_id = d.id) AS task_count`

var developerSortColumns = map[string]string{
	"name":       "d.name",
	"email":      "d.email",
	"created_at": "d.created_at",
	"createdAt":  "d.created_at",
	"task_count": "task_count",
	"taskCount":  "task_count",
}

type postgresDeveloperRepository struct {
	db *sql.DB
}

func NewPostgresDeveloperRepository(db *sql.DB) *postgresDeveloperRepository {
	return &postgresDeveloperRepository{db: db}
}

func (r *postgresDeveloperRepository) Create(ctx context.Context, req domain.CreateDeveloperRequest) (*domain.Developer, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithFields(log.Fields{
		"name":  req.Name,
		"email": req.Email,
	}).Info("Creating new developer")

	query := `INSERT INTO developers AS d (name, email, skills)
	          VALUES ($1, $2, $3)
	          RETURNING ` + developerColumns

	developer, err := scanDeveloper(r.db.QueryRowContext(ctx, query, req.Name, req.Email, req.Skills))
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return nil, domain.ErrDeveloperEmailExists
		}
		log.WithError(err).WithField("email", req.Email).Error("Failed to insert developer")
		return nil, fmt.Errorf("failed to create developer: %w", err)
	}
	return developer, nil
}

func (r *postgresDeveloperRepository) GetByID(ctx context.Context, id string) (*domain.Developer, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + developerColumns + ` FROM developers d WHERE d.id = $1`

	developer, err := scanDeveloper(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDeveloperNotFound
	}
	if err != nil {
		log.WithError(err).WithField("developer_id", id).Error("Failed to get developer by ID")
		return nil, fmt.Errorf("failed to get developer by ID: %w", err)
	}
	return developer, nil
}

func (r *postgresDeveloperRepository) GetByEmail(ctx context.Context, email string) (*domain.Developer, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + developerColumns + ` FROM developers d WHERE LOWER(d.email) = LOWER($1)`

	developer, err := scanDeveloper(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDeveloperNotFound
	}
	if err != nil {
		log.WithError(err).WithField("email", email).Error("Failed to get developer by email")
		return nil, fmt.Errorf("failed to get developer by email: %w", err)
	}
	return developer, nil
}

func (r *postgresDeveloperRepository) Update(ctx context.Context, id string, req domain.UpdateDeveloperRequest) (*domain.Developer, error) {
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
	if req.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", argPos))
		args = append(args, *req.Email)
		argPos++
	}
	if req.Skills != nil {
		setParts = append(setParts, fmt.Sprintf("skills = $%d", argPos))
		args = append(args, *req.Skills)
		argPos++
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE developers AS d
	                      SET %s
	                      WHERE d.id = $%d
	                      RETURNING %s`,
		strings.Join(setParts, ", "), argPos, developerColumns)

	developer, err := scanDeveloper(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDeveloperNotFound
	}
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return nil, domain.ErrDeveloperEmailExists
		}
		log.WithError(err).WithField("developer_id", id).Error("Failed to update developer")
		return nil, fmt.Errorf("failed to update developer: %w", err)
	}
	return developer, nil
}

func (r *postgresDeveloperRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithField("developer_id", id).Info("Deleting developer")

	result, err := r.db.ExecContext(ctx, `DELETE FROM developers WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("developer_id", id).Error("Failed to delete developer")
		return fmt.Errorf("failed to delete developer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrDeveloperNotFound
	}
	return nil
}

func (r *postgresDeveloperRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	return r.listPage(ctx, "TRUE", nil, page)
}

func (r *postgresDeveloperRepository) SearchByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	return r.listPage(ctx, "d.name ILIKE '%' || $1 || '%'", []interface{}{name}, page)
}

func (r *postgresDeveloperRepository) SearchBySkill(ctx context.Context, skill string, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	return r.listPage(ctx, "d.skills ILIKE '%' || $1 || '%'", []interface{}{skill}, page)
}

func (r *postgresDeveloperRepository) ListTopByTaskCount(ctx context.Context, limit int) ([]domain.Developer, error) {
	return r.listAll(ctx, `ORDER BY task_count DESC, d.name ASC LIMIT $1`, limit)
}

func (r *postgresDeveloperRepository) ListWithoutTasks(ctx context.Context) ([]domain.Developer, error) {
	return r.listAll(ctx,
		`WHERE NOT EXISTS (SELECT 1 FROM tasks t WHERE t.developer_id = d.id) ORDER BY d.name ASC`)
}

func (r *postgresDeveloperRepository) listPage(ctx context.Context, where string, args []interface{}, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM developers d WHERE `+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Developer]{}, fmt.Errorf("failed to count developers: %w", err)
	}

	query := `SELECT ` + developerColumns + ` FROM developers d WHERE ` + where +
		orderBy(page.SortBy, page.SortDir, developerSortColumns, "d.created_at") +
		limitOffset(len(args)+1)
	args = append(args, page.Size, page.Offset())

	developers, err := r.query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Developer]{}, err
	}
	return domain.NewPage(developers, page, total), nil
}

func (r *postgresDeveloperRepository) listAll(ctx context.Context, clause string, args ...interface{}) ([]domain.Developer, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.query(ctx, `SELECT `+developerColumns+` FROM developers d `+clause, args...)
}

func (r *postgresDeveloperRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Developer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query developers: %w", err)
	}
	defer rows.Close()

	developers := []domain.Developer{}
	for rows.Next() {
		developer, err := scanDeveloper(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan developer row")
			return nil, err
		}
		developers = append(developers, *developer)
	}
	return developers, rows.Err()
}

func scanDeveloper(row rowScanner) (*domain.Developer, error) {
	var developer domain.Developer
	err := row.Scan(
		&developer.ID,
		&developer.Name,
		&developer.Email,
		&developer.Skills,
		&developer.CreatedAt,
		&developer.UpdatedAt,
		&developer.TaskCount,
	)
	if err != nil {
		return nil, err
	}
	return &developer, nil
}
