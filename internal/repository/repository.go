package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"project-tracker/internal/domain"

	"github.com/lib/pq"
)

const queryTimeout = 5 * time.Second

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// orderBy renders an ORDER BY clause from an allowlisted sort field.
func orderBy(sortBy string, dir domain.SortDirection, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = fallback
	}
	direction := "DESC"
	if dir == domain.SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}

func limitOffset(argPos int) string {
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
}

func isPQError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
