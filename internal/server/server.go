package server

import (
	"context"
	"net/http"
	"strconv"

	"project-tracker/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const defaultEntityPageSize = 10

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a ping function, e.g. (*sql.DB).PingContext.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type Server struct {
	db         Pinger
	auditStore Pinger
}

func NewServer(db, auditStore Pinger) *Server {
	return &Server{
		db:         db,
		auditStore: auditStore,
	}
}

func (s *Server) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.db.Ping(ctx); err != nil {
		log.WithError(err).Error("Health check failed: database is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database connection error",
		})
	}
	if err := s.auditStore.Ping(ctx); err != nil {
		log.WithError(err).Error("Health check failed: audit store is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "audit store connection error",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{
		"error": msg,
	})
}

// pageRequest reads page, size, sort_by and sort_dir. Malformed numbers fall
// back to defaults.
func pageRequest(c echo.Context, defaultSize int) domain.PageRequest {
	page := 0
	size := defaultSize

	if v := c.QueryParam("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			page = p
		}
	}
	if v := c.QueryParam("size"); v != "" {
		if sz, err := strconv.Atoi(v); err == nil && sz > 0 {
			size = sz
		}
	}

	return domain.NewPageRequest(page, size, c.QueryParam("sort_by"), c.QueryParam("sort_dir"))
}
