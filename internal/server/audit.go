package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"project-tracker/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Accepted layouts for audit date-time parameters; zone-less values are UTC.
var auditTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05"}

type AuditService interface {
	GetTrailForEntity(ctx context.Context, entityType, entityID string, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error)
	GetActionsByActor(ctx context.Context, actorName string, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error)
	GetActionsByType(ctx context.Context, actionType domain.ActionType, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error)
	GetByDateRange(ctx context.Context, start, end time.Time, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error)
	GetAll(ctx context.Context, page domain.PageRequest) (domain.Page[domain.AuditRecordView], error)
	CountByEntityType(ctx context.Context, entityType string) (int64, error)
	CountByActionType(ctx context.Context, actionType domain.ActionType) (int64, error)
	CountByActor(ctx context.Context, actorName string) (int64, error)
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditServer struct {
	auditService AuditService
}

func NewAuditServer(auditService AuditService) *auditServer {
	return &auditServer{
		auditService: auditService,
	}
}

func handleAuditError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidActionType):
		return http.StatusBadRequest, "invalid action type"
	case errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest, "start date cannot be after end date"
	case errors.Is(err, domain.ErrInvalidAuditRecord):
		return http.StatusBadRequest, "invalid request"
	}

	var auditErr *domain.AuditError
	if errors.As(err, &auditErr) {
		return http.StatusInternalServerError, "audit store error"
	}
	return http.StatusInternalServerError, "internal server error"
}

func (s *auditServer) respondPage(c echo.Context, page domain.Page[domain.AuditRecordView], err error) error {
	if err != nil {
		log.WithError(err).WithField("path", c.Path()).Error("Audit query failed")
		statusCode, errorMsg := handleAuditError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, page)
}

func (s *auditServer) GetEntityTrail(c echo.Context) error {
	entityType := c.Param("entityType")
	entityID := c.Param("entityId")
	if entityType == "" || entityID == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	page, err := s.auditService.GetTrailForEntity(c.Request().Context(), entityType, entityID, pageRequest(c, domain.DefaultPageSize))
	return s.respondPage(c, page, err)
}

func (s *auditServer) GetActorActions(c echo.Context) error {
	actor := c.Param("actorName")
	if actor == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	page, err := s.auditService.GetActionsByActor(c.Request().Context(), actor, pageRequest(c, domain.DefaultPageSize))
	return s.respondPage(c, page, err)
}

func (s *auditServer) GetActionsByType(c echo.Context) error {
	actionType, err := domain.ParseActionType(c.Param("actionType"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid action type")
	}

	page, err := s.auditService.GetActionsByType(c.Request().Context(), actionType, pageRequest(c, domain.DefaultPageSize))
	return s.respondPage(c, page, err)
}

func (s *auditServer) GetByDateRange(c echo.Context) error {
	start, err := parseAuditTime(c.QueryParam("start"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid start date")
	}
	end, err := parseAuditRangeEnd(c.QueryParam("end"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid end date")
	}

	page, err := s.auditService.GetByDateRange(c.Request().Context(), start, end, pageRequest(c, domain.DefaultPageSize))
	return s.respondPage(c, page, err)
}

func (s *auditServer) GetRecent(c echo.Context) error {
	page, err := s.auditService.GetAll(c.Request().Context(), pageRequest(c, domain.DefaultPageSize))
	return s.respondPage(c, page, err)
}

func (s *auditServer) CountByEntityType(c echo.Context) error {
	count, err := s.auditService.CountByEntityType(c.Request().Context(), c.Param("entityType"))
	return s.respondCount(c, count, err)
}

func (s *auditServer) CountByActionType(c echo.Context) error {
	actionType, err := domain.ParseActionType(c.Param("actionType"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid action type")
	}

	count, err := s.auditService.CountByActionType(c.Request().Context(), actionType)
	return s.respondCount(c, count, err)
}

func (s *auditServer) CountByActor(c echo.Context) error {
	count, err := s.auditService.CountByActor(c.Request().Context(), c.Param("actorName"))
	return s.respondCount(c, count, err)
}

func (s *auditServer) respondCount(c echo.Context, count int64, err error) error {
	if err != nil {
		log.WithError(err).WithField("path", c.Path()).Error("Audit count failed")
		statusCode, errorMsg := handleAuditError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, map[string]int64{
		"count": count,
	})
}

// Cleanup deletes every audit record older than the before parameter.
func (s *auditServer) Cleanup(c echo.Context) error {
	cutoff, err := parseAuditTime(c.QueryParam("before"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid before date")
	}

	deleted, err := s.auditService.CleanupOlderThan(c.Request().Context(), cutoff)
	if err != nil {
		log.WithError(err).WithField("cutoff", cutoff).Error("Audit cleanup failed")
		statusCode, errorMsg := handleAuditError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, map[string]int64{
		"deleted": deleted,
	})
}

// parseAuditTime accepts a date-time or a bare date, which means midnight UTC.
func parseAuditTime(raw string) (time.Time, error) {
	for _, layout := range auditTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Parse(domain.DateLayout, raw)
}

// parseAuditRangeEnd is parseAuditTime except that a bare date covers the
// whole day, so the inclusive range keeps records written later that day.
func parseAuditRangeEnd(raw string) (time.Time, error) {
	if day, err := time.Parse(domain.DateLayout, raw); err == nil {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return parseAuditTime(raw)
}
