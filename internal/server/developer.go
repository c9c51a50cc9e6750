package server

import (
	"context"
	"errors"
	"net/http"

	"project-tracker/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type DeveloperService interface {
	CreateDeveloper(ctx context.Context, req domain.CreateDeveloperRequest) (*domain.Developer, error)
	GetDeveloper(ctx context.Context, id string) (*domain.Developer, error)
	GetDeveloperByEmail(ctx context.Context, email string) (*domain.Developer, error)
	UpdateDeveloper(ctx context.Context, id string, req domain.UpdateDeveloperRequest) (*domain.Developer, error)
	DeleteDeveloper(ctx context.Context, id string) error
	ListDevelopers(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Developer], error)
	SearchDevelopersByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Developer], error)
	SearchDevelopersBySkill(ctx context.Context, skill string, page domain.PageRequest) (domain.Page[domain.Developer], error)
	TopPerformers(ctx context.Context) ([]domain.Developer, error)
	AvailableDevelopers(ctx context.Context) ([]domain.Developer, error)
}

type developerServer struct {
	developerService DeveloperService
}

func NewDeveloperServer(developerService DeveloperService) *developerServer {
	return &developerServer{
		developerService: developerService,
	}
}

func handleDeveloperError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDeveloperNotFound):
		return http.StatusNotFound, "developer not found"
	case errors.Is(err, domain.ErrDeveloperEmailExists):
		return http.StatusConflict, "developer with this email already exists"
	case errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid email format"
	case errors.Is(err, domain.ErrInvalidDeveloperName), errors.Is(err, domain.ErrInvalidUUID):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *developerServer) CreateDeveloper(c echo.Context) error {
	var req domain.CreateDeveloperRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	developer, err := s.developerService.CreateDeveloper(c.Request().Context(), req)
	if err != nil {
		log.WithError(err).Error("Failed to create developer")
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, developer)
}

func (s *developerServer) GetDeveloper(c echo.Context) error {
	id := c.Param("id")

	developer, err := s.developerService.GetDeveloper(c.Request().Context(), id)
	if err != nil {
		log.WithError(err).WithField("developer_id", id).Error("Failed to get developer")
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, developer)
}

func (s *developerServer) GetDeveloperByEmail(c echo.Context) error {
	email := c.Param("email")

	developer, err := s.developerService.GetDeveloperByEmail(c.Request().Context(), email)
	if err != nil {
		log.WithError(err).WithField("email", email).Error("Failed to get developer by email")
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, developer)
}

func (s *developerServer) UpdateDeveloper(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateDeveloperRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	developer, err := s.developerService.UpdateDeveloper(c.Request().Context(), id, req)
	if err != nil {
		log.WithError(err).WithField("developer_id", id).Error("Failed to update developer")
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, developer)
}

func (s *developerServer) DeleteDeveloper(c echo.Context) error {
	id := c.Param("id")

	if err := s.developerService.DeleteDeveloper(c.Request().Context(), id); err != nil {
		log.WithError(err).WithField("developer_id", id).Error("Failed to delete developer")
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *developerServer) ListDevelopers(c echo.Context) error {
	developers, err := s.developerService.ListDevelopers(c.Request().Context(), pageRequest(c, defaultEntityPageSize))
	if err != nil {
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, developers)
}

func (s *developerServer) SearchByName(c echo.Context) error {
	developers, err := s.developerService.SearchDevelopersByName(c.Request().Context(), c.QueryParam("name"), pageRequest(c, defaultEntityPageSize))
	if err != nil {
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, developers)
}

func (s *developerServer) SearchBySkill(c echo.Context) error {
	developers, err := s.developerService.SearchDevelopersBySkill(c.Request().Context(), c.QueryParam("skill"), pageRequest(c, defaultEntityPageSize))
	if err != nil {
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, developers)
}

func (s *developerServer) TopPerformers(c echo.Context) error {
	developers, err := s.developerService.TopPerformers(c.Request().Context())
	if err != nil {
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, developers)
}

func (s *developerServer) AvailableDevelopers(c echo.Context) error {
	developers, err := s.developerService.AvailableDevelopers(c.Request().Context())
	if err != nil {
		statusCode, errorMsg := handleDeveloperError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, developers)
}
