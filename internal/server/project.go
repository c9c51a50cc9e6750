package server

import (
	"context"
	"errors"
	"net/http"

	"project-tracker/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type ProjectService interface {
	CreateProject(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	UpdateProject(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Project], error)
	ListProjectsByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Project], error)
	SearchProjects(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Project], error)
	ListOverdueProjects(ctx context.Context) ([]domain.Project, error)
	ListEmptyProjects(ctx context.Context) ([]domain.Project, error)
	CountProjectsByStatus(ctx context.Context, status string) (int64, error)
}

type projectServer struct {
	projectService ProjectService
}

func NewProjectServer(projectService ProjectService) *projectServer {
	return &projectServer{
		projectService: projectService,
	}
}

func handleProjectError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "project not found"
	case errors.Is(err, domain.ErrProjectNameExists):
		return http.StatusConflict, "project with this name already exists"
	case errors.Is(err, domain.ErrInvalidProjectStatus):
		return http.StatusBadRequest, "invalid project status"
	case errors.Is(err, domain.ErrInvalidProjectName), errors.Is(err, domain.ErrInvalidDescription), errors.Is(err, domain.ErrInvalidUUID):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *projectServer) CreateProject(c echo.Context) error {
	var req domain.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	project, err := s.projectService.CreateProject(c.Request().Context(), req)
	if err != nil {
		log.WithError(err).Error("Failed to create project")
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, project)
}

func (s *projectServer) GetProject(c echo.Context) error {
	id := c.Param("id")

	project, err := s.projectService.GetProject(c.Request().Context(), id)
	if err != nil {
		log.WithError(err).WithField("project_id", id).Error("Failed to get project")
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, project)
}

func (s *projectServer) UpdateProject(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	project, err := s.projectService.UpdateProject(c.Request().Context(), id, req)
	if err != nil {
		log.WithError(err).WithField("project_id", id).Error("Failed to update project")
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, project)
}

func (s *projectServer) DeleteProject(c echo.Context) error {
	id := c.Param("id")

	if err := s.projectService.DeleteProject(c.Request().Context(), id); err != nil {
		log.WithError(err).WithField("project_id", id).Error("Failed to delete project")
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *projectServer) ListProjects(c echo.Context) error {
	projects, err := s.projectService.ListProjects(c.Request().Context(), pageRequest(c, defaultEntityPageSize))
	if err != nil {
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *projectServer) ListProjectsByStatus(c echo.Context) error {
	projects, err := s.projectService.ListProjectsByStatus(c.Request().Context(), c.Param("status"), pageRequest(c, defaultEntityPageSize))
	if err != nil {
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *projectServer) SearchProjects(c echo.Context) error {
	projects, err := s.projectService.SearchProjects(c.Request().Context(), c.QueryParam("name"), pageRequest(c, defaultEntityPageSize))
	if err != nil {
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *projectServer) ListOverdueProjects(c echo.Context) error {
	projects, err := s.projectService.ListOverdueProjects(c.Request().Context())
	if err != nil {
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *projectServer) ListEmptyProjects(c echo.Context) error {
	projects, err := s.projectService.ListEmptyProjects(c.Request().Context())
	if err != nil {
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *projectServer) CountProjectsByStatus(c echo.Context) error {
	count, err := s.projectService.CountProjectsByStatus(c.Request().Context(), c.Param("status"))
	if err != nil {
		statusCode, errorMsg := handleProjectError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, map[string]int64{
		"count": count,
	})
}
