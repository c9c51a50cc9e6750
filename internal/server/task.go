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

type TaskService interface {
	CreateTask(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, req domain.UpdateTaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	AssignTask(ctx context.Context, taskID, developerID string) (*domain.Task, error)
	UnassignTask(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListTasksByProject(ctx context.Context, projectID string, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListTasksByDeveloper(ctx context.Context, developerID string, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListTasksByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListOverdueTasks(ctx context.Context) ([]domain.Task, error)
	ListUnassignedTasks(ctx context.Context) ([]domain.Task, error)
	ListTasksDueBetween(ctx context.Context, start, end time.Time) ([]domain.Task, error)
	Stats(ctx context.Context) (*domain.TaskStats, error)
}

type taskServer struct {
	taskService TaskService
}

func NewTaskServer(taskService TaskService) *taskServer {
	return &taskServer{
		taskService: taskService,
	}
}

func handleTaskError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "task not found"
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "project not found"
	case errors.Is(err, domain.ErrDeveloperNotFound):
		return http.StatusNotFound, "developer not found"
	case errors.Is(err, domain.ErrTaskAlreadyAssigned):
		return http.StatusConflict, "task is already assigned to this developer"
	case errors.Is(err, domain.ErrTaskNotAssigned):
		return http.StatusConflict, "task is not assigned to a developer"
	case errors.Is(err, domain.ErrInvalidTaskStatus):
		return http.StatusBadRequest, "invalid task status"
	case errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest, "start date cannot be after end date"
	case errors.Is(err, domain.ErrInvalidTaskTitle), errors.Is(err, domain.ErrInvalidDescription), errors.Is(err, domain.ErrInvalidUUID):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *taskServer) CreateTask(c echo.Context) error {
	var req domain.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	task, err := s.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		log.WithError(err).WithField("project_id", req.ProjectID).Error("Failed to create task")
		statusCode, errorMsg := handleTaskError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, task)
}

func (s *taskServer) GetTask(c echo.Context) error {
	id := c.Param("id")

	task, err := s.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		log.WithError(err).WithField("task_id", id).Error("Failed to get task")
		statusCode, errorMsg := handleTaskError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, task)
}

func (s *taskServer) UpdateTask(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	task, err := s.taskService.UpdateTask(c.Request().Context(), id, req)
	if err != nil {
		log.WithError(err).WithField("task_id", id).Error("Failed to update task")
		statusCode, errorMsg := handleTaskError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, task)
}

func (s *taskServer) DeleteTask(c echo.Context) error {
	id := c.Param("id")

	if err := s.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		log.WithError(err).WithField("task_id", id).Error("Failed to delete task")
		statusCode, errorMsg := handleTaskError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *taskServer) AssignTask(c echo.Context) error {
	taskID := c.Param("id")
	developerID := c.Param("developerId")

	task, err := s.taskService.AssignTask(c.Request().Context(), taskID, developerID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"task_id":      taskID,
			"developer_id": developerID,
		}).Error("Failed to assign task")
		statusCode, errorMsg := handleTaskError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, task)
}

func (s *taskServer) UnassignTask(c echo.Context) error {
	taskID := c.Param("id")

	task, err := s.taskService.UnassignTask(c.Request().Context(), taskID)
	if err != nil {
		log.WithError(err).WithField("task_id", taskID).Error("Failed to unassign task")
		statusCode, errorMsg := handleTaskError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, task)
}

func (s *taskServer) ListTasks(c echo.Context) error {
	tasks, err := s.taskService.ListTasks(c.Request().Context(), pageRequest(c, defaultEntityPageSize))
	return s.respond(c, tasks, err)
}

func (s *taskServer) ListTasksByProject(c echo.Context) error {
	tasks, err := s.taskService.ListTasksByProject(c.Request().Context(), c.Param("projectId"), pageRequest(c, defaultEntityPageSize))
	return s.respond(c, tasks, err)
}

func (s *taskServer) ListTasksByDeveloper(c echo.Context) error {
	tasks, err := s.taskService.ListTasksByDeveloper(c.Request().Context(), c.Param("developerId"), pageRequest(c, defaultEntityPageSize))
	return s.respond(c, tasks, err)
}

func (s *taskServer) ListTasksByStatus(c echo.Context) error {
	tasks, err := s.taskService.ListTasksByStatus(c.Request().Context(), c.Param("status"), pageRequest(c, defaultEntityPageSize))
	return s.respond(c, tasks, err)
}

func (s *taskServer) ListOverdueTasks(c echo.Context) error {
	tasks, err := s.taskService.ListOverdueTasks(c.Request().Context())
	return s.respond(c, tasks, err)
}

func (s *taskServer) ListUnassignedTasks(c echo.Context) error {
	tasks, err := s.taskService.ListUnassignedTasks(c.Request().Context())
	return s.respond(c, tasks, err)
}

func (s *taskServer) ListTasksDueBetween(c echo.Context) error {
	start, err := time.Parse(domain.DateLayout, c.QueryParam("start"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid start date")
	}
	end, err := time.Parse(domain.DateLayout, c.QueryParam("end"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid end date")
	}

	tasks, err := s.taskService.ListTasksDueBetween(c.Request().Context(), start, end)
	return s.respond(c, tasks, err)
}

func (s *taskServer) Stats(c echo.Context) error {
	stats, err := s.taskService.Stats(c.Request().Context())
	return s.respond(c, stats, err)
}

func (s *taskServer) respond(c echo.Context, body interface{}, err error) error {
	if err != nil {
		log.WithError(err).WithField("path", c.Path()).Error("Task query failed")
		statusCode, errorMsg := handleTaskError(err)
		return errorJSON(c, statusCode, errorMsg)
	}
	return c.JSON(http.StatusOK, body)
}
