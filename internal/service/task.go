package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"project-tracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

type TaskRepository interface {
	Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, id string, req domain.UpdateTaskRequest) (*domain.Task, error)
	SetDeveloper(ctx context.Context, id string, developerID *string) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListByProject(ctx context.Context, projectID string, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListByDeveloper(ctx context.Context, developerID string, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Task], error)
	ListOverdue(ctx context.Context, today time.Time) ([]domain.Task, error)
	ListUnassigned(ctx context.Context) ([]domain.Task, error)
	ListByDueDateRange(ctx context.Context, start, end time.Time) ([]domain.Task, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type TaskService struct {
	taskRepo      TaskRepository
	projectRepo   ProjectRepository
	developerRepo DeveloperRepository
	trail         auditTrail
	now           func() time.Time
}

func NewTaskService(taskRepo TaskRepository, projectRepo ProjectRepository, developerRepo DeveloperRepository, recorder AuditRecorder) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		projectRepo:   projectRepo,
		developerRepo: developerRepo,
		trail:         auditTrail{recorder: recorder},
		now:           time.Now,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := domain.ValidateTaskTitle(req.Title); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(req.Description); err != nil {
		return nil, err
	}

	status, err := domain.ParseTaskStatus(defaultString(req.Status, domain.TaskStatusTodo))
	if err != nil {
		return nil, err
	}
	req.Status = status

	if err := validateID(req.ProjectID); err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	if req.DeveloperID != nil {
		if err := validateID(*req.DeveloperID); err != nil {
			return nil, err
		}
		if _, err := s.developerRepo.GetByID(ctx, *req.DeveloperID); err != nil {
			return nil, err
		}
	}

	task, err := s.taskRepo.Create(ctx, req)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"title":      req.Title,
			"project_id": req.ProjectID,
		}).Error("Failed to create task")
		return nil, err
	}

	log.WithFields(log.Fields{
		"task_id":    task.ID,
		"project_id": task.ProjectID,
	}).Info("Task successfully created")

	s.trail.record(ctx, domain.ActionCreate, domain.EntityTask, task.ID, task)
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.taskRepo.GetByID(ctx, id)
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := domain.ValidateTaskTitle(title); err != nil {
			return nil, err
		}
		req.Title = &title
	}
	if req.Description != nil {
		if err := domain.ValidateDescription(*req.Description); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		status, err := domain.ParseTaskStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		req.Status = &status
	}

	task, err := s.taskRepo.Update(ctx, id, req)
	if err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			log.WithError(err).WithField("task_id", id).Error("Failed to update task")
		}
		return nil, err
	}

	log.WithField("task_id", id).Info("Task successfully updated")

	s.trail.record(ctx, domain.ActionUpdate, domain.EntityTask, task.ID, task)
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			log.WithError(err).WithField("task_id", id).Error("Failed to delete task")
		}
		return err
	}

	log.WithField("task_id", id).Info("Task successfully deleted")

	s.trail.record(ctx, domain.ActionDelete, domain.EntityTask, id, task)
	return nil
}

// AssignTask links a task to a developer. Assignment is audited as an update.
func (s *TaskService) AssignTask(ctx context.Context, taskID, developerID string) (*domain.Task, error) {
	if err := validateID(taskID); err != nil {
		return nil, err
	}
	if err := validateID(developerID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.DeveloperID != nil && *task.DeveloperID == developerID {
		return nil, domain.ErrTaskAlreadyAssigned
	}
	if _, err := s.developerRepo.GetByID(ctx, developerID); err != nil {
		return nil, err
	}

	task, err = s.taskRepo.SetDeveloper(ctx, taskID, &developerID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"task_id":      taskID,
			"developer_id": developerID,
		}).Error("Failed to assign task")
		return nil, err
	}

	log.WithFields(log.Fields{
		"task_id":      taskID,
		"developer_id": developerID,
	}).Info("Task successfully assigned")

	s.trail.record(ctx, domain.ActionUpdate, domain.EntityTask, task.ID, task)
	return task, nil
}

func (s *TaskService) UnassignTask(ctx context.Context, taskID string) (*domain.Task, error) {
	if err := validateID(taskID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.DeveloperID == nil {
		return nil, domain.ErrTaskNotAssigned
	}

	task, err = s.taskRepo.SetDeveloper(ctx, taskID, nil)
	if err != nil {
		log.WithError(err).WithField("task_id", taskID).Error("Failed to unassign task")
		return nil, err
	}

	log.WithField("task_id", taskID).Info("Task successfully unassigned")

	s.trail.record(ctx, domain.ActionUpdate, domain.EntityTask, task.ID, task)
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Task], error) {
	tasks, err := s.taskRepo.List(ctx, page)
	if err != nil {
		log.WithError(err).Error("Failed to list tasks")
		return domain.Page[domain.Task]{}, err
	}
	return tasks, nil
}

func (s *TaskService) ListTasksByProject(ctx context.Context, projectID string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	if err := validateID(projectID); err != nil {
		return domain.Page[domain.Task]{}, err
	}

	tasks, err := s.taskRepo.ListByProject(ctx, projectID, page)
	if err != nil {
		log.WithError(err).WithField("project_id", projectID).Error("Failed to list tasks by project")
		return domain.Page[domain.Task]{}, err
	}
	return tasks, nil
}

func (s *TaskService) ListTasksByDeveloper(ctx context.Context, developerID string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	if err := validateID(developerID); err != nil {
		return domain.Page[domain.Task]{}, err
	}

	tasks, err := s.taskRepo.ListByDeveloper(ctx, developerID, page)
	if err != nil {
		log.WithError(err).WithField("developer_id", developerID).Error("Failed to list tasks by developer")
		return domain.Page[domain.Task]{}, err
	}
	return tasks, nil
}

func (s *TaskService) ListTasksByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	parsed, err := domain.ParseTaskStatus(status)
	if err != nil {
		return domain.Page[domain.Task]{}, err
	}

	tasks, err := s.taskRepo.ListByStatus(ctx, parsed, page)
	if err != nil {
		log.WithError(err).WithField("status", parsed).Error("Failed to list tasks by status")
		return domain.Page[domain.Task]{}, err
	}
	return tasks, nil
}

// ListOverdueTasks returns unfinished tasks due before today.
func (s *TaskService) ListOverdueTasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.taskRepo.ListOverdue(ctx, domain.Today(s.now()))
	if err != nil {
		log.WithError(err).Error("Failed to list overdue tasks")
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) ListUnassignedTasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.taskRepo.ListUnassigned(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list unassigned tasks")
		return nil, err
	}
	return tasks, nil
}

// ListTasksDueBetween returns tasks with start <= due date <= end.
func (s *TaskService) ListTasksDueBetween(ctx context.Context, start, end time.Time) ([]domain.Task, error) {
	if start.After(end) {
		return nil, domain.ErrInvalidDateRange
	}

	tasks, err := s.taskRepo.ListByDueDateRange(ctx, start, end)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"start": start,
			"end":   end,
		}).Error("Failed to list tasks by due date range")
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) Stats(ctx context.Context) (*domain.TaskStats, error) {
	counts, err := s.taskRepo.CountByStatus(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count tasks by status")
		return nil, err
	}

	stats := &domain.TaskStats{}
	for status, count := range counts {
		stats.Add(status, count)
	}
	return stats, nil
}
