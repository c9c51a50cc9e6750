package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"project-tracker/internal/domain"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ProjectRepository interface {
	Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error)
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	Update(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Project], error)
	ListByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Project], error)
	SearchByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Project], error)
	ListOverdue(ctx context.Context, today time.Time) ([]domain.Project, error)
	ListWithoutTasks(ctx context.Context) ([]domain.Project, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type ProjectService struct {
	projectRepo ProjectRepository
	trail       auditTrail
	now         func() time.Time
}

func NewProjectService(projectRepo ProjectRepository, recorder AuditRecorder) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		trail:       auditTrail{recorder: recorder},
		now:         time.Now,
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := domain.ValidateProjectName(req.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(req.Description); err != nil {
		return nil, err
	}

	req.Status = defaultString(req.Status, domain.ProjectStatusPlanning)
	status, err := domain.ParseProjectStatus(req.Status)
	if err != nil {
		return nil, err
	}
	req.Status = status

	if err := s.ensureNameAvailable(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.Create(ctx, req)
	if err != nil {
		log.WithError(err).WithField("name", req.Name).Error("Failed to create project")
		return nil, err
	}

	log.WithFields(log.Fields{
		"project_id": project.ID,
		"name":       project.Name,
	}).Info("Project successfully created")

	s.trail.record(ctx, domain.ActionCreate, domain.EntityProject, project.ID, project)
	return project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.projectRepo.GetByID(ctx, id)
}

func (s *ProjectService) UpdateProject(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := domain.ValidateProjectName(name); err != nil {
			return nil, err
		}
		if err := s.ensureNameAvailable(ctx, name, id); err != nil {
			return nil, err
		}
		req.Name = &name
	}
	if req.Description != nil {
		if err := domain.ValidateDescription(*req.Description); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		status, err := domain.ParseProjectStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		req.Status = &status
	}

	project, err := s.projectRepo.Update(ctx, id, req)
	if err != nil {
		if !errors.Is(err, domain.ErrProjectNotFound) {
			log.WithError(err).WithField("project_id", id).Error("Failed to update project")
		}
		return nil, err
	}

	log.WithField("project_id", id).Info("Project successfully updated")

	s.trail.record(ctx, domain.ActionUpdate, domain.EntityProject, project.ID, project)
	return project, nil
}

// DeleteProject removes the project and its tasks. The audit payload is the
// project as it was before deletion.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrProjectNotFound) {
			log.WithError(err).WithField("project_id", id).Error("Failed to delete project")
		}
		return err
	}

	log.WithField("project_id", id).Info("Project successfully deleted")

	s.trail.record(ctx, domain.ActionDelete, domain.EntityProject, id, project)
	return nil
}

func (s *ProjectService) ListProjects(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Project], error) {
	projects, err := s.projectRepo.List(ctx, page)
	if err != nil {
		log.WithError(err).Error("Failed to list projects")
		return domain.Page[domain.Project]{}, err
	}
	return projects, nil
}

func (s *ProjectService) ListProjectsByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Project], error) {
	parsed, err := domain.ParseProjectStatus(status)
	if err != nil {
		return domain.Page[domain.Project]{}, err
	}

	projects, err := s.projectRepo.ListByStatus(ctx, parsed, page)
	if err != nil {
		log.WithError(err).WithField("status", parsed).Error("Failed to list projects by status")
		return domain.Page[domain.Project]{}, err
	}
	return projects, nil
}

func (s *ProjectService) SearchProjects(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Project], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Page[domain.Project]{}, domain.ErrInvalidProjectName
	}

	projects, err := s.projectRepo.SearchByName(ctx, name, page)
	if err != nil {
		log.WithError(err).WithField("name", name).Error("Failed to search projects")
		return domain.Page[domain.Project]{}, err
	}
	return projects, nil
}

// ListOverdueProjects returns unfinished projects whose deadline is before today.
func (s *ProjectService) ListOverdueProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.projectRepo.ListOverdue(ctx, domain.Today(s.now()))
	if err != nil {
		log.WithError(err).Error("Failed to list overdue projects")
		return nil, err
	}
	return projects, nil
}

func (s *ProjectService) ListEmptyProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.projectRepo.ListWithoutTasks(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list projects without tasks")
		return nil, err
	}
	return projects, nil
}

func (s *ProjectService) CountProjectsByStatus(ctx context.Context, status string) (int64, error) {
	parsed, err := domain.ParseProjectStatus(status)
	if err != nil {
		return 0, err
	}
	return s.projectRepo.CountByStatus(ctx, parsed)
}

func (s *ProjectService) ensureNameAvailable(ctx context.Context, name, selfID string) error {
	existing, err := s.projectRepo.GetByName(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrProjectNotFound) {
		log.WithError(err).WithField("name", name).Error("Failed to check project name")
		return err
	}
	if existing != nil && existing.ID != selfID {
		return domain.ErrProjectNameExists
	}
	return nil
}

func validateID(id string) error {
	if id == "" {
		return domain.ErrInvalidUUID
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidUUID
	}
	return nil
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
