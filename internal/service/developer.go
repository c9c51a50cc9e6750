package service

import (
	"context"
	"errors"
	"strings"

	"project-tracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

const topPerformersLimit = 5

type DeveloperRepository interface {
	Create(ctx context.Context, req domain.CreateDeveloperRequest) (*domain.Developer, error)
	GetByID(ctx context.Context, id string) (*domain.Developer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Developer, error)
	Update(ctx context.Context, id string, req domain.UpdateDeveloperRequest) (*domain.Developer, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Developer], error)
	SearchByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Developer], error)
	SearchBySkill(ctx context.Context, skill string, page domain.PageRequest) (domain.Page[domain.Developer], error)
	ListTopByTaskCount(ctx context.Context, limit int) ([]domain.Developer, error)
	ListWithoutTasks(ctx context.Context) ([]domain.Developer, error)
}

type DeveloperService struct {
	developerRepo DeveloperRepository
	trail         auditTrail
}

func NewDeveloperService(developerRepo DeveloperRepository, recorder AuditRecorder) *DeveloperService {
	return &DeveloperService{
		developerRepo: developerRepo,
		trail:         auditTrail{recorder: recorder},
	}
}

func (s *DeveloperService) CreateDeveloper(ctx context.Context, req domain.CreateDeveloperRequest) (*domain.Developer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := domain.ValidateDeveloperName(req.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(req.Email); err != nil {
		return nil, err
	}

	if err := s.ensureEmailAvailable(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	developer, err := s.developerRepo.Create(ctx, req)
	if err != nil {
		log.WithError(err).WithField("email", req.Email).Error("Failed to create developer")
		return nil, err
	}

	log.WithFields(log.Fields{
		"developer_id": developer.ID,
		"email":        developer.Email,
	}).Info("Developer successfully created")

	s.trail.record(ctx, domain.ActionCreate, domain.EntityDeveloper, developer.ID, developer)
	return developer, nil
}

func (s *DeveloperService) GetDeveloper(ctx context.Context, id string) (*domain.Developer, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.developerRepo.GetByID(ctx, id)
}

func (s *DeveloperService) GetDeveloperByEmail(ctx context.Context, email string) (*domain.Developer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	return s.developerRepo.GetByEmail(ctx, email)
}

func (s *DeveloperService) UpdateDeveloper(ctx context.Context, id string, req domain.UpdateDeveloperRequest) (*domain.Developer, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := domain.ValidateDeveloperName(name); err != nil {
			return nil, err
		}
		req.Name = &name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := domain.ValidateEmail(email); err != nil {
			return nil, err
		}
		if err := s.ensureEmailAvailable(ctx, email, id); err != nil {
			return nil, err
		}
		req.Email = &email
	}

	developer, err := s.developerRepo.Update(ctx, id, req)
	if err != nil {
		if !errors.Is(err, domain.ErrDeveloperNotFound) {
			log.WithError(err).WithField("developer_id", id).Error("Failed to update developer")
		}
		return nil, err
	}

	log.WithField("developer_id", id).Info("Developer successfully updated")

	s.trail.record(ctx, domain.ActionUpdate, domain.EntityDeveloper, developer.ID, developer)
	return developer, nil
}

// DeleteDeveloper removes the developer; their tasks become unassigned.
func (s *DeveloperService) DeleteDeveloper(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	developer, err := s.developerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.developerRepo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrDeveloperNotFound) {
			log.WithError(err).WithField("developer_id", id).Error("Failed to delete developer")
		}
		return err
	}

	log.WithField("developer_id", id).Info("Developer successfully deleted")

	s.trail.record(ctx, domain.ActionDelete, domain.EntityDeveloper, id, developer)
	return nil
}

func (s *DeveloperService) ListDevelopers(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	developers, err := s.developerRepo.List(ctx, page)
	if err != nil {
		log.WithError(err).Error("Failed to list developers")
		return domain.Page[domain.Developer]{}, err
	}
	return developers, nil
}

func (s *DeveloperService) SearchDevelopersByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Page[domain.Developer]{}, domain.ErrInvalidDeveloperName
	}

	developers, err := s.developerRepo.SearchByName(ctx, name, page)
	if err != nil {
		log.WithError(err).WithField("name", name).Error("Failed to search developers by name")
		return domain.Page[domain.Developer]{}, err
	}
	return developers, nil
}

func (s *DeveloperService) SearchDevelopersBySkill(ctx context.Context, skill string, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return domain.NewPage([]domain.Developer{}, page, 0), nil
	}

	developers, err := s.developerRepo.SearchBySkill(ctx, skill, page)
	if err != nil {
		log.WithError(err).WithField("skill", skill).Error("Failed to search developers by skill")
		return domain.Page[domain.Developer]{}, err
	}
	return developers, nil
}

// TopPerformers returns the five developers with the most tasks.
func (s *DeveloperService) TopPerformers(ctx context.Context) ([]domain.Developer, error) {
	developers, err := s.developerRepo.ListTopByTaskCount(ctx, topPerformersLimit)
	if err != nil {
		log.WithError(err).Error("Failed to list top performers")
		return nil, err
	}
	return developers, nil
}

func (s *DeveloperService) AvailableDevelopers(ctx context.Context) ([]domain.Developer, error) {
	developers, err := s.developerRepo.ListWithoutTasks(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list available developers")
		return nil, err
	}
	return developers, nil
}

func (s *DeveloperService) ensureEmailAvailable(ctx context.Context, email, selfID string) error {
	existing, err := s.developerRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrDeveloperNotFound) {
		log.WithError(err).WithField("email", email).Error("Failed to check developer email")
		return err
	}
	if existing != nil && existing.ID != selfID {
		return domain.ErrDeveloperEmailExists
	}
	return nil
}
