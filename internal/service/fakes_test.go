package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"project-tracker/internal/domain"

	"github.com/google/uuid"
)

type recordedAudit struct {
	action     domain.ActionType
	entityType string
	entityID   string
	actor      string
	snapshot   interface{}
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedAudit
	err     error
}

func (r *fakeRecorder) Record(ctx context.Context, actionType domain.ActionType, entityType, entityID, actorName string, snapshot interface{}) (*domain.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, recordedAudit{
		action:     actionType,
		entityType: entityType,
		entityID:   entityID,
		actor:      actorName,
		snapshot:   snapshot,
	})
	if r.err != nil {
		return nil, r.err
	}
	return &domain.AuditRecord{ID: uuid.NewString(), ActionType: actionType, EntityType: entityType, EntityID: entityID}, nil
}

func (r *fakeRecorder) recorded() []recordedAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedAudit(nil), r.entries...)
}

var errNotImplemented = errors.New("not implemented in fake")

type fakeProjectRepository struct {
	projects map[string]*domain.Project
}

func newFakeProjectRepository() *fakeProjectRepository {
	return &fakeProjectRepository{projects: map[string]*domain.Project{}}
}

func (r *fakeProjectRepository) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	p := &domain.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      req.Status,
	}
	r.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepository) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	for _, p := range r.projects {
		if strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (r *fakeProjectRepository) Update(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Deadline != nil {
		p.Deadline = req.Deadline
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepository) Delete(ctx context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Project], error) {
	all := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		all = append(all, *p)
	}
	return domain.Paginate(all, page), nil
}

func (r *fakeProjectRepository) ListByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Project], error) {
	var matched []domain.Project
	for _, p := range r.projects {
		if p.Status == status {
			matched = append(matched, *p)
		}
	}
	return domain.Paginate(matched, page), nil
}

func (r *fakeProjectRepository) SearchByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Project], error) {
	return domain.Page[domain.Project]{}, errNotImplemented
}

func (r *fakeProjectRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.Project, error) {
	var overdue []domain.Project
	for _, p := range r.projects {
		if p.IsOverdue(today) {
			overdue = append(overdue, *p)
		}
	}
	return overdue, nil
}

func (r *fakeProjectRepository) ListWithoutTasks(ctx context.Context) ([]domain.Project, error) {
	return nil, errNotImplemented
}

func (r *fakeProjectRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	for _, p := range r.projects {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeDeveloperRepository struct {
	developers map[string]*domain.Developer
}

func newFakeDeveloperRepository() *fakeDeveloperRepository {
	return &fakeDeveloperRepository{developers: map[string]*domain.Developer{}}
}

func (r *fakeDeveloperRepository) Create(ctx context.Context, req domain.CreateDeveloperRequest) (*domain.Developer, error) {
	d := &domain.Developer{ID: uuid.NewString(), Name: req.Name, Email: req.Email, Skills: req.Skills}
	r.developers[d.ID] = d
	cp := *d
	return &cp, nil
}

func (r *fakeDeveloperRepository) GetByID(ctx context.Context, id string) (*domain.Developer, error) {
	d, ok := r.developers[id]
	if !ok {
		return nil, domain.ErrDeveloperNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeveloperRepository) GetByEmail(ctx context.Context, email string) (*domain.Developer, error) {
	for _, d := range r.developers {
		if strings.EqualFold(d.Email, email) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrDeveloperNotFound
}

func (r *fakeDeveloperRepository) Update(ctx context.Context, id string, req domain.UpdateDeveloperRequest) (*domain.Developer, error) {
	d, ok := r.developers[id]
	if !ok {
		return nil, domain.ErrDeveloperNotFound
	}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Email != nil {
		d.Email = *req.Email
	}
	if req.Skills != nil {
		d.Skills = *req.Skills
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeveloperRepository) Delete(ctx context.Context, id string) error {
	if _, ok := r.developers[id]; !ok {
		return domain.ErrDeveloperNotFound
	}
	delete(r.developers, id)
	return nil
}

func (r *fakeDeveloperRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	return domain.Page[domain.Developer]{}, errNotImplemented
}

func (r *fakeDeveloperRepository) SearchByName(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	return domain.Page[domain.Developer]{}, errNotImplemented
}

func (r *fakeDeveloperRepository) SearchBySkill(ctx context.Context, skill string, page domain.PageRequest) (domain.Page[domain.Developer], error) {
	return domain.Page[domain.Developer]{}, errNotImplemented
}

func (r *fakeDeveloperRepository) ListTopByTaskCount(ctx context.Context, limit int) ([]domain.Developer, error) {
	return nil, errNotImplemented
}

func (r *fakeDeveloperRepository) ListWithoutTasks(ctx context.Context) ([]domain.Developer, error) {
	return nil, errNotImplemented
}

type fakeTaskRepository struct {
	tasks map[string]*domain.Task
}

func newFakeTaskRepository() *fakeTaskRepository {
	return &fakeTaskRepository{tasks: map[string]*domain.Task{}}
}

func (r *fakeTaskRepository) Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error) {
	t := &domain.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		ProjectID:   req.ProjectID,
		DeveloperID: req.DeveloperID,
	}
	r.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepository) Update(ctx context.Context, id string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepository) SetDeveloper(ctx context.Context, id string, developerID *string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t.DeveloperID = developerID
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepository) Delete(ctx context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return domain.Page[domain.Task]{}, errNotImplemented
}

func (r *fakeTaskRepository) ListByProject(ctx context.Context, projectID string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return domain.Page[domain.Task]{}, errNotImplemented
}

func (r *fakeTaskRepository) ListByDeveloper(ctx context.Context, developerID string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return domain.Page[domain.Task]{}, errNotImplemented
}

func (r *fakeTaskRepository) ListByStatus(ctx context.Context, status string, page domain.PageRequest) (domain.Page[domain.Task], error) {
	return domain.Page[domain.Task]{}, errNotImplemented
}

func (r *fakeTaskRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.Task, error) {
	return nil, errNotImplemented
}

func (r *fakeTaskRepository) ListUnassigned(ctx context.Context) ([]domain.Task, error) {
	return nil, errNotImplemented
}

func (r *fakeTaskRepository) ListByDueDateRange(ctx context.Context, start, end time.Time) ([]domain.Task, error) {
	return []domain.Task{}, nil
}

func (r *fakeTaskRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, t := range r.tasks {
		counts[t.Status]++
	}
	return counts, nil
}
