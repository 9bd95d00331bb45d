package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/scope"
	"gorm.io/gorm"
)

// ProjectService handles project business logic.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	resolver    *scope.Resolver
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, resolver *scope.Resolver) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		resolver:    resolver,
	}
}

// CreateProjectInput represents the information needed to create a project.
type CreateProjectInput struct {
	Name        string
	Description string
	Budget      float64
	Status      models.ProjectStatus
	StartDate   time.Time
	EndDate     *time.Time
	ManagerID   uint64
}

// UpdateProjectInput holds the fields to change. Nil fields are left untouched.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Budget      *float64
	Status      *models.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	ManagerID   *uint64
}

func (in UpdateProjectInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.Budget == nil && in.Status == nil &&
		in.StartDate == nil && in.EndDate == nil && in.ManagerID == nil
}

// ListProjectsInput represents filters for listing projects.
type ListProjectsInput struct {
	Viewer    scope.Viewer
	Name      string
	Status    *models.ProjectStatus
	ManagerID *uint64
	Page      int
	PageSize  int
}

// Create stores a new project. The manager must be an existing MANAGER.
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	if input.Budget < 0 {
		return nil, validationError("budget must not be negative")
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusOngoing
	}
	if !status.Valid() {
		return nil, validationError("status must be one of ONGOING, COMPLETED")
	}

	if input.StartDate.IsZero() {
		return nil, validationError("startDate is required")
	}
	if err := checkDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	manager, err := s.loadManager(ctx, input.ManagerID)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Budget:      input.Budget,
		Status:      status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		ManagerID:   manager.ID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	project.Manager = *manager

	return project, nil
}

// Get returns a project the viewer may see.
func (s *ProjectService) Get(ctx context.Context, viewer scope.Viewer, id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id, "Manager")
	if err != nil {
		return nil, notFoundOr(err, ErrProjectNotFound, "find project")
	}
	if !s.resolver.Projects(viewer).Permits(*project) {
		return nil, ErrNotProjectManager
	}
	return project, nil
}

// List returns the projects visible to the viewer.
func (s *ProjectService) List(ctx context.Context, input ListProjectsInput) ([]models.Project, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, validationError("status must be one of ONGOING, COMPLETED")
	}

	visible := s.resolver.Projects(input.Viewer)
	if visible.Empty() {
		return []models.Project{}, 0, nil
	}

	projects, total, err := s.projectRepo.List(ctx, repository.ProjectFilter{
		Name:      strings.TrimSpace(input.Name),
		Status:    input.Status,
		ManagerID: input.ManagerID,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}, visible.Apply)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// Update changes the provided fields. Managers may only update their own
// projects and may not hand them to another manager.
func (s *ProjectService) Update(ctx context.Context, viewer scope.Viewer, id uint64, input UpdateProjectInput) (*models.Project, error) {
	if input.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	project, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	if input.ManagerID != nil && *input.ManagerID != project.ManagerID && !viewer.IsAdmin() {
		return nil, ErrManagerReassign
	}

	if input.Name != nil {
		name, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Budget != nil {
		if *input.Budget < 0 {
			return nil, validationError("budget must not be negative")
		}
		project.Budget = *input.Budget
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, validationError("status must be one of ONGOING, COMPLETED")
		}
		project.Status = *input.Status
	}
	if input.StartDate != nil {
		project.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if err := checkDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}
	if input.ManagerID != nil && *input.ManagerID != project.ManagerID {
		manager, err := s.loadManager(ctx, *input.ManagerID)
		if err != nil {
			return nil, err
		}
		project.ManagerID = manager.ID
		project.Manager = *manager
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// AssignManager hands a project to another manager.
func (s *ProjectService) AssignManager(ctx context.Context, id, managerID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrProjectNotFound, "find project")
	}

	manager, err := s.loadManager(ctx, managerID)
	if err != nil {
		return nil, err
	}

	project.ManagerID = manager.ID
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to assign manager: %w", err)
	}
	project.Manager = *manager
	return project, nil
}

// Delete removes a project with its tasks and timesheets.
func (s *ProjectService) Delete(ctx context.Context, id uint64) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrProjectNotFound, "delete project")
	}
	return nil
}

func (s *ProjectService) loadManager(ctx context.Context, id uint64) (*models.User, error) {
	if id == 0 {
		return nil, validationError("managerId is required")
	}
	manager, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidManager
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find manager: %w", err)
	}
	if manager.Role != models.RoleManager {
		return nil, ErrInvalidManager
	}
	return manager, nil
}

func checkDates(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return validationError("endDate must not be before startDate")
	}
	return nil
}
