package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/events"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/scope"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService handles task business logic.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	resolver    *scope.Resolver
	publisher   events.Publisher
	log         *zap.Logger
	now         func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	resolver *scope.Resolver,
	publisher events.Publisher,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		resolver:    resolver,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// ListTasksInput represents filters for listing tasks.
type ListTasksInput struct {
	Viewer     scope.Viewer
	Title      string
	Status     *models.TaskStatus
	ProjectID  *uint64
	AssignedTo *uint64
	Page       int
	PageSize   int
}

// CreateTaskInput represents the information needed to create a task.
type CreateTaskInput struct {
	Viewer         scope.Viewer
	Title          string
	Description    string
	EstimatedHours float64
	Status         models.TaskStatus
	ProjectID      uint64
	AssignedTo     *uint64
}

// UpdateTaskInput holds the fields to change. Nil fields are left untouched;
// ClearAssignee removes the current assignee. ExtraKeys lists the request keys
// other than "status", including ones that were null or unknown, so that
// employees can be held to status-only requests.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	EstimatedHours *float64
	Status         *models.TaskStatus
	ProjectID      *uint64
	AssignedTo     *uint64
	ClearAssignee  bool
	ExtraKeys      []string
}

func (in UpdateTaskInput) empty() bool {
	return in.Status == nil && !in.changesNonStatus()
}

func (in UpdateTaskInput) changesNonStatus() bool {
	return in.Title != nil || in.Description != nil || in.EstimatedHours != nil ||
		in.ProjectID != nil || in.AssignedTo != nil || in.ClearAssignee
}

func (in UpdateTaskInput) hasNonStatusFields() bool {
	return in.changesNonStatus() || len(in.ExtraKeys) > 0
}

// List returns the tasks visible to the viewer, newest first.
func (s *TaskService) List(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, validationError("status must be one of TODO, IN_PROGRESS, DONE")
	}

	visible, err := s.resolver.Tasks(ctx, input.Viewer)
	if err != nil {
		return nil, 0, err
	}
	if visible.Empty() {
		return []models.Task{}, 0, nil
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		Title:      strings.TrimSpace(input.Title),
		Status:     input.Status,
		ProjectID:  input.ProjectID,
		AssignedTo: input.AssignedTo,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}, visible.Apply)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// Get returns a task the viewer may see.
func (s *TaskService) Get(ctx context.Context, viewer scope.Viewer, id uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, "Project", "Assignee")
	if err != nil {
		return nil, notFoundOr(err, ErrTaskNotFound, "find task")
	}

	visible, err := s.resolver.Tasks(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if !visible.Permits(*task) {
		return nil, ErrTaskNotVisible
	}
	return task, nil
}

// Create stores a new task in a project the viewer may manage.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title, err := normalizeName(input.Title)
	if err != nil {
		return nil, err
	}
	if input.EstimatedHours < 0 {
		return nil, validationError("estimatedHours must not be negative")
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !status.Valid() {
		return nil, validationError("status must be one of TODO, IN_PROGRESS, DONE")
	}

	project, err := s.loadManagedProject(ctx, input.Viewer, input.ProjectID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		EstimatedHours: input.EstimatedHours,
		Status:         status,
		ProjectID:      project.ID,
		Project:        *project,
	}

	if input.AssignedTo != nil {
		assignee, err := s.loadAssignee(ctx, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = &assignee.ID
		task.Assignee = assignee
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if task.AssignedTo != nil {
		s.publish(ctx, events.Event{
			Type:     events.TypeTaskAssigned,
			EntityID: task.ID,
			ActorID:  input.Viewer.ID,
			To:       fmt.Sprint(*task.AssignedTo),
		})
	}
	return task, nil
}

// Update changes a task. Employees may only change the status of tasks
// assigned to them; status changes follow the transition table for everyone.
func (s *TaskService) Update(ctx context.Context, viewer scope.Viewer, id uint64, input UpdateTaskInput) (*models.Task, error) {
	if input.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	task, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	if viewer.IsEmployee() && input.hasNonStatusFields() {
		return nil, ErrEmployeeStatusOnly
	}

	from := task.Status
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, validationError("status must be one of TODO, IN_PROGRESS, DONE")
		}
		if !from.CanTransitionTo(*input.Status) {
			return nil, invalidTransition(from, *input.Status)
		}
		task.Status = *input.Status
	}

	if input.Title != nil {
		title, err := normalizeName(*input.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.EstimatedHours != nil {
		if *input.EstimatedHours < 0 {
			return nil, validationError("estimatedHours must not be negative")
		}
		task.EstimatedHours = *input.EstimatedHours
	}
	if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
		project, err := s.loadManagedProject(ctx, viewer, *input.ProjectID)
		if err != nil {
			return nil, err
		}
		task.ProjectID = project.ID
		task.Project = *project
	}

	previousAssignee := task.AssignedTo
	switch {
	case input.ClearAssignee:
		task.AssignedTo = nil
		task.Assignee = nil
	case input.AssignedTo != nil:
		assignee, err := s.loadAssignee(ctx, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = &assignee.ID
		task.Assignee = assignee
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if task.Status != from {
		s.recordTransition(ctx, viewer, task.ID, from, task.Status)
	}
	if !sameAssignee(previousAssignee, task.AssignedTo) {
		s.publishAssignment(ctx, viewer, task)
	}
	return task, nil
}

// Assign sets or clears the assignee. A nil assigneeID unassigns the task.
func (s *TaskService) Assign(ctx context.Context, viewer scope.Viewer, id uint64, assigneeID *uint64) (*models.Task, error) {
	input := UpdateTaskInput{AssignedTo: assigneeID, ClearAssignee: assigneeID == nil}
	return s.Update(ctx, viewer, id, input)
}

// Delete removes a task with its timesheets.
func (s *TaskService) Delete(ctx context.Context, viewer scope.Viewer, id uint64) error {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrTaskNotFound, "delete task")
	}
	return nil
}

// loadManagedProject loads a project and checks that the viewer may add tasks
// to it.
func (s *TaskService) loadManagedProject(ctx context.Context, viewer scope.Viewer, projectID uint64) (*models.Project, error) {
	if projectID == 0 {
		return nil, validationError("projectId is required")
	}
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFoundOr(err, ErrProjectNotFound, "find project")
	}
	if !s.resolver.Projects(viewer).Permits(*project) {
		return nil, ErrNotProjectManager
	}
	return project, nil
}

func (s *TaskService) loadAssignee(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidAssignee
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assignee: %w", err)
	}
	if user.Role != models.RoleEmployee || !user.IsActive {
		return nil, ErrInvalidAssignee
	}
	return user, nil
}

func (s *TaskService) recordTransition(ctx context.Context, viewer scope.Viewer, taskID uint64, from, to models.TaskStatus) {
	metrics.TaskTransitions.WithLabelValues(string(from), string(to)).Inc()
	s.publish(ctx, events.Event{
		Type:     events.TypeTaskStatusChanged,
		EntityID: taskID,
		ActorID:  viewer.ID,
		From:     string(from),
		To:       string(to),
	})
}

func (s *TaskService) publishAssignment(ctx context.Context, viewer scope.Viewer, task *models.Task) {
	event := events.Event{
		Type:     events.TypeTaskAssigned,
		EntityID: task.ID,
		ActorID:  viewer.ID,
	}
	if task.AssignedTo != nil {
		event.To = fmt.Sprint(*task.AssignedTo)
	}
	s.publish(ctx, event)
}

// publish never fails the request; the change is already committed.
func (s *TaskService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.Uint64("entity_id", event.EntityID),
			zap.Error(err),
		)
	}
}

func sameAssignee(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
