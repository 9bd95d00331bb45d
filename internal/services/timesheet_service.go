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
	"github.com/yukikurage/project-management-api/internal/utils"
	"go.uber.org/zap"
)

const (
	MinTimesheetHours = 0.1
	MaxTimesheetHours = 24
)

// TimesheetService handles logging work against tasks.
type TimesheetService struct {
	timesheetRepo repository.TimesheetRepository
	taskRepo      repository.TaskRepository
	resolver      *scope.Resolver
	publisher     events.Publisher
	log           *zap.Logger
	now           func() time.Time
}

// NewTimesheetService creates a new TimesheetService.
func NewTimesheetService(
	timesheetRepo repository.TimesheetRepository,
	taskRepo repository.TaskRepository,
	resolver *scope.Resolver,
	publisher events.Publisher,
	log *zap.Logger,
) *TimesheetService {
	return &TimesheetService{
		timesheetRepo: timesheetRepo,
		taskRepo:      taskRepo,
		resolver:      resolver,
		publisher:     publisher,
		log:           log,
		now:           time.Now,
	}
}

// CreateTimesheetInput is logged for the viewer.
type CreateTimesheetInput struct {
	Viewer   scope.Viewer
	TaskID   uint64
	WorkDate time.Time
	Hours    float64
	Remarks  string
}

// UpdateTimesheetInput holds the fields to change. Nil fields are left untouched.
type UpdateTimesheetInput struct {
	WorkDate *time.Time
	Hours    *float64
	Remarks  *string
}

// ListTimesheetsInput represents filters for listing timesheets.
type ListTimesheetsInput struct {
	Viewer    scope.Viewer
	WorkDate  *time.Time
	TaskID    *uint64
	ProjectID *uint64
	UserID    *uint64
	Page      int
	PageSize  int
}

// Create logs hours for the viewer on a task assigned to them. One entry per
// user, task and day is allowed.
func (s *TimesheetService) Create(ctx context.Context, input CreateTimesheetInput) (*models.Timesheet, error) {
	if input.TaskID == 0 {
		return nil, validationError("taskId is required")
	}
	workDate, err := s.checkEntry(input.WorkDate, input.Hours)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(ctx, input.TaskID, "Project")
	if err != nil {
		return nil, notFoundOr(err, ErrTaskNotFound, "find task")
	}
	if task.AssignedTo == nil || *task.AssignedTo != input.Viewer.ID {
		return nil, ErrTaskNotAssignedToMe
	}
	if task.Project.Status != models.ProjectStatusOngoing {
		return nil, ErrProjectNotOngoing
	}

	ts := &models.Timesheet{
		WorkDate: workDate,
		Hours:    input.Hours,
		Remarks:  strings.TrimSpace(input.Remarks),
		UserID:   input.Viewer.ID,
		TaskID:   task.ID,
	}
	if err := s.timesheetRepo.Create(ctx, ts); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateTimesheet
		}
		return nil, fmt.Errorf("failed to create timesheet: %w", err)
	}
	ts.Task = *task

	metrics.TimesheetsLogged.Inc()
	event := events.Event{
		Type:       events.TypeTimesheetLogged,
		EntityID:   ts.ID,
		ActorID:    input.Viewer.ID,
		To:         fmt.Sprint(task.ID),
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}

	return ts, nil
}

// Get returns a timesheet the viewer may see.
func (s *TimesheetService) Get(ctx context.Context, viewer scope.Viewer, id uint64) (*models.Timesheet, error) {
	ts, err := s.timesheetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrTimesheetNotFound, "find timesheet")
	}

	visible, err := s.resolver.Timesheets(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if !visible.Permits(*ts, ts.Task.ProjectID) {
		return nil, ErrTimesheetNotVisible
	}
	return ts, nil
}

// List returns the timesheets visible to the viewer, latest work date first.
func (s *TimesheetService) List(ctx context.Context, input ListTimesheetsInput) ([]models.Timesheet, int64, error) {
	visible, err := s.resolver.Timesheets(ctx, input.Viewer)
	if err != nil {
		return nil, 0, err
	}
	if visible.Empty() {
		return []models.Timesheet{}, 0, nil
	}

	timesheets, total, err := s.timesheetRepo.List(ctx, repository.TimesheetFilter{
		WorkDate:  input.WorkDate,
		TaskID:    input.TaskID,
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}, visible.Apply)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list timesheets: %w", err)
	}
	return timesheets, total, nil
}

// Update changes a timesheet owned by the viewer. Admins may change any.
func (s *TimesheetService) Update(ctx context.Context, viewer scope.Viewer, id uint64, input UpdateTimesheetInput) (*models.Timesheet, error) {
	if input.WorkDate == nil && input.Hours == nil && input.Remarks == nil {
		return nil, ErrNoFieldsToUpdate
	}

	ts, err := s.loadOwned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	workDate, hours := ts.WorkDate, ts.Hours
	if input.WorkDate != nil {
		workDate = *input.WorkDate
	}
	if input.Hours != nil {
		hours = *input.Hours
	}
	day, err := s.checkEntry(workDate, hours)
	if err != nil {
		return nil, err
	}
	ts.WorkDate = day
	ts.Hours = hours
	if input.Remarks != nil {
		ts.Remarks = strings.TrimSpace(*input.Remarks)
	}

	if err := s.timesheetRepo.Update(ctx, ts); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateTimesheet
		}
		return nil, fmt.Errorf("failed to update timesheet: %w", err)
	}
	return ts, nil
}

// Delete removes a timesheet owned by the viewer. Admins may delete any.
func (s *TimesheetService) Delete(ctx context.Context, viewer scope.Viewer, id uint64) error {
	if _, err := s.loadOwned(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.timesheetRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrTimesheetNotFound, "delete timesheet")
	}
	return nil
}

func (s *TimesheetService) loadOwned(ctx context.Context, viewer scope.Viewer, id uint64) (*models.Timesheet, error) {
	ts, err := s.timesheetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrTimesheetNotFound, "find timesheet")
	}
	if !viewer.IsAdmin() && ts.UserID != viewer.ID {
		return nil, ErrNotTimesheetOwner
	}
	return ts, nil
}

// checkEntry validates hours and returns the work date truncated to its UTC
// day. Future days are rejected.
func (s *TimesheetService) checkEntry(workDate time.Time, hours float64) (time.Time, error) {
	if workDate.IsZero() {
		return time.Time{}, validationError("workDate is required")
	}
	day := utils.TruncateDay(workDate)
	if day.After(utils.TruncateDay(s.now())) {
		return time.Time{}, validationError("workDate cannot be in the future")
	}
	if hours < MinTimesheetHours || hours > MaxTimesheetHours {
		return time.Time{}, validationError("hours must be between %.1f and %d", MinTimesheetHours, MaxTimesheetHours)
	}
	return day, nil
}
