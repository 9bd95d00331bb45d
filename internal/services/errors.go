package services

import (
	"errors"
	"fmt"

	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = fmt.Errorf("user %w", apierrors.ErrNotFound)
	ErrProjectNotFound   = fmt.Errorf("project %w", apierrors.ErrNotFound)
	ErrTaskNotFound      = fmt.Errorf("task %w", apierrors.ErrNotFound)
	ErrTimesheetNotFound = fmt.Errorf("timesheet %w", apierrors.ErrNotFound)

	ErrEmailTaken         = fmt.Errorf("email %w", apierrors.ErrDuplicate)
	ErrDuplicateTimesheet = fmt.Errorf("timesheet for this task and date %w", apierrors.ErrDuplicate)

	ErrInvalidCredentials   = fmt.Errorf("%w: invalid credentials", apierrors.ErrValidation)
	ErrTooManyLoginAttempts = fmt.Errorf("%w: too many failed login attempts, try again later", apierrors.ErrValidation)
	ErrInvalidToken         = fmt.Errorf("%w: invalid or expired token", apierrors.ErrUnauthenticated)
	ErrAccountDisabled      = apierrors.ErrAccountDisabled

	ErrInvalidManager   = fmt.Errorf("%w: manager must be a user with role MANAGER", apierrors.ErrValidation)
	ErrInvalidAssignee  = fmt.Errorf("%w: tasks can only be assigned to active employees", apierrors.ErrValidation)
	ErrNoFieldsToUpdate = fmt.Errorf("%w: at least one field must be provided", apierrors.ErrValidation)

	ErrNotProjectManager   = fmt.Errorf("%w: you do not manage this project", apierrors.ErrForbidden)
	ErrTaskNotVisible      = fmt.Errorf("%w: you cannot access this task", apierrors.ErrForbidden)
	ErrTimesheetNotVisible = fmt.Errorf("%w: you cannot access this timesheet", apierrors.ErrForbidden)
	ErrEmployeeStatusOnly  = fmt.Errorf("%w: employees may only update the task status", apierrors.ErrForbidden)
	ErrNotTimesheetOwner   = fmt.Errorf("%w: only the owner may modify this timesheet", apierrors.ErrForbidden)
	ErrManagerReassign     = fmt.Errorf("%w: only an admin can change the project manager", apierrors.ErrForbidden)

	ErrProjectNotOngoing   = fmt.Errorf("%w: time can only be logged on ongoing projects", apierrors.ErrBusinessRule)
	ErrTaskNotAssignedToMe = fmt.Errorf("%w: time can only be logged on tasks assigned to you", apierrors.ErrBusinessRule)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apierrors.ErrValidation, fmt.Sprintf(format, args...))
}

func invalidTransition(from, to models.TaskStatus) error {
	return fmt.Errorf("%w: cannot move task from %s to %s", apierrors.ErrInvalidTransition, from, to)
}

// notFoundOr maps gorm.ErrRecordNotFound to notFound and wraps anything else.
func notFoundOr(err, notFound error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
