package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when a write violates a unique constraint.
var ErrDuplicateKey = errors.New("repository: duplicate key")

// Scope narrows a query. Visibility filters are passed to list methods as scopes.
type Scope = func(*gorm.DB) *gorm.DB

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email address
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users with filtering and pagination
	List(ctx context.Context, filter UserFilter, scopes ...Scope) ([]models.User, int64, error)

	// Update saves all user columns
	Update(ctx context.Context, user *models.User) error
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Name     string
	Email    string
	Role     *models.Role
	IsActive *bool
	IDs      []uint64
	Page     int
	PageSize int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error)

	List(ctx context.Context, filter ProjectFilter, scopes ...Scope) ([]models.Project, int64, error)

	Update(ctx context.Context, project *models.Project) error

	// Delete removes a project together with its tasks and their timesheets
	Delete(ctx context.Context, id uint64) error

	// ManagedProjectIDs returns the ids of projects managed by managerID
	ManagedProjectIDs(ctx context.Context, managerID uint64) ([]uint64, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	Name      string
	Status    *models.ProjectStatus
	ManagerID *uint64
	Page      int
	PageSize  int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination, newest first
	List(ctx context.Context, filter TaskFilter, scopes ...Scope) ([]models.Task, int64, error)

	Update(ctx context.Context, task *models.Task) error

	// Delete removes a task together with its timesheets
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Title      string
	Status     *models.TaskStatus
	ProjectID  *uint64
	AssignedTo *uint64
	Page       int
	PageSize   int
}

// TimesheetRepository defines the interface for timesheet data access
type TimesheetRepository interface {
	// Create inserts a timesheet; a second entry for the same user, task and
	// day fails with ErrDuplicateKey
	Create(ctx context.Context, ts *models.Timesheet) error

	// FindByID finds a timesheet by ID with its task loaded
	FindByID(ctx context.Context, id uint64) (*models.Timesheet, error)

	// List retrieves timesheets with filtering and pagination, latest work date first
	List(ctx context.Context, filter TimesheetFilter, scopes ...Scope) ([]models.Timesheet, int64, error)

	Update(ctx context.Context, ts *models.Timesheet) error

	Delete(ctx context.Context, id uint64) error
}

// TimesheetFilter holds filtering options for listing timesheets
type TimesheetFilter struct {
	WorkDate  *time.Time
	TaskID    *uint64
	ProjectID *uint64
	UserID    *uint64
	Page      int
	PageSize  int
}

// ReportRepository computes aggregates over timesheets
type ReportRepository interface {
	// ProjectTotals sums hours and cost (hours x hourly rate) per project
	ProjectTotals(ctx context.Context, projectIDs []uint64, rng utils.DateRange) (map[uint64]Totals, error)

	// UserHours sums hours per user
	UserHours(ctx context.Context, userIDs []uint64, rng utils.DateRange) (map[uint64]float64, error)

	// TaskHours sums hours per task
	TaskHours(ctx context.Context, taskIDs []uint64, rng utils.DateRange) (map[uint64]float64, error)

	// MonthlyByUser groups timesheets in rng by user
	MonthlyByUser(ctx context.Context, rng utils.DateRange, page utils.PaginationParams, scopes ...Scope) ([]UserMonthTotals, int64, error)
}

// Totals is a sum of logged hours and their cost.
type Totals struct {
	TotalHours float64
	TotalCost  float64
}

// UserMonthTotals is one row of the monthly summary.
type UserMonthTotals struct {
	EmployeeID    uint64
	EmployeeName  string
	EmployeeEmail string
	HourlyRate    float64
	TotalHours    float64
}

func paginate(db *gorm.DB, page, pageSize int) *gorm.DB {
	if page > 0 && pageSize > 0 {
		return db.Scopes(database.Paginate(utils.NewPaginationParams(page, pageSize)))
	}
	return db
}

// containsFold matches column values containing s, ignoring case.
func containsFold(column, s string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(s)+"%")
	}
}

func workDateIn(rng utils.DateRange) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if rng.From != nil {
			db = db.Where("timesheets.work_date >= ?", *rng.From)
		}
		if rng.To != nil {
			db = db.Where("timesheets.work_date <= ?", *rng.To)
		}
		return db
	}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return errors.Join(ErrDuplicateKey, err)
	}
	return err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
