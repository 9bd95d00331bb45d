package repository

import (
	"context"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTimesheetRepository is a GORM implementation of TimesheetRepository
type GormTimesheetRepository struct {
	db *gorm.DB
}

// NewTimesheetRepository creates a new TimesheetRepository
func NewTimesheetRepository(db *gorm.DB) TimesheetRepository {
	return &GormTimesheetRepository{db: db}
}

// Create inserts the timesheet in a single statement. The unique index on
// (user_id, task_id, work_date) rejects duplicates.
func (r *GormTimesheetRepository) Create(ctx context.Context, ts *models.Timesheet) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(ts).Error)
}

// FindByID finds a timesheet by ID with its task loaded
func (r *GormTimesheetRepository) FindByID(ctx context.Context, id uint64) (*models.Timesheet, error) {
	var ts models.Timesheet
	if err := r.db.WithContext(ctx).Preload("Task").Preload("User").First(&ts, id).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

// List retrieves timesheets with filtering and pagination
func (r *GormTimesheetRepository) List(ctx context.Context, filter TimesheetFilter, scopes ...Scope) ([]models.Timesheet, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Timesheet{}).Scopes(scopes...)
		if filter.WorkDate != nil {
			q = q.Where("timesheets.work_date = ?", *filter.WorkDate)
		}
		if filter.TaskID != nil {
			q = q.Where("timesheets.task_id = ?", *filter.TaskID)
		}
		if filter.UserID != nil {
			q = q.Where("timesheets.user_id = ?", *filter.UserID)
		}
		if filter.ProjectID != nil {
			q = q.Where("timesheets.task_id IN (SELECT id FROM tasks WHERE project_id = ?)", *filter.ProjectID)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var timesheets []models.Timesheet
	listQuery := paginate(query().Order("timesheets.work_date DESC").Order("timesheets.id DESC"), filter.Page, filter.PageSize)
	if err := listQuery.Preload("Task").Preload("User").Find(&timesheets).Error; err != nil {
		return nil, 0, err
	}

	return timesheets, total, nil
}

// Update saves all timesheet columns
func (r *GormTimesheetRepository) Update(ctx context.Context, ts *models.Timesheet) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(ts).Error)
}

// Delete removes a timesheet
func (r *GormTimesheetRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Timesheet{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
