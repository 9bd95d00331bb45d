package repository

import (
	"context"

	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

// GormReportRepository is a GORM implementation of ReportRepository
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &GormReportRepository{db: db}
}

// ProjectTotals sums hours and cost per project for the given projects
func (r *GormReportRepository) ProjectTotals(ctx context.Context, projectIDs []uint64, rng utils.DateRange) (map[uint64]Totals, error) {
	out := make(map[uint64]Totals, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ProjectID  uint64
		TotalHours float64
		TotalCost  float64
	}
	err := r.db.WithContext(ctx).
		Table("timesheets").
		Select("tasks.project_id AS project_id, " +
			"COALESCE(SUM(timesheets.hours), 0) AS total_hours, " +
			"COALESCE(SUM(timesheets.hours * users.hourly_rate), 0) AS total_cost").
		Joins("JOIN tasks ON tasks.id = timesheets.task_id").
		Joins("JOIN users ON users.id = timesheets.user_id").
		Where("tasks.project_id IN ?", projectIDs).
		Scopes(workDateIn(rng)).
		Group("tasks.project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ProjectID] = Totals{TotalHours: row.TotalHours, TotalCost: row.TotalCost}
	}
	return out, nil
}

// UserHours sums hours per user for the given users
func (r *GormReportRepository) UserHours(ctx context.Context, userIDs []uint64, rng utils.DateRange) (map[uint64]float64, error) {
	return r.sumHoursBy(ctx, "timesheets.user_id", userIDs, rng)
}

// TaskHours sums hours per task for the given tasks
func (r *GormReportRepository) TaskHours(ctx context.Context, taskIDs []uint64, rng utils.DateRange) (map[uint64]float64, error) {
	return r.sumHoursBy(ctx, "timesheets.task_id", taskIDs, rng)
}

func (r *GormReportRepository) sumHoursBy(ctx context.Context, column string, ids []uint64, rng utils.DateRange) (map[uint64]float64, error) {
	out := make(map[uint64]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		GroupKey   uint64
		TotalHours float64
	}
	err := r.db.WithContext(ctx).
		Table("timesheets").
		Select(column+" AS group_key, COALESCE(SUM(timesheets.hours), 0) AS total_hours").
		Where(column+" IN ?", ids).
		Scopes(workDateIn(rng)).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.GroupKey] = row.TotalHours
	}
	return out, nil
}

// MonthlyByUser groups timesheets in rng by user. Timesheets are inner
// joined with their task so visibility scopes may refer to tasks columns.
func (r *GormReportRepository) MonthlyByUser(ctx context.Context, rng utils.DateRange, page utils.PaginationParams, scopes ...Scope) ([]UserMonthTotals, int64, error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Table("timesheets").
			Joins("JOIN tasks ON tasks.id = timesheets.task_id").
			Joins("JOIN users ON users.id = timesheets.user_id").
			Scopes(workDateIn(rng)).
			Scopes(scopes...)
	}

	var total int64
	if err := query().Distinct("timesheets.user_id").Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []UserMonthTotals{}, 0, nil
	}

	var rows []UserMonthTotals
	err := query().
		Select("users.id AS employee_id, users.name AS employee_name, users.email AS employee_email, " +
			"users.hourly_rate AS hourly_rate, COALESCE(SUM(timesheets.hours), 0) AS total_hours").
		Group("users.id, users.name, users.email, users.hourly_rate").
		Order("users.id ASC").
		Scopes(paginateParams(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func paginateParams(p utils.PaginationParams) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return paginate(db, p.Page, p.Limit)
	}
}
