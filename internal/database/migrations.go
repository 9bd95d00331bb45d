package database

import (
	"fmt"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes used by the list and report queries.
// Single-column indexes are declared on the models.
func AddIndexes(db *gorm.DB) error {
	type compositeIndex struct {
		model   interface{}
		name    string
		columns string
		table   string
	}

	indexes := []compositeIndex{
		// Timesheet lists are ordered by work_date per user.
		{&models.Timesheet{}, "idx_timesheets_user_work_date", "user_id, work_date", "timesheets"},
		// Task completion and project cost group timesheets by task within a date range.
		{&models.Timesheet{}, "idx_timesheets_task_work_date", "task_id, work_date", "timesheets"},
		// Task lists filter by project and status.
		{&models.Task{}, "idx_tasks_project_status", "project_id, status", "tasks"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
