package scope

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

type ProjectFilter struct {
	all       bool
	managerID *uint64
}

func (f ProjectFilter) Empty() bool { return !f.all && f.managerID == nil }

func (f ProjectFilter) Apply(db *gorm.DB) *gorm.DB {
	switch {
	case f.all:
		return db
	case f.managerID != nil:
		return db.Where("projects.manager_id = ?", *f.managerID)
	default:
		return none(db)
	}
}

func (f ProjectFilter) Permits(p models.Project) bool {
	switch {
	case f.all:
		return true
	case f.managerID != nil:
		return p.ManagerID == *f.managerID
	default:
		return false
	}
}

type TaskFilter struct {
	all        bool
	projectIDs []uint64
	assigneeID *uint64
}

func (f TaskFilter) Empty() bool {
	return !f.all && len(f.projectIDs) == 0 && f.assigneeID == nil
}

func (f TaskFilter) Apply(db *gorm.DB) *gorm.DB {
	switch {
	case f.all:
		return db
	case len(f.projectIDs) > 0:
		return db.Where("tasks.project_id IN ?", f.projectIDs)
	case f.assigneeID != nil:
		return db.Where("tasks.assigned_to = ?", *f.assigneeID)
	default:
		return none(db)
	}
}

func (f TaskFilter) Permits(t models.Task) bool {
	switch {
	case f.all:
		return true
	case len(f.projectIDs) > 0:
		return containsID(f.projectIDs, t.ProjectID)
	case f.assigneeID != nil:
		return t.AssignedTo != nil && *t.AssignedTo == *f.assigneeID
	default:
		return false
	}
}

// ProjectIDs returns the managed project ids the filter is restricted to, or
// nil when it is not project based.
func (f TaskFilter) ProjectIDs() []uint64 { return f.projectIDs }

type TimesheetFilter struct {
	all        bool
	projectIDs []uint64
	userID     *uint64
}

func (f TimesheetFilter) Empty() bool {
	return !f.all && len(f.projectIDs) == 0 && f.userID == nil
}

// Apply restricts a query over timesheets. The manager case goes through the
// task's project with a subquery so callers do not need to join tasks.
func (f TimesheetFilter) Apply(db *gorm.DB) *gorm.DB {
	switch {
	case f.all:
		return db
	case len(f.projectIDs) > 0:
		return db.Where("timesheets.task_id IN (SELECT id FROM tasks WHERE project_id IN ?)", f.projectIDs)
	case f.userID != nil:
		return db.Where("timesheets.user_id = ?", *f.userID)
	default:
		return none(db)
	}
}

// Permits checks a fetched timesheet. projectID is the project of the
// timesheet's task.
func (f TimesheetFilter) Permits(ts models.Timesheet, projectID uint64) bool {
	switch {
	case f.all:
		return true
	case len(f.projectIDs) > 0:
		return containsID(f.projectIDs, projectID)
	case f.userID != nil:
		return ts.UserID == *f.userID
	default:
		return false
	}
}

type UserFilter struct {
	all    bool
	userID *uint64
}

func (f UserFilter) Empty() bool { return !f.all && f.userID == nil }

func (f UserFilter) Apply(db *gorm.DB) *gorm.DB {
	switch {
	case f.all:
		return db
	case f.userID != nil:
		return db.Where("users.id = ?", *f.userID)
	default:
		return none(db)
	}
}

func (f UserFilter) Permits(u models.User) bool {
	return f.all || (f.userID != nil && u.ID == *f.userID)
}
