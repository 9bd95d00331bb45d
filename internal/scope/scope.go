// Package scope computes what a caller may see. Each entity has one filter
// type built from the caller's id and role; list and report queries apply it
// with Apply, single-item reads check the fetched row with Permits.
package scope

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// Viewer is the authenticated caller.
type Viewer struct {
	ID   uint64
	Role models.Role
}

func (v Viewer) IsAdmin() bool    { return v.Role == models.RoleAdmin }
func (v Viewer) IsManager() bool  { return v.Role == models.RoleManager }
func (v Viewer) IsEmployee() bool { return v.Role == models.RoleEmployee }

// ManagedProjects resolves the ids of the projects a manager owns.
type ManagedProjects interface {
	ManagedProjectIDs(ctx context.Context, managerID uint64) ([]uint64, error)
}

// Resolver builds per-entity filters for a viewer.
type Resolver struct {
	projects ManagedProjects
}

func NewResolver(projects ManagedProjects) *Resolver {
	return &Resolver{projects: projects}
}

// Projects returns the project filter. Managers see the projects they manage;
// employees see none.
func (r *Resolver) Projects(v Viewer) ProjectFilter {
	switch v.Role {
	case models.RoleAdmin:
		return ProjectFilter{all: true}
	case models.RoleManager:
		id := v.ID
		return ProjectFilter{managerID: &id}
	default:
		return ProjectFilter{}
	}
}

// Tasks returns the task filter. For a manager the managed project ids are
// resolved first; a manager without projects gets an empty filter.
func (r *Resolver) Tasks(ctx context.Context, v Viewer) (TaskFilter, error) {
	switch v.Role {
	case models.RoleAdmin:
		return TaskFilter{all: true}, nil
	case models.RoleManager:
		ids, err := r.managed(ctx, v.ID)
		if err != nil {
			return TaskFilter{}, err
		}
		return TaskFilter{projectIDs: ids}, nil
	case models.RoleEmployee:
		id := v.ID
		return TaskFilter{assigneeID: &id}, nil
	default:
		return TaskFilter{}, nil
	}
}

// Timesheets returns the timesheet filter. Managers see timesheets logged
// against tasks of their projects; employees see their own.
func (r *Resolver) Timesheets(ctx context.Context, v Viewer) (TimesheetFilter, error) {
	switch v.Role {
	case models.RoleAdmin:
		return TimesheetFilter{all: true}, nil
	case models.RoleManager:
		ids, err := r.managed(ctx, v.ID)
		if err != nil {
			return TimesheetFilter{}, err
		}
		return TimesheetFilter{projectIDs: ids}, nil
	case models.RoleEmployee:
		id := v.ID
		return TimesheetFilter{userID: &id}, nil
	default:
		return TimesheetFilter{}, nil
	}
}

// Users returns the user filter used by the work-hour report. Employees only
// see themselves.
func (r *Resolver) Users(v Viewer) UserFilter {
	switch v.Role {
	case models.RoleAdmin, models.RoleManager:
		return UserFilter{all: true}
	case models.RoleEmployee:
		id := v.ID
		return UserFilter{userID: &id}
	default:
		return UserFilter{}
	}
}

func (r *Resolver) managed(ctx context.Context, managerID uint64) ([]uint64, error) {
	ids, err := r.projects.ManagedProjectIDs(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve managed projects: %w", err)
	}
	return ids, nil
}

// none matches no rows. It is only reached when a caller applies an empty
// filter instead of short-circuiting on Empty.
func none(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
