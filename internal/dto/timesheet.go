package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// TimesheetDTO represents a timesheet in API responses
type TimesheetDTO struct {
	ID        uint64      `json:"id"`
	WorkDate  string      `json:"workDate"`
	Hours     float64     `json:"hours"`
	Remarks   string      `json:"remarks"`
	UserID    uint64      `json:"userId"`
	TaskID    uint64      `json:"taskId"`
	User      *UserRefDTO `json:"user,omitempty"`
	Task      *TaskRefDTO `json:"task,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TaskRefDTO is the short form of a task embedded in timesheets
type TaskRefDTO struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	ProjectID uint64 `json:"projectId"`
}

// TimesheetListResponse represents a paginated list of timesheets
type TimesheetListResponse struct {
	Timesheets []TimesheetDTO `json:"timesheets"`
	Pagination
}

// TimesheetResponse wraps a timesheet returned by a mutation
type TimesheetResponse struct {
	Message   string       `json:"message"`
	Timesheet TimesheetDTO `json:"timesheet"`
}

// ToTimesheetDTO converts a Timesheet model to TimesheetDTO
func ToTimesheetDTO(ts models.Timesheet) TimesheetDTO {
	dto := TimesheetDTO{
		ID:        ts.ID,
		WorkDate:  ts.WorkDate.UTC().Format(utils.DateLayout),
		Hours:     ts.Hours,
		Remarks:   ts.Remarks,
		UserID:    ts.UserID,
		TaskID:    ts.TaskID,
		User:      ToUserRefDTO(&ts.User),
		CreatedAt: ts.CreatedAt,
		UpdatedAt: ts.UpdatedAt,
	}
	if ts.Task.ID != 0 {
		dto.Task = &TaskRefDTO{ID: ts.Task.ID, Title: ts.Task.Title, ProjectID: ts.Task.ProjectID}
	}
	return dto
}

// ToTimesheetListResponse converts a page of timesheets
func ToTimesheetListResponse(timesheets []models.Timesheet, page, limit int, total int64) TimesheetListResponse {
	items := make([]TimesheetDTO, len(timesheets))
	for i, ts := range timesheets {
		items[i] = ToTimesheetDTO(ts)
	}
	return TimesheetListResponse{Timesheets: items, Pagination: NewPagination(page, limit, total)}
}
