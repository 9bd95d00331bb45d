package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	EstimatedHours float64           `json:"estimatedHours"`
	Status         models.TaskStatus `json:"status"`
	ProjectID      uint64            `json:"projectId"`
	AssignedTo     *uint64           `json:"assignedTo"`
	Project        *ProjectRefDTO    `json:"project,omitempty"`
	AssignedUser   *UserRefDTO       `json:"assignedUser,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
	Pagination
}

// TaskResponse wraps a task returned by a mutation
type TaskResponse struct {
	Message string  `json:"message"`
	Task    TaskDTO `json:"task"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		EstimatedHours: task.EstimatedHours,
		Status:         task.Status,
		ProjectID:      task.ProjectID,
		AssignedTo:     task.AssignedTo,
		AssignedUser:   ToUserRefDTO(task.Assignee),
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	// Include project if preloaded
	if task.Project.ID != 0 {
		dto.Project = &ProjectRefDTO{
			ID:     task.Project.ID,
			Name:   task.Project.Name,
			Status: task.Project.Status,
		}
	}

	return dto
}

// ToTaskListResponse converts a page of tasks
func ToTaskListResponse(tasks []models.Task, page, limit int, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return TaskListResponse{Tasks: items, Pagination: NewPagination(page, limit, total)}
}
