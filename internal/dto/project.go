package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Budget      float64              `json:"budget"`
	Status      models.ProjectStatus `json:"status"`
	StartDate   string               `json:"startDate"`
	EndDate     *string              `json:"endDate"`
	ManagerID   uint64               `json:"managerId"`
	Manager     *UserRefDTO          `json:"manager,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ProjectRefDTO is the short form of a project embedded in tasks
type ProjectRefDTO struct {
	ID     uint64               `json:"id"`
	Name   string               `json:"name"`
	Status models.ProjectStatus `json:"status"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects []ProjectDTO `json:"projects"`
	Pagination
}

// ProjectResponse wraps a project returned by a mutation
type ProjectResponse struct {
	Message string     `json:"message"`
	Project ProjectDTO `json:"project"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Budget:      project.Budget,
		Status:      project.Status,
		StartDate:   project.StartDate.UTC().Format(utils.DateLayout),
		ManagerID:   project.ManagerID,
		Manager:     ToUserRefDTO(&project.Manager),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if project.EndDate != nil {
		end := project.EndDate.UTC().Format(utils.DateLayout)
		dto.EndDate = &end
	}
	return dto
}

// ToProjectListResponse converts a page of projects
func ToProjectListResponse(projects []models.Project, page, limit int, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		items[i] = ToProjectDTO(p)
	}
	return ProjectListResponse{Projects: items, Pagination: NewPagination(page, limit, total)}
}
