package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// ProjectHandler serves project endpoints.
type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Name        string               `json:"name" binding:"required"`
		Description string               `json:"description"`
		Budget      float64              `json:"budget"`
		Status      models.ProjectStatus `json:"status"`
		StartDate   string               `json:"startDate" binding:"required"`
		EndDate     *string              `json:"endDate"`
		ManagerID   uint64               `json:"managerId" binding:"required"`
	}

	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	start, err := optionalDate(&req.StartDate, "startDate")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	end, err := optionalDate(req.EndDate, "endDate")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Budget:      req.Budget,
		Status:      req.Status,
		StartDate:   *start,
		EndDate:     end,
		ManagerID:   req.ManagerID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ProjectResponse{Message: "Project created successfully.", Project: dto.ToProjectDTO(*project)})
}

// ListProjects returns the projects visible to the current user
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	params, ok := pagination(c)
	if !ok {
		return
	}
	managerID, err := utils.OptionalUint(c, "managerId")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	input := services.ListProjectsInput{
		Viewer:    viewer,
		Name:      c.Query("name"),
		ManagerID: managerID,
		Page:      params.Page,
		PageSize:  params.Limit,
	}
	if status := c.Query("status"); status != "" {
		s := models.ProjectStatus(status)
		input.Status = &s
	}

	projects, total, err := h.projectService.List(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params.Page, params.Limit, total))
}

// GetProject returns a project by id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), viewer, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// UpdateProject changes the fields present in the body
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Budget      *float64              `json:"budget"`
		Status      *models.ProjectStatus `json:"status"`
		StartDate   *string               `json:"startDate"`
		EndDate     *string               `json:"endDate"`
		ManagerID   *uint64               `json:"managerId"`
	}

	var req UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	start, err := optionalDate(req.StartDate, "startDate")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	end, err := optionalDate(req.EndDate, "endDate")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), viewer, id, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Budget:      req.Budget,
		Status:      req.Status,
		StartDate:   start,
		EndDate:     end,
		ManagerID:   req.ManagerID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProjectResponse{Message: "Project updated successfully.", Project: dto.ToProjectDTO(*project)})
}

// AssignManager hands the project to another manager
func (h *ProjectHandler) AssignManager(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	type AssignManagerRequest struct {
		ManagerID uint64 `json:"managerId" binding:"required"`
	}

	var req AssignManagerRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.AssignManager(c.Request.Context(), id, req.ManagerID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProjectResponse{Message: "Manager assigned to project successfully.", Project: dto.ToProjectDTO(*project)})
}

// DeleteProject removes a project with its tasks and timesheets
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Project deleted successfully."})
}
