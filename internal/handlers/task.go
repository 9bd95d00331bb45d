package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks visible to the current user, newest first
func (h *TaskHandler) ListTasks(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	params, ok := pagination(c)
	if !ok {
		return
	}

	projectID, err := utils.OptionalUint(c, "projectId")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	assignedTo, err := utils.OptionalUint(c, "assignedTo")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	input := services.ListTasksInput{
		Viewer:     viewer,
		Title:      c.Query("title"),
		ProjectID:  projectID,
		AssignedTo: assignedTo,
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}

	tasks, total, err := h.taskService.List(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), viewer, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title          string            `json:"title" binding:"required"`
		Description    string            `json:"description"`
		EstimatedHours float64           `json:"estimatedHours"`
		Status         models.TaskStatus `json:"status"`
		ProjectID      uint64            `json:"projectId" binding:"required"`
		AssignedTo     *uint64           `json:"assignedTo"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), services.CreateTaskInput{
		Viewer:         viewer,
		Title:          req.Title,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		Status:         req.Status,
		ProjectID:      req.ProjectID,
		AssignedTo:     req.AssignedTo,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TaskResponse{Message: "Task created successfully.", Task: dto.ToTaskDTO(*task)})
}

// UpdateTask updates an existing task. "assignedTo": null unassigns it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title          *string            `json:"title"`
		Description    *string            `json:"description"`
		EstimatedHours *float64           `json:"estimatedHours"`
		Status         *models.TaskStatus `json:"status"`
		ProjectID      *uint64            `json:"projectId"`
		AssignedTo     *uint64            `json:"assignedTo"`
	}

	var req UpdateTaskRequest
	fields, ok := decodeWithFields(c, &req)
	if !ok {
		return
	}

	_, hasAssignee := fields["assignedTo"]
	var extra []string
	for key := range fields {
		if key != "status" {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)

	task, err := h.taskService.Update(c.Request.Context(), viewer, id, services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		Status:         req.Status,
		ProjectID:      req.ProjectID,
		AssignedTo:     req.AssignedTo,
		ClearAssignee:  hasAssignee && req.AssignedTo == nil,
		ExtraKeys:      extra,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Message: "Task updated successfully.", Task: dto.ToTaskDTO(*task)})
}

// AssignTask sets the assignee; null unassigns the task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	type AssignTaskRequest struct {
		AssignedTo *uint64 `json:"assignedTo"`
	}

	var req AssignTaskRequest
	fields, ok := decodeWithFields(c, &req)
	if !ok {
		return
	}
	if _, present := fields["assignedTo"]; !present {
		apierrors.BadRequest(c, "assignedTo is required (use null to unassign)")
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), viewer, id, req.AssignedTo)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Message: "Task assigned successfully.", Task: dto.ToTaskDTO(*task)})
}

// DeleteTask deletes a task and its timesheets
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), viewer, id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully."})
}

// decodeWithFields decodes the body into req and also returns the top-level
// keys that were sent, so explicit nulls can be told apart from absent fields.
func decodeWithFields(c *gin.Context, req any) (map[string]json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.RespondWithError(c, http.StatusRequestEntityTooLarge,
				apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "request body too large"))
			return nil, false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return nil, false
	}
	return fields, true
}
