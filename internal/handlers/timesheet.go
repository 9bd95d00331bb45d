package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// TimesheetHandler serves timesheet endpoints.
type TimesheetHandler struct {
	timesheetService *services.TimesheetService
}

func NewTimesheetHandler(timesheetService *services.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheetService: timesheetService}
}

// CreateTimesheet logs hours for the current user
func (h *TimesheetHandler) CreateTimesheet(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	type CreateTimesheetRequest struct {
		TaskID   uint64  `json:"taskId" binding:"required"`
		WorkDate string  `json:"workDate" binding:"required"`
		Hours    float64 `json:"hours" binding:"required"`
		Remarks  string  `json:"remarks"`
	}

	var req CreateTimesheetRequest
	if !bindJSON(c, &req) {
		return
	}

	workDate, err := optionalDate(&req.WorkDate, "workDate")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	ts, err := h.timesheetService.Create(c.Request.Context(), services.CreateTimesheetInput{
		Viewer:   viewer,
		TaskID:   req.TaskID,
		WorkDate: *workDate,
		Hours:    req.Hours,
		Remarks:  req.Remarks,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TimesheetResponse{Message: "Timesheet logged successfully.", Timesheet: dto.ToTimesheetDTO(*ts)})
}

// ListTimesheets returns the timesheets visible to the current user
func (h *TimesheetHandler) ListTimesheets(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	params, ok := pagination(c)
	if !ok {
		return
	}

	input := services.ListTimesheetsInput{
		Viewer:   viewer,
		Page:     params.Page,
		PageSize: params.Limit,
	}

	var err error
	workDate := c.Query("workDate")
	if input.WorkDate, err = optionalDate(&workDate, "workDate"); err != nil {
		apierrors.Respond(c, err)
		return
	}
	if input.TaskID, err = utils.OptionalUint(c, "taskId"); err != nil {
		apierrors.Respond(c, err)
		return
	}
	if input.ProjectID, err = utils.OptionalUint(c, "projectId"); err != nil {
		apierrors.Respond(c, err)
		return
	}
	if input.UserID, err = utils.OptionalUint(c, "employeeId"); err != nil {
		apierrors.Respond(c, err)
		return
	}

	timesheets, total, err := h.timesheetService.List(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimesheetListResponse(timesheets, params.Page, params.Limit, total))
}

// GetTimesheet returns a specific timesheet by ID
func (h *TimesheetHandler) GetTimesheet(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	ts, err := h.timesheetService.Get(c.Request.Context(), viewer, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimesheetDTO(*ts))
}

// UpdateTimesheet changes an entry owned by the current user
func (h *TimesheetHandler) UpdateTimesheet(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	type UpdateTimesheetRequest struct {
		WorkDate *string  `json:"workDate"`
		Hours    *float64 `json:"hours"`
		Remarks  *string  `json:"remarks"`
	}

	var req UpdateTimesheetRequest
	if !bindJSON(c, &req) {
		return
	}

	var workDate *time.Time
	if req.WorkDate != nil {
		d, err := optionalDate(req.WorkDate, "workDate")
		if err != nil {
			apierrors.Respond(c, err)
			return
		}
		if d == nil {
			apierrors.BadRequest(c, "workDate must not be empty")
			return
		}
		workDate = d
	}

	ts, err := h.timesheetService.Update(c.Request.Context(), viewer, id, services.UpdateTimesheetInput{
		WorkDate: workDate,
		Hours:    req.Hours,
		Remarks:  req.Remarks,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TimesheetResponse{Message: "Timesheet updated successfully.", Timesheet: dto.ToTimesheetDTO(*ts)})
}

// DeleteTimesheet removes an entry owned by the current user
func (h *TimesheetHandler) DeleteTimesheet(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.timesheetService.Delete(c.Request.Context(), viewer, id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Timesheet deleted successfully."})
}
