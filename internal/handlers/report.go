package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// ReportHandler serves the aggregate report endpoints.
type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// reportQuery reads the viewer, date range and pagination shared by all
// paginated reports.
func reportQuery(c *gin.Context) (services.ReportQuery, bool) {
	viewer, ok := currentViewer(c)
	if !ok {
		return services.ReportQuery{}, false
	}
	params, ok := pagination(c)
	if !ok {
		return services.ReportQuery{}, false
	}
	rng, err := utils.ParseDateRange(c)
	if err != nil {
		apierrors.Respond(c, err)
		return services.ReportQuery{}, false
	}
	return services.ReportQuery{Viewer: viewer, Range: rng, Page: params}, true
}

// ProjectCost reports budget, cost and margin per visible project
func (h *ReportHandler) ProjectCost(c *gin.Context) {
	q, ok := reportQuery(c)
	if !ok {
		return
	}

	page, err := h.reportService.ProjectCost(c.Request.Context(), q)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// EmployeeWorkHours reports hours and cost per employee
func (h *ReportHandler) EmployeeWorkHours(c *gin.Context) {
	q, ok := reportQuery(c)
	if !ok {
		return
	}
	employeeID, err := utils.OptionalUint(c, "employeeId")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	page, err := h.reportService.EmployeeWorkHours(c.Request.Context(), q, employeeID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// TaskCompletion reports logged against estimated hours per visible task
func (h *ReportHandler) TaskCompletion(c *gin.Context) {
	q, ok := reportQuery(c)
	if !ok {
		return
	}

	query := services.TaskCompletionQuery{ReportQuery: q}
	var err error
	if query.ProjectID, err = utils.OptionalUint(c, "projectId"); err != nil {
		apierrors.Respond(c, err)
		return
	}
	if query.AssignedTo, err = utils.OptionalUint(c, "assignedTo"); err != nil {
		apierrors.Respond(c, err)
		return
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		query.Status = &s
	}

	page, err := h.reportService.TaskCompletion(c.Request.Context(), query)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// MonthlySummary reports hours and cost per user for one calendar month
func (h *ReportHandler) MonthlySummary(c *gin.Context) {
	q, ok := reportQuery(c)
	if !ok {
		return
	}
	year, err := requiredInt(c, "year")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	month, err := requiredInt(c, "month")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	page, err := h.reportService.MonthlySummary(c.Request.Context(), q, year, month)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// BudgetUsage reports how much of a project's budget has been spent
func (h *ReportHandler) BudgetUsage(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	rng, err := utils.ParseDateRange(c)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	usage, err := h.reportService.BudgetUsage(c.Request.Context(), viewer, id, rng)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

// ProfitLoss compares a given revenue figure with a project's cost
func (h *ReportHandler) ProfitLoss(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	rng, err := utils.ParseDateRange(c)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	revenue, err := requiredFloat(c, "revenue")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	result, err := h.reportService.ProfitLoss(c.Request.Context(), viewer, id, revenue, rng)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func requiredFloat(c *gin.Context, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", apierrors.ErrValidation, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", apierrors.ErrValidation, key)
	}
	return v, nil
}
