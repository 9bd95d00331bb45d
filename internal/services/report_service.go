package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/scope"
	"github.com/yukikurage/project-management-api/internal/utils"
)

const notAvailable = "N/A"

// ReportPage is the paginated envelope shared by all reports.
type ReportPage[T any] struct {
	Reports     []T   `json:"reports"`
	TotalItems  int64 `json:"totalItems"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}

func newReportPage[T any](rows []T, total int64, page utils.PaginationParams) *ReportPage[T] {
	if rows == nil {
		rows = []T{}
	}
	return &ReportPage[T]{
		Reports:     rows,
		TotalItems:  total,
		CurrentPage: page.Page,
		TotalPages:  utils.TotalPages(total, page.Limit),
	}
}

type ProjectCostRow struct {
	ProjectID    uint64  `json:"projectId"`
	ProjectName  string  `json:"projectName"`
	Budget       float64 `json:"budget"`
	TotalCost    float64 `json:"totalCost"`
	ProfitOrLoss float64 `json:"profitOrLoss"`
}

type EmployeeWorkHourRow struct {
	EmployeeID       uint64  `json:"employeeId"`
	EmployeeName     string  `json:"employeeName"`
	EmployeeEmail    string  `json:"employeeEmail"`
	HourlyRate       float64 `json:"hourlyRate"`
	TotalHoursWorked float64 `json:"totalHoursWorked"`
	CostToCompany    float64 `json:"costToCompany"`
}

type TaskCompletionRow struct {
	TaskID               uint64            `json:"taskId"`
	TaskTitle            string            `json:"taskTitle"`
	Status               models.TaskStatus `json:"status"`
	Project              string            `json:"project"`
	AssignedTo           string            `json:"assignedTo"`
	EstimatedHours       float64           `json:"estimatedHours"`
	ActualHoursSpent     float64           `json:"actualHoursSpent"`
	CompletionPercentage float64           `json:"completionPercentage"`
}

type MonthlySummaryRow struct {
	EmployeeID       uint64  `json:"employeeId"`
	EmployeeName     string  `json:"employeeName"`
	EmployeeEmail    string  `json:"employeeEmail"`
	TotalHoursWorked float64 `json:"totalHoursWorked"`
	CostToCompany    float64 `json:"costToCompany"`
	Month            string  `json:"month"`
}

// BudgetUsage reports how much of a project's budget the logged time costs.
type BudgetUsage struct {
	ProjectID            uint64  `json:"projectId"`
	ProjectName          string  `json:"projectName"`
	Budget               float64 `json:"budget"`
	TotalCost            float64 `json:"totalCost"`
	TotalHours           float64 `json:"totalHours"`
	BudgetRemaining      float64 `json:"budgetRemaining"`
	BudgetPercentageUsed float64 `json:"budgetPercentageUsed"`
}

// ProfitLoss compares a given revenue with the cost of logged time.
type ProfitLoss struct {
	ProjectID    uint64  `json:"projectId"`
	ProjectName  string  `json:"projectName"`
	Revenue      float64 `json:"revenue"`
	TotalCost    float64 `json:"totalCost"`
	ProfitOrLoss float64 `json:"profitOrLoss"`
}

// ReportQuery holds the parameters common to all reports.
type ReportQuery struct {
	Viewer scope.Viewer
	Range  utils.DateRange
	Page   utils.PaginationParams
}

// TaskCompletionQuery adds the task filters of the completion report.
type TaskCompletionQuery struct {
	ReportQuery
	Status     *models.TaskStatus
	ProjectID  *uint64
	AssignedTo *uint64
}

// ReportService computes aggregate reports over logged time.
type ReportService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	taskRepo    repository.TaskRepository
	reportRepo  repository.ReportRepository
	resolver    *scope.Resolver
	cache       cache.Cache
	ttl         time.Duration
}

// NewReportService creates a new ReportService. A ttl of zero disables caching.
func NewReportService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	reportRepo repository.ReportRepository,
	resolver *scope.Resolver,
	c cache.Cache,
	ttl time.Duration,
) *ReportService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ReportService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		reportRepo:  reportRepo,
		resolver:    resolver,
		cache:       c,
		ttl:         ttl,
	}
}

// ProjectCost lists visible projects with the cost of time logged on them.
func (s *ReportService) ProjectCost(ctx context.Context, q ReportQuery) (*ReportPage[ProjectCostRow], error) {
	return loadReport(ctx, s, "project-cost", q.Viewer, q, func(ctx context.Context) (*ReportPage[ProjectCostRow], error) {
		visible := s.resolver.Projects(q.Viewer)
		if visible.Empty() {
			return newReportPage[ProjectCostRow](nil, 0, q.Page), nil
		}

		projects, total, err := s.projectRepo.List(ctx, repository.ProjectFilter{
			Page:     q.Page.Page,
			PageSize: q.Page.Limit,
		}, visible.Apply)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}

		ids := make([]uint64, len(projects))
		for i, p := range projects {
			ids[i] = p.ID
		}
		totals, err := s.reportRepo.ProjectTotals(ctx, ids, q.Range)
		if err != nil {
			return nil, fmt.Errorf("failed to sum project costs: %w", err)
		}

		rows := make([]ProjectCostRow, len(projects))
		for i, p := range projects {
			cost := totals[p.ID].TotalCost
			rows[i] = ProjectCostRow{
				ProjectID:    p.ID,
				ProjectName:  p.Name,
				Budget:       p.Budget,
				TotalCost:    cost,
				ProfitOrLoss: p.Budget - cost,
			}
		}
		return newReportPage(rows, total, q.Page), nil
	})
}

// EmployeeWorkHours lists users with their hours and cost. Employees only see
// themselves; an employeeID naming someone else yields an empty page.
func (s *ReportService) EmployeeWorkHours(ctx context.Context, q ReportQuery, employeeID *uint64) (*ReportPage[EmployeeWorkHourRow], error) {
	params := struct {
		ReportQuery
		EmployeeID *uint64
	}{q, employeeID}
	return loadReport(ctx, s, "employee-work-hour", q.Viewer, params, func(ctx context.Context) (*ReportPage[EmployeeWorkHourRow], error) {
		visible := s.resolver.Users(q.Viewer)
		if visible.Empty() {
			return newReportPage[EmployeeWorkHourRow](nil, 0, q.Page), nil
		}

		filter := repository.UserFilter{Page: q.Page.Page, PageSize: q.Page.Limit}
		if employeeID != nil {
			filter.IDs = []uint64{*employeeID}
		}
		users, total, err := s.userRepo.List(ctx, filter, visible.Apply)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		ids := make([]uint64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		hours, err := s.reportRepo.UserHours(ctx, ids, q.Range)
		if err != nil {
			return nil, fmt.Errorf("failed to sum user hours: %w", err)
		}

		rows := make([]EmployeeWorkHourRow, len(users))
		for i, u := range users {
			h := hours[u.ID]
			rows[i] = EmployeeWorkHourRow{
				EmployeeID:       u.ID,
				EmployeeName:     u.Name,
				EmployeeEmail:    u.Email,
				HourlyRate:       u.HourlyRate,
				TotalHoursWorked: h,
				CostToCompany:    h * u.HourlyRate,
			}
		}
		return newReportPage(rows, total, q.Page), nil
	})
}

// TaskCompletion compares logged hours with the estimate of each visible task.
func (s *ReportService) TaskCompletion(ctx context.Context, q TaskCompletionQuery) (*ReportPage[TaskCompletionRow], error) {
	if q.Status != nil && !q.Status.Valid() {
		return nil, validationError("status must be one of TODO, IN_PROGRESS, DONE")
	}

	return loadReport(ctx, s, "task-completion", q.Viewer, q, func(ctx context.Context) (*ReportPage[TaskCompletionRow], error) {
		visible, err := s.resolver.Tasks(ctx, q.Viewer)
		if err != nil {
			return nil, err
		}
		if visible.Empty() {
			return newReportPage[TaskCompletionRow](nil, 0, q.Page), nil
		}

		tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
			Status:     q.Status,
			ProjectID:  q.ProjectID,
			AssignedTo: q.AssignedTo,
			Page:       q.Page.Page,
			PageSize:   q.Page.Limit,
		}, visible.Apply)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}

		ids := make([]uint64, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		hours, err := s.reportRepo.TaskHours(ctx, ids, q.Range)
		if err != nil {
			return nil, fmt.Errorf("failed to sum task hours: %w", err)
		}

		rows := make([]TaskCompletionRow, len(tasks))
		for i, t := range tasks {
			spent := hours[t.ID]
			row := TaskCompletionRow{
				TaskID:               t.ID,
				TaskTitle:            t.Title,
				Status:               t.Status,
				Project:              notAvailable,
				AssignedTo:           notAvailable,
				EstimatedHours:       t.EstimatedHours,
				ActualHoursSpent:     spent,
				CompletionPercentage: percentage(spent, t.EstimatedHours),
			}
			if t.Project.ID != 0 {
				row.Project = t.Project.Name
			}
			if t.Assignee != nil {
				row.AssignedTo = t.Assignee.Name
			}
			rows[i] = row
		}
		return newReportPage(rows, total, q.Page), nil
	})
}

// MonthlySummary groups the hours logged in a calendar month by user.
func (s *ReportService) MonthlySummary(ctx context.Context, q ReportQuery, year, month int) (*ReportPage[MonthlySummaryRow], error) {
	if year < 1 || month < 1 || month > 12 {
		return nil, validationError("year and month are required for the monthly summary report")
	}

	params := struct {
		Page        utils.PaginationParams
		Year, Month int
	}{q.Page, year, month}
	return loadReport(ctx, s, "monthly-summary", q.Viewer, params, func(ctx context.Context) (*ReportPage[MonthlySummaryRow], error) {
		visible, err := s.resolver.Timesheets(ctx, q.Viewer)
		if err != nil {
			return nil, err
		}
		if visible.Empty() {
			return newReportPage[MonthlySummaryRow](nil, 0, q.Page), nil
		}

		totals, total, err := s.reportRepo.MonthlyByUser(ctx, utils.MonthRange(year, time.Month(month)), q.Page, visible.Apply)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize month: %w", err)
		}

		label := fmt.Sprintf("%04d-%02d", year, month)
		rows := make([]MonthlySummaryRow, len(totals))
		for i, t := range totals {
			rows[i] = MonthlySummaryRow{
				EmployeeID:       t.EmployeeID,
				EmployeeName:     t.EmployeeName,
				EmployeeEmail:    t.EmployeeEmail,
				TotalHoursWorked: t.TotalHours,
				CostToCompany:    t.TotalHours * t.HourlyRate,
				Month:            label,
			}
		}
		return newReportPage(rows, total, q.Page), nil
	})
}

// BudgetUsage reports the share of a project's budget consumed in the range.
func (s *ReportService) BudgetUsage(ctx context.Context, viewer scope.Viewer, projectID uint64, rng utils.DateRange) (*BudgetUsage, error) {
	project, totals, err := s.projectTotals(ctx, viewer, projectID, rng)
	if err != nil {
		return nil, err
	}
	return &BudgetUsage{
		ProjectID:            project.ID,
		ProjectName:          project.Name,
		Budget:               project.Budget,
		TotalCost:            totals.TotalCost,
		TotalHours:           totals.TotalHours,
		BudgetRemaining:      project.Budget - totals.TotalCost,
		BudgetPercentageUsed: percentage(totals.TotalCost, project.Budget),
	}, nil
}

// ProfitLoss subtracts the cost of logged time from revenue.
func (s *ReportService) ProfitLoss(ctx context.Context, viewer scope.Viewer, projectID uint64, revenue float64, rng utils.DateRange) (*ProfitLoss, error) {
	project, totals, err := s.projectTotals(ctx, viewer, projectID, rng)
	if err != nil {
		return nil, err
	}
	return &ProfitLoss{
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		Revenue:      revenue,
		TotalCost:    totals.TotalCost,
		ProfitOrLoss: revenue - totals.TotalCost,
	}, nil
}

func (s *ReportService) projectTotals(ctx context.Context, viewer scope.Viewer, projectID uint64, rng utils.DateRange) (*models.Project, repository.Totals, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, repository.Totals{}, notFoundOr(err, ErrProjectNotFound, "find project")
	}
	if !s.resolver.Projects(viewer).Permits(*project) {
		return nil, repository.Totals{}, ErrNotProjectManager
	}

	totals, err := s.reportRepo.ProjectTotals(ctx, []uint64{project.ID}, rng)
	if err != nil {
		return nil, repository.Totals{}, fmt.Errorf("failed to sum project cost: %w", err)
	}
	return project, totals[project.ID], nil
}

// percentage returns part/whole*100, or 0 when whole is not positive.
func percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part * 100 / whole
}

// loadReport serves a report from the cache. Keys carry the current report
// generation, which every successful write bumps, so a cached page is never
// read after the data behind it changed.
func loadReport[T any](ctx context.Context, s *ReportService, report string, viewer scope.Viewer, params any, load func(ctx context.Context) (*T, error)) (*T, error) {
	if s.ttl <= 0 {
		return load(ctx)
	}
	gen, err := s.cache.Generation(ctx, cache.NamespaceReports)
	if err != nil {
		return load(ctx)
	}
	return cache.GetOrLoadJSON(ctx, s.cache, cacheKey(report, gen, viewer, params), s.ttl, load)
}

// cacheKey identifies a report for one data generation, viewer and parameter set.
func cacheKey(report string, gen int64, viewer scope.Viewer, params any) string {
	b, _ := json.Marshal(params)
	return fmt.Sprintf("report:%s:g%d:%s:%d:%s", report, gen, viewer.Role, viewer.ID, b)
}
