package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/testutil"
)

func (s *HandlerTestSuite) seedHours() {
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.task.ID, testutil.Date(2024, 5, 1), 3)
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.task.ID, testutil.Date(2024, 5, 20), 5)
}

func (s *HandlerTestSuite) TestProjectCostReport() {
	s.seedHours()

	w := s.do(http.MethodGet, "/api/reports/project-cost", s.manager, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var page services.ReportPage[services.ProjectCostRow]
	s.decode(w, &page)
	s.Require().Len(page.Reports, 1)
	s.Equal(int64(1), page.TotalItems)
	s.InDelta(160.0, page.Reports[0].TotalCost, 0.001)
	s.InDelta(840.0, page.Reports[0].ProfitOrLoss, 0.001)

	w = s.do(http.MethodGet, "/api/reports/project-cost?startDate=2024-05-10", s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &page)
	s.Len(page.Reports, 2)

	w = s.do(http.MethodGet, "/api/reports/project-cost?startDate=2024-05-10&endDate=2024-05-01", s.admin, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestEmployeeWorkHourReport() {
	s.seedHours()

	w := s.do(http.MethodGet, "/api/reports/employee-work-hour", s.employee, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var page services.ReportPage[services.EmployeeWorkHourRow]
	s.decode(w, &page)
	s.Require().Len(page.Reports, 1)
	s.Equal(s.employee.ID, page.Reports[0].EmployeeID)
	s.InDelta(8.0, page.Reports[0].TotalHoursWorked, 0.001)
	s.InDelta(160.0, page.Reports[0].CostToCompany, 0.001)
}

func (s *HandlerTestSuite) TestTaskCompletionReport() {
	s.seedHours()

	w := s.do(http.MethodGet, fmt.Sprintf("/api/reports/task-completion?projectId=%d", s.project.ID), s.manager, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var page services.ReportPage[services.TaskCompletionRow]
	s.decode(w, &page)
	s.Require().Len(page.Reports, 1)
	s.InDelta(80.0, page.Reports[0].CompletionPercentage, 0.001)
	s.Equal("Apollo", page.Reports[0].Project)
}

func (s *HandlerTestSuite) TestMonthlySummaryReport() {
	s.seedHours()

	w := s.do(http.MethodGet, "/api/reports/monthly-summary?year=2024&month=5", s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var page services.ReportPage[services.MonthlySummaryRow]
	s.decode(w, &page)
	s.Require().Len(page.Reports, 1)
	s.Equal("2024-05", page.Reports[0].Month)
	s.InDelta(8.0, page.Reports[0].TotalHoursWorked, 0.001)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/monthly-summary?year=2024", s.admin, nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/monthly-summary?year=2024&month=13", s.admin, nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/monthly-summary?year=x&month=1", s.admin, nil).Code)
}

func (s *HandlerTestSuite) TestProjectFinancialReports() {
	s.seedHours()
	base := fmt.Sprintf("/api/reports/projects/%d", s.project.ID)

	w := s.do(http.MethodGet, base+"/budget-usage", s.manager, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var usage services.BudgetUsage
	s.decode(w, &usage)
	s.InDelta(160.0, usage.TotalCost, 0.001)
	s.InDelta(16.0, usage.BudgetPercentageUsed, 0.001)

	w = s.do(http.MethodGet, base+"/profit-loss?revenue=100", s.manager, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var pl services.ProfitLoss
	s.decode(w, &pl)
	s.InDelta(-60.0, pl.ProfitOrLoss, 0.001)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, base+"/profit-loss", s.manager, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, base+"/budget-usage", s.otherManager, nil).Code)
}
