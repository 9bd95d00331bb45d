package services

import (
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/project-management-api/internal/cache"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/scope"
	"github.com/yukikurage/project-management-api/internal/testutil"
	"github.com/yukikurage/project-management-api/internal/utils"
)

func defaultPage() utils.PaginationParams {
	return utils.NewPaginationParams(utils.DefaultPage, utils.DefaultPageSize)
}

func dateRange(from, to time.Time) utils.DateRange {
	to = utils.EndOfDay(to)
	return utils.DateRange{From: &from, To: &to}
}

func (s *ServiceTestSuite) TestEmployeeWorkHours_CostToCompany() {
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 5), 8)
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t2.ID, testutil.Date(2024, time.April, 5), 3)

	page, err := s.reports.EmployeeWorkHours(s.ctx, ReportQuery{
		Viewer: viewerOf(s.admin),
		Range:  dateRange(testutil.Date(2024, time.March, 1), testutil.Date(2024, time.March, 31)),
		Page:   defaultPage(),
	}, &s.employee.ID)
	s.Require().NoError(err)
	s.Require().Len(page.Reports, 1)
	s.InDelta(8.0, page.Reports[0].TotalHoursWorked, 1e-9)
	s.InDelta(160.0, page.Reports[0].CostToCompany, 1e-9)
	s.Equal(int64(1), page.TotalItems)
	s.Equal(1, page.TotalPages)
}

func (s *ServiceTestSuite) TestEmployeeWorkHours_EmployeeSeesOnlySelf() {
	q := ReportQuery{Viewer: viewerOf(s.employee), Page: defaultPage()}

	page, err := s.reports.EmployeeWorkHours(s.ctx, q, nil)
	s.Require().NoError(err)
	s.Require().Len(page.Reports, 1)
	s.Equal(s.employee.ID, page.Reports[0].EmployeeID)

	page, err = s.reports.EmployeeWorkHours(s.ctx, q, &s.otherEmployee.ID)
	s.Require().NoError(err)
	s.Empty(page.Reports)
	s.Zero(page.TotalItems)

	page, err = s.reports.EmployeeWorkHours(s.ctx, ReportQuery{Viewer: viewerOf(s.manager), Page: defaultPage()}, nil)
	s.Require().NoError(err)
	s.Equal(int64(5), page.TotalItems)
}

func (s *ServiceTestSuite) TestProjectCost_ScopedAndBounded() {
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 1), 8)
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.May, 1), 2)

	page, err := s.reports.ProjectCost(s.ctx, ReportQuery{Viewer: viewerOf(s.manager), Page: defaultPage()})
	s.Require().NoError(err)
	s.Require().Len(page.Reports, 1)
	row := page.Reports[0]
	s.Equal(s.p1.ID, row.ProjectID)
	s.InDelta(200.0, row.TotalCost, 1e-9)
	s.InDelta(800.0, row.ProfitOrLoss, 1e-9)

	from := testutil.Date(2024, time.April, 1)
	page, err = s.reports.ProjectCost(s.ctx, ReportQuery{
		Viewer: viewerOf(s.manager),
		Range:  utils.DateRange{From: &from},
		Page:   defaultPage(),
	})
	s.Require().NoError(err)
	s.InDelta(40.0, page.Reports[0].TotalCost, 1e-9)

	page, err = s.reports.ProjectCost(s.ctx, ReportQuery{Viewer: viewerOf(s.admin), Page: defaultPage()})
	s.Require().NoError(err)
	s.Equal(int64(2), page.TotalItems)

	page, err = s.reports.ProjectCost(s.ctx, ReportQuery{Viewer: viewerOf(s.employee), Page: defaultPage()})
	s.Require().NoError(err)
	s.Empty(page.Reports)
}

func (s *ServiceTestSuite) TestTaskCompletion_ZeroEstimate() {
	task := testutil.CreateTask(s.T(), s.db, "Unestimated", s.p1.ID, nil, 0)
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, task.ID, testutil.Date(2024, time.March, 1), 3)

	page, err := s.reports.TaskCompletion(s.ctx, TaskCompletionQuery{
		ReportQuery: ReportQuery{Viewer: viewerOf(s.admin), Page: defaultPage()},
		ProjectID:   &s.p1.ID,
	})
	s.Require().NoError(err)

	var found bool
	for _, row := range page.Reports {
		if row.TaskID == task.ID {
			found = true
			s.InDelta(3.0, row.ActualHoursSpent, 1e-9)
			s.Zero(row.CompletionPercentage)
			s.Equal(notAvailable, row.AssignedTo)
		}
	}
	s.True(found)
}

func (s *ServiceTestSuite) TestBudgetUsage() {
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 1), 8)
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t2.ID, testutil.Date(2024, time.March, 1), 5)

	usage, err := s.reports.BudgetUsage(s.ctx, viewerOf(s.manager), s.p1.ID, utils.DateRange{})
	s.Require().NoError(err)
	s.InDelta(160.0, usage.TotalCost, 1e-9)
	s.InDelta(8.0, usage.TotalHours, 1e-9)
	s.InDelta(16.0, usage.BudgetPercentageUsed, 1e-9)
	s.InDelta(usage.Budget, usage.BudgetRemaining+usage.TotalCost, 1e-9)

	usage, err = s.reports.BudgetUsage(s.ctx, viewerOf(s.admin), s.p2.ID, utils.DateRange{})
	s.Require().NoError(err)
	s.InDelta(100.0, usage.TotalCost, 1e-9)
	s.Zero(usage.BudgetPercentageUsed)
	s.InDelta(usage.Budget, usage.BudgetRemaining+usage.TotalCost, 1e-9)

	_, err = s.reports.BudgetUsage(s.ctx, viewerOf(s.manager), s.p2.ID, utils.DateRange{})
	s.ErrorIs(err, apierrors.ErrForbidden)

	_, err = s.reports.BudgetUsage(s.ctx, viewerOf(s.admin), 9999, utils.DateRange{})
	s.ErrorIs(err, apierrors.ErrNotFound)
}

func (s *ServiceTestSuite) TestProfitLoss() {
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 1), 10)

	pl, err := s.reports.ProfitLoss(s.ctx, viewerOf(s.admin), s.p1.ID, 150, utils.DateRange{})
	s.Require().NoError(err)
	s.InDelta(200.0, pl.TotalCost, 1e-9)
	s.InDelta(-50.0, pl.ProfitOrLoss, 1e-9)
}

func (s *ServiceTestSuite) TestMonthlySummary() {
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 1), 4)
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t2.ID, testutil.Date(2024, time.March, 31), 2)
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.April, 1), 7)

	page, err := s.reports.MonthlySummary(s.ctx, ReportQuery{Viewer: viewerOf(s.admin), Page: defaultPage()}, 2024, 3)
	s.Require().NoError(err)
	s.Require().Len(page.Reports, 1)
	row := page.Reports[0]
	s.Equal("2024-03", row.Month)
	s.InDelta(6.0, row.TotalHoursWorked, 1e-9)
	s.InDelta(120.0, row.CostToCompany, 1e-9)

	page, err = s.reports.MonthlySummary(s.ctx, ReportQuery{Viewer: viewerOf(s.manager), Page: defaultPage()}, 2024, 3)
	s.Require().NoError(err)
	s.Require().Len(page.Reports, 1)
	s.InDelta(4.0, page.Reports[0].TotalHoursWorked, 1e-9)

	page, err = s.reports.MonthlySummary(s.ctx, ReportQuery{Viewer: viewerOf(s.otherEmployee), Page: defaultPage()}, 2024, 3)
	s.Require().NoError(err)
	s.Empty(page.Reports)

	_, err = s.reports.MonthlySummary(s.ctx, ReportQuery{Viewer: viewerOf(s.admin), Page: defaultPage()}, 2024, 0)
	s.ErrorIs(err, apierrors.ErrValidation)
	_, err = s.reports.MonthlySummary(s.ctx, ReportQuery{Viewer: viewerOf(s.admin), Page: defaultPage()}, 0, 3)
	s.ErrorIs(err, apierrors.ErrValidation)
}

func (s *ServiceTestSuite) TestReports_CachedUntilGenerationBump() {
	mr := miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s.T().Cleanup(func() { rdb.Close() })
	reportCache := cache.NewRedisCache(rdb, "pms-test:", nil)

	projectRepo := repository.NewProjectRepository(s.db)
	reports := NewReportService(projectRepo, repository.NewUserRepository(s.db), repository.NewTaskRepository(s.db),
		repository.NewReportRepository(s.db), scope.NewResolver(projectRepo), reportCache, time.Minute)

	q := ReportQuery{Viewer: viewerOf(s.admin), Page: defaultPage()}
	hours := func() float64 {
		page, err := reports.EmployeeWorkHours(s.ctx, q, &s.employee.ID)
		s.Require().NoError(err)
		s.Require().Len(page.Reports, 1)
		return page.Reports[0].TotalHoursWorked
	}

	s.Zero(hours())
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 5), 8)
	s.Zero(hours(), "served from cache until the generation changes")

	s.Require().NoError(reportCache.Bump(s.ctx, cache.NamespaceReports))
	s.InDelta(8.0, hours(), 1e-9)

	// with redis down reports are computed directly
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t2.ID, testutil.Date(2024, time.March, 6), 2)
	mr.SetError("LOADING")
	s.InDelta(10.0, hours(), 1e-9)
}
