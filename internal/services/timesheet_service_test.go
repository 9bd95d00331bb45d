package services

import (
	"time"

	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/events"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/testutil"
)

func (s *ServiceTestSuite) TestTimesheetCreate_DuplicateAndCompletion() {
	task := testutil.CreateTask(s.T(), s.db, "Implement API", s.p1.ID, &s.employee.ID, 10)
	input := CreateTimesheetInput{
		Viewer:   viewerOf(s.employee),
		TaskID:   task.ID,
		WorkDate: testutil.Date(2024, time.March, 1),
		Hours:    5.5,
		Remarks:  "  endpoints  ",
	}

	ts, err := s.timesheets.Create(s.ctx, input)
	s.Require().NoError(err)
	s.Equal(s.employee.ID, ts.UserID)
	s.Equal("endpoints", ts.Remarks)
	s.Len(s.publisher.ofType(events.TypeTimesheetLogged), 1)

	_, err = s.timesheets.Create(s.ctx, input)
	s.ErrorIs(err, apierrors.ErrDuplicate)

	page, err := s.reports.TaskCompletion(s.ctx, TaskCompletionQuery{
		ReportQuery: ReportQuery{Viewer: viewerOf(s.employee), Page: defaultPage()},
	})
	s.Require().NoError(err)

	var row *TaskCompletionRow
	for i := range page.Reports {
		if page.Reports[i].TaskID == task.ID {
			row = &page.Reports[i]
		}
	}
	s.Require().NotNil(row)
	s.InDelta(5.5, row.ActualHoursSpent, 1e-9)
	s.InDelta(55.0, row.CompletionPercentage, 1e-9)
	s.Equal("Apollo", row.Project)
	s.Equal("employee", row.AssignedTo)
}

func (s *ServiceTestSuite) TestTimesheetCreate_Rules() {
	employee := viewerOf(s.employee)
	day := testutil.Date(2024, time.March, 4)

	_, err := s.timesheets.Create(s.ctx, CreateTimesheetInput{Viewer: viewerOf(s.otherEmployee), TaskID: s.t1.ID, WorkDate: day, Hours: 2})
	s.ErrorIs(err, apierrors.ErrBusinessRule)

	_, err = s.timesheets.Create(s.ctx, CreateTimesheetInput{Viewer: employee, TaskID: 9999, WorkDate: day, Hours: 2})
	s.ErrorIs(err, apierrors.ErrNotFound)

	_, err = s.timesheets.Create(s.ctx, CreateTimesheetInput{Viewer: employee, TaskID: s.t1.ID, WorkDate: testutil.Date(2024, time.June, 2), Hours: 2})
	s.ErrorIs(err, apierrors.ErrValidation)

	for _, hours := range []float64{0, 0.05, 24.5} {
		_, err = s.timesheets.Create(s.ctx, CreateTimesheetInput{Viewer: employee, TaskID: s.t1.ID, WorkDate: day, Hours: hours})
		s.ErrorIs(err, apierrors.ErrValidation, "hours %v", hours)
	}

	_, err = s.timesheets.Create(s.ctx, CreateTimesheetInput{Viewer: employee, TaskID: s.t1.ID, WorkDate: testutil.Date(2024, time.June, 1), Hours: 24})
	s.NoError(err)

	s.Require().NoError(s.db.Model(s.p1).Update("status", models.ProjectStatusCompleted).Error)
	_, err = s.timesheets.Create(s.ctx, CreateTimesheetInput{Viewer: employee, TaskID: s.t1.ID, WorkDate: day, Hours: 2})
	s.ErrorIs(err, apierrors.ErrBusinessRule)
}

func (s *ServiceTestSuite) TestTimesheetList_ScopedByRole() {
	own := testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 1), 4)
	other := testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t2.ID, testutil.Date(2024, time.March, 2), 3)

	list, total, err := s.timesheets.List(s.ctx, ListTimesheetsInput{Viewer: viewerOf(s.manager)})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(own.ID, list[0].ID)

	list, total, err = s.timesheets.List(s.ctx, ListTimesheetsInput{Viewer: viewerOf(s.employee)})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Equal(other.ID, list[0].ID, "latest work date first")

	_, total, err = s.timesheets.List(s.ctx, ListTimesheetsInput{Viewer: viewerOf(s.otherEmployee)})
	s.Require().NoError(err)
	s.Zero(total)

	_, err = s.timesheets.Get(s.ctx, viewerOf(s.manager), other.ID)
	s.ErrorIs(err, apierrors.ErrForbidden)

	got, err := s.timesheets.Get(s.ctx, viewerOf(s.otherManager), other.ID)
	s.Require().NoError(err)
	s.Equal(s.t2.ID, got.Task.ID)
}

func (s *ServiceTestSuite) TestTimesheetUpdateAndDelete_OwnerOrAdmin() {
	ts := testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 1), 4)

	_, err := s.timesheets.Update(s.ctx, viewerOf(s.otherEmployee), ts.ID, UpdateTimesheetInput{Hours: ptr(5.0)})
	s.ErrorIs(err, apierrors.ErrForbidden)

	updated, err := s.timesheets.Update(s.ctx, viewerOf(s.employee), ts.ID, UpdateTimesheetInput{Hours: ptr(6.0), Remarks: ptr("review")})
	s.Require().NoError(err)
	s.Equal(6.0, updated.Hours)
	s.Equal("review", updated.Remarks)

	_, err = s.timesheets.Update(s.ctx, viewerOf(s.employee), ts.ID, UpdateTimesheetInput{Hours: ptr(30.0)})
	s.ErrorIs(err, apierrors.ErrValidation)

	s.ErrorIs(s.timesheets.Delete(s.ctx, viewerOf(s.otherEmployee), ts.ID), apierrors.ErrForbidden)
	s.Require().NoError(s.timesheets.Delete(s.ctx, viewerOf(s.admin), ts.ID))
	s.ErrorIs(s.timesheets.Delete(s.ctx, viewerOf(s.admin), ts.ID), apierrors.ErrNotFound)
}
