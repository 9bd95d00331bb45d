package services

import (
	"time"

	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/testutil"
)

func (s *ServiceTestSuite) TestProjectCreate() {
	project, err := s.projects.Create(s.ctx, CreateProjectInput{
		Name:      "Mercury",
		Budget:    500,
		StartDate: testutil.Date(2024, time.February, 1),
		ManagerID: s.manager.ID,
	})
	s.Require().NoError(err)
	s.Equal(models.ProjectStatusOngoing, project.Status)
	s.Equal(s.manager.ID, project.Manager.ID)

	_, err = s.projects.Create(s.ctx, CreateProjectInput{
		Name:      "Mercury",
		StartDate: testutil.Date(2024, time.February, 1),
		ManagerID: s.employee.ID,
	})
	s.ErrorIs(err, apierrors.ErrValidation)

	end := testutil.Date(2024, time.January, 1)
	_, err = s.projects.Create(s.ctx, CreateProjectInput{
		Name:      "Mercury",
		StartDate: testutil.Date(2024, time.February, 1),
		EndDate:   &end,
		ManagerID: s.manager.ID,
	})
	s.ErrorIs(err, apierrors.ErrValidation)

	_, err = s.projects.Create(s.ctx, CreateProjectInput{Name: "Mercury", Budget: -1, StartDate: end, ManagerID: s.manager.ID})
	s.ErrorIs(err, apierrors.ErrValidation)
}

func (s *ServiceTestSuite) TestProjectList_Scoped() {
	projects, total, err := s.projects.List(s.ctx, ListProjectsInput{Viewer: viewerOf(s.manager)})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(s.p1.ID, projects[0].ID)
	s.Equal("manager", projects[0].Manager.Name)

	_, total, err = s.projects.List(s.ctx, ListProjectsInput{Viewer: viewerOf(s.admin), Name: "gem"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	projects, total, err = s.projects.List(s.ctx, ListProjectsInput{Viewer: viewerOf(s.employee)})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(projects)

	_, err = s.projects.Get(s.ctx, viewerOf(s.manager), s.p2.ID)
	s.ErrorIs(err, apierrors.ErrForbidden)
}

func (s *ServiceTestSuite) TestProjectUpdate() {
	manager := viewerOf(s.manager)

	project, err := s.projects.Update(s.ctx, manager, s.p1.ID, UpdateProjectInput{
		Budget: ptr(1500.0),
		Status: ptr(models.ProjectStatusCompleted),
	})
	s.Require().NoError(err)
	s.Equal(1500.0, project.Budget)
	s.Equal(models.ProjectStatusCompleted, project.Status)

	_, err = s.projects.Update(s.ctx, manager, s.p2.ID, UpdateProjectInput{Budget: ptr(1.0)})
	s.ErrorIs(err, apierrors.ErrForbidden)

	_, err = s.projects.Update(s.ctx, manager, s.p1.ID, UpdateProjectInput{ManagerID: &s.otherManager.ID})
	s.ErrorIs(err, apierrors.ErrForbidden)

	project, err = s.projects.Update(s.ctx, viewerOf(s.admin), s.p1.ID, UpdateProjectInput{ManagerID: &s.otherManager.ID})
	s.Require().NoError(err)
	s.Equal(s.otherManager.ID, project.ManagerID)

	end := testutil.Date(2023, time.December, 31)
	_, err = s.projects.Update(s.ctx, viewerOf(s.admin), s.p1.ID, UpdateProjectInput{EndDate: &end})
	s.ErrorIs(err, apierrors.ErrValidation)
}

func (s *ServiceTestSuite) TestProjectAssignManagerAndDelete() {
	project, err := s.projects.AssignManager(s.ctx, s.p2.ID, s.manager.ID)
	s.Require().NoError(err)
	s.Equal(s.manager.ID, project.ManagerID)

	_, err = s.projects.AssignManager(s.ctx, s.p2.ID, s.employee.ID)
	s.ErrorIs(err, apierrors.ErrValidation)

	_, err = s.projects.AssignManager(s.ctx, 9999, s.manager.ID)
	s.ErrorIs(err, apierrors.ErrNotFound)

	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.t1.ID, testutil.Date(2024, time.March, 1), 2)
	s.Require().NoError(s.projects.Delete(s.ctx, s.p1.ID))

	var tasks, timesheets int64
	s.Require().NoError(s.db.Model(&models.Task{}).Where("project_id = ?", s.p1.ID).Count(&tasks).Error)
	s.Require().NoError(s.db.Model(&models.Timesheet{}).Count(&timesheets).Error)
	s.Zero(tasks)
	s.Zero(timesheets)

	s.ErrorIs(s.projects.Delete(s.ctx, s.p1.ID), apierrors.ErrNotFound)
}
