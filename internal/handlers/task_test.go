package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/testutil"
)

func (s *HandlerTestSuite) taskPath(id uint64) string {
	return fmt.Sprintf("/api/tasks/%d", id)
}

func (s *HandlerTestSuite) TestCreateTask() {
	body := map[string]any{
		"title":          "Build API",
		"description":    "REST endpoints",
		"estimatedHours": 12,
		"projectId":      s.project.ID,
		"assignedTo":     s.employee.ID,
	}
	w := s.do(http.MethodPost, "/api/tasks", s.manager, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp dto.TaskResponse
	s.decode(w, &resp)
	s.Equal("Build API", resp.Task.Title)
	s.Equal(models.TaskStatusTodo, resp.Task.Status)
	s.Require().NotNil(resp.Task.AssignedTo)
	s.Equal(s.employee.ID, *resp.Task.AssignedTo)
	s.Require().NotNil(resp.Task.Project)
	s.Equal("Apollo", resp.Task.Project.Name)
}

func (s *HandlerTestSuite) TestCreateTaskValidation() {
	tests := []struct {
		name   string
		user   *models.User
		body   map[string]any
		status int
	}{
		{
			name:   "missing title",
			user:   s.admin,
			body:   map[string]any{"projectId": s.project.ID},
			status: http.StatusBadRequest,
		},
		{
			name:   "assignee is not an employee",
			user:   s.admin,
			body:   map[string]any{"title": "Plan", "projectId": s.project.ID, "assignedTo": s.manager.ID},
			status: http.StatusBadRequest,
		},
		{
			name:   "manager outside own project",
			user:   s.manager,
			body:   map[string]any{"title": "Plan", "projectId": s.otherProject.ID},
			status: http.StatusForbidden,
		},
		{
			name:   "unknown project",
			user:   s.admin,
			body:   map[string]any{"title": "Plan", "projectId": 9999},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/api/tasks", tt.user, tt.body)
			s.Equal(tt.status, w.Code, w.Body.String())
		})
	}
}

func (s *HandlerTestSuite) TestListTasksIsScoped() {
	testutil.CreateTask(s.T(), s.db, "Other", s.otherProject.ID, &s.otherEmployee.ID, 3)

	count := func(user *models.User) int64 {
		w := s.do(http.MethodGet, "/api/tasks", user, nil)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		var resp dto.TaskListResponse
		s.decode(w, &resp)
		s.Len(resp.Tasks, int(resp.TotalItems))
		return resp.TotalItems
	}

	s.Equal(int64(2), count(s.admin))
	s.Equal(int64(1), count(s.manager))
	s.Equal(int64(1), count(s.employee))
	s.Equal(int64(1), count(s.otherEmployee))
}

func (s *HandlerTestSuite) TestListTasksFilters() {
	testutil.CreateTask(s.T(), s.db, "Review", s.project.ID, nil, 1)

	w := s.do(http.MethodGet, fmt.Sprintf("/api/tasks?title=REV&projectId=%d&limit=5", s.project.ID), s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.TaskListResponse
	s.decode(w, &resp)
	s.Require().Len(resp.Tasks, 1)
	s.Equal("Review", resp.Tasks[0].Title)
	s.Equal(1, resp.CurrentPage)
	s.Equal(1, resp.TotalPages)

	w = s.do(http.MethodGet, "/api/tasks?projectId=abc", s.admin, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestGetTask() {
	w := s.do(http.MethodGet, s.taskPath(s.task.ID), s.employee, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var task dto.TaskDTO
	s.decode(w, &task)
	s.Equal(s.task.ID, task.ID)
	s.Require().NotNil(task.AssignedUser)
	s.Equal(s.employee.Name, task.AssignedUser.Name)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, s.taskPath(s.task.ID), s.otherEmployee, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, s.taskPath(s.task.ID), s.otherManager, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, s.taskPath(9999), s.admin, nil).Code)
}

func (s *HandlerTestSuite) TestEmployeeUpdatesStatusOnly() {
	w := s.do(http.MethodPut, s.taskPath(s.task.ID), s.employee, map[string]any{"status": "IN_PROGRESS"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.TaskResponse
	s.decode(w, &resp)
	s.Equal(models.TaskStatusInProgress, resp.Task.Status)

	w = s.do(http.MethodPut, s.taskPath(s.task.ID), s.employee, map[string]any{"title": "Renamed"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, s.taskPath(s.task.ID), s.employee, map[string]any{"status": "TODO"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestEmployeeStatusUpdateWithOtherKeysIsForbidden() {
	for _, body := range []string{
		`{"status": "IN_PROGRESS", "title": null}`,
		`{"status": "IN_PROGRESS", "foo": 1}`,
		`{"status": "IN_PROGRESS", "assignedTo": null}`,
	} {
		w := s.do(http.MethodPut, s.taskPath(s.task.ID), s.employee, body)
		s.Equal(http.StatusForbidden, w.Code, body)
	}

	var stored models.Task
	s.Require().NoError(s.db.First(&stored, s.task.ID).Error)
	s.Equal(models.TaskStatusTodo, stored.Status)
	s.Require().NotNil(stored.AssignedTo)
	s.Equal(s.employee.ID, *stored.AssignedTo)

	// managers are not limited to status-only requests
	w := s.do(http.MethodPut, s.taskPath(s.task.ID), s.manager, `{"status": "IN_PROGRESS", "title": null}`)
	s.Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *HandlerTestSuite) TestUpdateTaskRejectsEmptyBody() {
	w := s.do(http.MethodPut, s.taskPath(s.task.ID), s.manager, map[string]any{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, s.taskPath(s.task.ID), s.manager, "not json")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestUpdateTaskNullAssigneeUnassigns() {
	w := s.do(http.MethodPut, s.taskPath(s.task.ID), s.manager, `{"assignedTo": null}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.TaskResponse
	s.decode(w, &resp)
	s.Nil(resp.Task.AssignedTo)
	s.Nil(resp.Task.AssignedUser)

	var stored models.Task
	s.Require().NoError(s.db.First(&stored, s.task.ID).Error)
	s.Nil(stored.AssignedTo)
}

func (s *HandlerTestSuite) TestAssignTask() {
	w := s.do(http.MethodPatch, s.taskPath(s.task.ID)+"/assign", s.manager, map[string]any{"assignedTo": s.otherEmployee.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.TaskResponse
	s.decode(w, &resp)
	s.Require().NotNil(resp.Task.AssignedTo)
	s.Equal(s.otherEmployee.ID, *resp.Task.AssignedTo)

	w = s.do(http.MethodPatch, s.taskPath(s.task.ID)+"/assign", s.manager, `{"assignedTo": null}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &resp)
	s.Nil(resp.Task.AssignedTo)

	w = s.do(http.MethodPatch, s.taskPath(s.task.ID)+"/assign", s.manager, map[string]any{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, s.taskPath(s.task.ID)+"/assign", s.manager, map[string]any{"assignedTo": s.admin.ID})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestDeleteTask() {
	testutil.CreateTimesheet(s.T(), s.db, s.employee.ID, s.task.ID, testutil.Date(2024, 5, 2), 3)

	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, s.taskPath(s.task.ID), s.otherManager, nil).Code)

	w := s.do(http.MethodDelete, s.taskPath(s.task.ID), s.manager, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, s.taskPath(s.task.ID), s.admin, nil).Code)

	var remaining int64
	s.Require().NoError(s.db.Model(&models.Timesheet{}).Where("task_id = ?", s.task.ID).Count(&remaining).Error)
	s.Zero(remaining)
}
