package services

import (
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func (s *ServiceTestSuite) TestUserCreate_Defaults() {
	user, err := s.users.Create(s.ctx, CreateUserInput{
		Name:     "Jane Doe",
		Email:    " Jane@Example.com ",
		Password: "secret1",
	})
	s.Require().NoError(err)
	s.Equal("jane@example.com", user.Email)
	s.Equal(models.RoleEmployee, user.Role)
	s.Zero(user.HourlyRate)
	s.True(user.IsActive)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))

	inactive, err := s.users.Create(s.ctx, CreateUserInput{
		Name:     "John Roe",
		Email:    "john@example.com",
		Password: "secret1",
		IsActive: ptr(false),
	})
	s.Require().NoError(err)

	stored, err := s.users.Get(s.ctx, inactive.ID)
	s.Require().NoError(err)
	s.False(stored.IsActive)
}

func (s *ServiceTestSuite) TestUserCreate_Validation() {
	cases := map[string]CreateUserInput{
		"short name":     {Name: "Jo", Email: "jo@example.com", Password: "secret1"},
		"bad email":      {Name: "Jane Doe", Email: "not-an-email", Password: "secret1"},
		"short password": {Name: "Jane Doe", Email: "jane@example.com", Password: "12345"},
		"bad role":       {Name: "Jane Doe", Email: "jane@example.com", Password: "secret1", Role: "OWNER"},
		"negative rate":  {Name: "Jane Doe", Email: "jane@example.com", Password: "secret1", HourlyRate: ptr(-1.0)},
	}
	for name, input := range cases {
		_, err := s.users.Create(s.ctx, input)
		s.ErrorIs(err, apierrors.ErrValidation, name)
	}

	_, err := s.users.Create(s.ctx, CreateUserInput{Name: "Duplicate", Email: "EMPLOYEE@example.com", Password: "secret1"})
	s.ErrorIs(err, apierrors.ErrDuplicate)
}

func (s *ServiceTestSuite) TestUserUpdate() {
	user, err := s.users.Update(s.ctx, s.otherEmployee.ID, UpdateUserInput{
		Name:       ptr("Employee Two"),
		HourlyRate: ptr(25.0),
		Role:       ptr(models.RoleManager),
	})
	s.Require().NoError(err)
	s.Equal("Employee Two", user.Name)
	s.Equal(25.0, user.HourlyRate)
	s.Equal(models.RoleManager, user.Role)

	_, err = s.users.Update(s.ctx, s.employee.ID, UpdateUserInput{Email: ptr("manager@example.com")})
	s.ErrorIs(err, apierrors.ErrDuplicate)

	_, err = s.users.Update(s.ctx, s.employee.ID, UpdateUserInput{Email: ptr("employee@example.com")})
	s.NoError(err)

	_, err = s.users.Update(s.ctx, s.employee.ID, UpdateUserInput{})
	s.ErrorIs(err, apierrors.ErrValidation)

	_, err = s.users.Update(s.ctx, 9999, UpdateUserInput{Name: ptr("Nobody")})
	s.ErrorIs(err, apierrors.ErrNotFound)
}

func (s *ServiceTestSuite) TestUserUpdate_RoleChangeGuards() {
	_, err := s.users.Update(s.ctx, s.manager.ID, UpdateUserInput{Role: ptr(models.RoleEmployee)})
	s.ErrorIs(err, apierrors.ErrValidation)
	s.ErrorContains(err, "reassign managed projects")

	_, err = s.users.Update(s.ctx, s.employee.ID, UpdateUserInput{Role: ptr(models.RoleManager)})
	s.ErrorIs(err, apierrors.ErrValidation)
	s.ErrorContains(err, "unassign tasks")

	unchanged, err := s.users.Get(s.ctx, s.manager.ID)
	s.Require().NoError(err)
	s.Equal(models.RoleManager, unchanged.Role)

	// Keeping the same role is not a change.
	_, err = s.users.Update(s.ctx, s.manager.ID, UpdateUserInput{Role: ptr(models.RoleManager)})
	s.NoError(err)

	_, err = s.projects.Update(s.ctx, viewerOf(s.admin), s.p1.ID, UpdateProjectInput{ManagerID: &s.otherManager.ID})
	s.Require().NoError(err)
	user, err := s.users.Update(s.ctx, s.manager.ID, UpdateUserInput{Role: ptr(models.RoleEmployee)})
	s.Require().NoError(err)
	s.Equal(models.RoleEmployee, user.Role)

	_, err = s.tasks.Assign(s.ctx, viewerOf(s.admin), s.t1.ID, nil)
	s.Require().NoError(err)
	_, err = s.tasks.Assign(s.ctx, viewerOf(s.admin), s.t2.ID, nil)
	s.Require().NoError(err)
	user, err = s.users.Update(s.ctx, s.employee.ID, UpdateUserInput{Role: ptr(models.RoleAdmin)})
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, user.Role)
}

func (s *ServiceTestSuite) TestUserListAndStatus() {
	role := models.RoleManager
	users, total, err := s.users.List(s.ctx, ListUsersInput{Role: &role})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(users, 2)

	users, _, err = s.users.List(s.ctx, ListUsersInput{Name: "OTHER"})
	s.Require().NoError(err)
	s.Len(users, 2)

	_, err = s.users.SetActive(s.ctx, s.otherEmployee.ID, false)
	s.Require().NoError(err)

	active := false
	users, _, err = s.users.List(s.ctx, ListUsersInput{IsActive: &active})
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal(s.otherEmployee.ID, users[0].ID)
}
