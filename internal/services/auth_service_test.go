package services

import (
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
)

func (s *ServiceTestSuite) registerUser(email string, role models.Role) *models.User {
	user, err := s.auth.Register(s.ctx, CreateUserInput{
		Name:     "Login User",
		Email:    email,
		Password: "password1",
		Role:     role,
	})
	s.Require().NoError(err)
	return user
}

func (s *ServiceTestSuite) TestLogin_AuthenticateAndLogout() {
	user := s.registerUser("login@example.com", models.RoleManager)

	result, err := s.auth.Login(s.ctx, "LOGIN@example.com", "password1")
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
	s.Equal(user.ID, result.Claims.UserID)
	s.Equal(models.RoleManager, result.Claims.Role)

	current, claims, err := s.auth.Authenticate(s.ctx, result.Token)
	s.Require().NoError(err)
	s.Equal(user.ID, current.ID)
	s.Equal(result.Claims.ID, claims.ID)

	s.Require().NoError(s.auth.Logout(s.ctx, claims))
	_, _, err = s.auth.Authenticate(s.ctx, result.Token)
	s.ErrorIs(err, apierrors.ErrUnauthenticated)
}

func (s *ServiceTestSuite) TestLogin_Failures() {
	user := s.registerUser("fail@example.com", models.RoleEmployee)

	_, err := s.auth.Login(s.ctx, "fail@example.com", "wrong-password")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.Login(s.ctx, "nobody@example.com", "password1")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.users.SetActive(s.ctx, user.ID, false)
	s.Require().NoError(err)
	_, err = s.auth.Login(s.ctx, "fail@example.com", "password1")
	s.ErrorIs(err, apierrors.ErrAccountDisabled)
}

func (s *ServiceTestSuite) TestLogin_Throttled() {
	s.registerUser("throttle@example.com", models.RoleEmployee)

	for i := 0; i < 5; i++ {
		_, err := s.auth.Login(s.ctx, "throttle@example.com", "wrong-password")
		s.ErrorIs(err, ErrInvalidCredentials)
	}
	_, err := s.auth.Login(s.ctx, "throttle@example.com", "password1")
	s.ErrorIs(err, ErrTooManyLoginAttempts)
}

func (s *ServiceTestSuite) TestAuthenticate_RejectsDeactivatedAndGarbage() {
	user := s.registerUser("active@example.com", models.RoleEmployee)
	result, err := s.auth.Login(s.ctx, "active@example.com", "password1")
	s.Require().NoError(err)

	_, err = s.users.SetActive(s.ctx, user.ID, false)
	s.Require().NoError(err)
	_, _, err = s.auth.Authenticate(s.ctx, result.Token)
	s.ErrorIs(err, apierrors.ErrAccountDisabled)

	_, _, err = s.auth.Authenticate(s.ctx, "not-a-token")
	s.ErrorIs(err, apierrors.ErrUnauthenticated)
}
