package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinNameLength     = 3
	MaxNameLength     = 255
	MinPasswordLength = 6
	passwordHashCost  = bcrypt.DefaultCost
)

// UserService manages user accounts. Accounts are never deleted; they are
// deactivated instead.
type UserService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
	}
}

// CreateUserInput represents the information needed to create an account.
type CreateUserInput struct {
	Name       string
	Email      string
	Password   string
	Role       models.Role
	HourlyRate *float64
	IsActive   *bool
}

// UpdateUserInput holds the fields to change. Nil fields are left untouched.
type UpdateUserInput struct {
	Name       *string
	Email      *string
	Password   *string
	Role       *models.Role
	HourlyRate *float64
	IsActive   *bool
}

func (in UpdateUserInput) empty() bool {
	return in.Name == nil && in.Email == nil && in.Password == nil &&
		in.Role == nil && in.HourlyRate == nil && in.IsActive == nil
}

// ListUsersInput represents filters for listing users.
type ListUsersInput struct {
	Name     string
	Email    string
	Role     *models.Role
	IsActive *bool
	Page     int
	PageSize int
}

// Create validates the input and stores a new user with a hashed password.
// Role defaults to EMPLOYEE, hourly rate to 0 and the account is active
// unless stated otherwise.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < MinPasswordLength {
		return nil, validationError("password must be at least %d characters", MinPasswordLength)
	}

	role := input.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if !role.Valid() {
		return nil, validationError("role must be one of ADMIN, MANAGER, EMPLOYEE")
	}

	rate := 0.0
	if input.HourlyRate != nil {
		rate = *input.HourlyRate
	}
	if rate < 0 {
		return nil, validationError("hourlyRate must not be negative")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		HourlyRate:   rate,
		IsActive:     active,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

// List returns users matching the filters.
func (s *UserService) List(ctx context.Context, input ListUsersInput) ([]models.User, int64, error) {
	if input.Role != nil && !input.Role.Valid() {
		return nil, 0, validationError("role must be one of ADMIN, MANAGER, EMPLOYEE")
	}

	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Role:     input.Role,
		IsActive: input.IsActive,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Update changes the provided fields of a user.
func (s *UserService) Update(ctx context.Context, id uint64, input UpdateUserInput) (*models.User, error) {
	if input.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		user.Name = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < MinPasswordLength {
			return nil, validationError("password must be at least %d characters", MinPasswordLength)
		}
		hash, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, validationError("role must be one of ADMIN, MANAGER, EMPLOYEE")
		}
		if *input.Role != user.Role {
			if err := s.ensureRoleReleasable(ctx, user); err != nil {
				return nil, err
			}
		}
		user.Role = *input.Role
	}
	if input.HourlyRate != nil {
		if *input.HourlyRate < 0 {
			return nil, validationError("hourlyRate must not be negative")
		}
		user.HourlyRate = *input.HourlyRate
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// SetActive activates or deactivates an account.
func (s *UserService) SetActive(ctx context.Context, id uint64, active bool) (*models.User, error) {
	return s.Update(ctx, id, UpdateUserInput{IsActive: &active})
}

// ensureRoleReleasable rejects role changes that would leave projects with a
// manager who is no longer a MANAGER or tasks assigned to a non-EMPLOYEE.
func (s *UserService) ensureRoleReleasable(ctx context.Context, user *models.User) error {
	switch user.Role {
	case models.RoleManager:
		ids, err := s.projectRepo.ManagedProjectIDs(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to load managed projects: %w", err)
		}
		if len(ids) > 0 {
			return validationError("user manages %d project(s); reassign managed projects before changing the role", len(ids))
		}
	case models.RoleEmployee:
		_, total, err := s.taskRepo.List(ctx, repository.TaskFilter{AssignedTo: &user.ID, Page: 1, PageSize: 1})
		if err != nil {
			return fmt.Errorf("failed to load assigned tasks: %w", err)
		}
		if total > 0 {
			return validationError("user is assigned to %d task(s); unassign tasks before changing the role", total)
		}
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, exceptID uint64) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != exceptID:
		return ErrEmailTaken
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check email: %w", err)
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return "", validationError("name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	return name, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validationError("email must be a valid email address")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
