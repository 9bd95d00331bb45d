package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	users    *UserService
	tokens   *auth.TokenManager
	revoked  auth.RevocationStore
	limiter  auth.LoginLimiter
	log      *zap.Logger
}

// NewAuthService creates a new AuthService. revoked and limiter may be the
// Nop implementations when redis is not configured.
func NewAuthService(
	userRepo repository.UserRepository,
	users *UserService,
	tokens *auth.TokenManager,
	revoked auth.RevocationStore,
	limiter auth.LoginLimiter,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		users:    users,
		tokens:   tokens,
		revoked:  revoked,
		limiter:  limiter,
		log:      log,
	}
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token  string
	Claims *auth.Claims
	User   *models.User
}

// Register creates an account on behalf of an administrator.
func (s *AuthService) Register(ctx context.Context, input CreateUserInput) (*models.User, error) {
	return s.users.Create(ctx, input)
}

// Login verifies the credentials and issues a bearer token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		// Throttling is best effort; a redis outage must not lock everyone out.
		s.log.Warn("login limiter unavailable", zap.Error(err))
		allowed = true
	}
	if !allowed {
		return nil, ErrTooManyLoginAttempts
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.log.Warn("failed to reset login attempts", zap.Error(err))
	}

	token, claims, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Claims: claims, User: user}, nil
}

// Authenticate resolves a bearer token to the current, active user. The role
// is taken from the stored user, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	return user, claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Me returns the user behind the current session.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*models.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.Fail(ctx, email); err != nil {
		s.log.Warn("failed to record login attempt", zap.Error(err))
	}
}
