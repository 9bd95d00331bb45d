package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/auth"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/scope"
)

const (
	ContextKeyUser   = "currentUser"
	ContextKeyClaims = "tokenClaims"
)

// Authenticator resolves a bearer token to the current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// RequireAuth checks the bearer token and loads the current user
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apierrors.Unauthorized(c, "missing bearer token")
			return
		}

		user, claims, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireRole lets the request through only when the current user has one of
// roles. It must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	roleSet := map[models.Role]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if _, ok := roleSet[user.Role]; !ok {
			apierrors.Forbidden(c, "your role cannot perform this action")
			return
		}
		c.Next()
	}
}

// CurrentUser retrieves the authenticated user from context
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentClaims retrieves the verified token claims from context
func CurrentClaims(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// GetViewer returns the caller as seen by visibility scoping
func GetViewer(c *gin.Context) (scope.Viewer, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return scope.Viewer{}, false
	}
	return scope.Viewer{ID: user.ID, Role: user.Role}, true
}
