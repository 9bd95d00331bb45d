package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/cache"
)

// InvalidateOnWrite bumps the cache generation of namespace after every
// successful non-GET request, once the handler has committed its change.
func InvalidateOnWrite(inv cache.Invalidator, namespace string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		if err := inv.Bump(context.WithoutCancel(c.Request.Context()), namespace); err != nil {
			_ = c.Error(err)
		}
	}
}
