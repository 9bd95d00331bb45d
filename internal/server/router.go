package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/models"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Projects   *handlers.ProjectHandler
	Tasks      *handlers.TaskHandler
	Timesheets *handlers.TimesheetHandler
	Reports    *handlers.ReportHandler
	Health     *handlers.HealthHandler
}

var (
	adminOnly       = []models.Role{models.RoleAdmin}
	adminOrManager  = []models.Role{models.RoleAdmin, models.RoleManager}
	adminOrEmployee = []models.Role{models.RoleAdmin, models.RoleEmployee}
)

// NewRouter mounts the API. Successful writes through users, projects, tasks
// and timesheets bump the report cache generation on inv.
func NewRouter(cfg config.HTTP, l *zap.Logger, authn middleware.Authenticator, inv cache.Invalidator, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		ginzap.Ginzap(l, time.RFC3339, true),
		ginzap.RecoveryWithZap(l, true),
		corsMiddleware(cfg.CORSOrigins),
		middleware.Metrics(),
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		middleware.ConcurrencyLimit(cfg.MaxConcurrent),
		middleware.MaxBodyBytes(cfg.MaxBodyBytes),
	)

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(authn)
	invalidate := middleware.InvalidateOnWrite(inv, cache.NamespaceReports)
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", requireAuth, middleware.RequireRole(adminOnly...), invalidate, h.Auth.Register)
		authGroup.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
	}

	users := api.Group("/users", requireAuth, middleware.RequireRole(adminOnly...), invalidate)
	{
		users.POST("", h.Users.CreateUser)
		users.GET("", h.Users.ListUsers)
		users.GET("/:id", h.Users.GetUser)
		users.PUT("/:id", h.Users.UpdateUser)
		users.PATCH("/:id/status", h.Users.SetUserStatus)
	}

	projects := api.Group("/projects", requireAuth, invalidate)
	{
		projects.POST("", middleware.RequireRole(adminOnly...), h.Projects.CreateProject)
		projects.GET("", middleware.RequireRole(adminOrManager...), h.Projects.ListProjects)
		projects.GET("/:id", middleware.RequireRole(adminOrManager...), h.Projects.GetProject)
		projects.PUT("/:id", middleware.RequireRole(adminOrManager...), h.Projects.UpdateProject)
		projects.PUT("/:id/assign-manager", middleware.RequireRole(adminOnly...), h.Projects.AssignManager)
		projects.DELETE("/:id", middleware.RequireRole(adminOnly...), h.Projects.DeleteProject)
	}

	tasks := api.Group("/tasks", requireAuth, invalidate)
	{
		tasks.POST("", middleware.RequireRole(adminOrManager...), h.Tasks.CreateTask)
		tasks.GET("", h.Tasks.ListTasks)
		tasks.GET("/:id", h.Tasks.GetTask)
		tasks.PUT("/:id", h.Tasks.UpdateTask)
		tasks.PATCH("/:id/assign", middleware.RequireRole(adminOrManager...), h.Tasks.AssignTask)
		tasks.DELETE("/:id", middleware.RequireRole(adminOrManager...), h.Tasks.DeleteTask)
	}

	timesheets := api.Group("/timesheets", requireAuth, invalidate)
	{
		timesheets.POST("", h.Timesheets.CreateTimesheet)
		timesheets.GET("", h.Timesheets.ListTimesheets)
		timesheets.GET("/:id", h.Timesheets.GetTimesheet)
		timesheets.PUT("/:id", middleware.RequireRole(adminOrEmployee...), h.Timesheets.UpdateTimesheet)
		timesheets.DELETE("/:id", middleware.RequireRole(adminOrEmployee...), h.Timesheets.DeleteTimesheet)
	}

	reports := api.Group("/reports", requireAuth)
	{
		reports.GET("/project-cost", middleware.RequireRole(adminOrManager...), h.Reports.ProjectCost)
		reports.GET("/employee-work-hour", h.Reports.EmployeeWorkHours)
		reports.GET("/task-completion", h.Reports.TaskCompletion)
		reports.GET("/monthly-summary", h.Reports.MonthlySummary)
		reports.GET("/projects/:id/budget-usage", middleware.RequireRole(adminOrManager...), h.Reports.BudgetUsage)
		reports.GET("/projects/:id/profit-loss", middleware.RequireRole(adminOrManager...), h.Reports.ProfitLoss)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	return cors.New(cfg)
}

// BuildServer wraps the router with the configured timeouts.
func BuildServer(cfg config.HTTP, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
