package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/events"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/logger"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/scope"
	"github.com/yukikurage/project-management-api/internal/server"
	"github.com/yukikurage/project-management-api/internal/services"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		// The logger is configured from cfg, so fall back to a default one.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, flush := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Rotate: rotateOptions(cfg.Log),
	})
	defer flush()

	gin.SetMode(cfg.App.GinMode)

	// Connect to database
	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Redis backs token revocation, login throttling and the report cache.
	// Without it the service still runs with no-op implementations.
	var (
		revoked     auth.RevocationStore = auth.NopRevocationStore{}
		limiter     auth.LoginLimiter    = auth.NopLoginLimiter{}
		reportCache cache.Cache          = cache.Nop{}
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, continuing without it", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			revoked = auth.NewRedisRevocationStore(rdb)
			limiter = auth.NewRedisLoginLimiter(rdb)
			reportCache = cache.NewRedisCache(rdb, cfg.App.Name+":", metrics.ObserveCacheLookup)
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
		cancel()
	}

	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		log.Info("publishing domain events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		publisher = events.NewLogPublisher(log)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	reportRepo := repository.NewReportRepository(db)
	resolver := scope.NewResolver(projectRepo)

	// Services
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	userService := services.NewUserService(userRepo, projectRepo, taskRepo)
	authService := services.NewAuthService(userRepo, userService, tokens, revoked, limiter, log)
	projectService := services.NewProjectService(projectRepo, userRepo, resolver)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, resolver, publisher, log)
	timesheetService := services.NewTimesheetService(timesheetRepo, taskRepo, resolver, publisher, log)
	reportService := services.NewReportService(projectRepo, userRepo, taskRepo, reportRepo, resolver, reportCache, cfg.Report.CacheTTL)

	r := server.NewRouter(cfg.App.HTTP, log, authService, reportCache, server.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Users:      handlers.NewUserHandler(userService),
		Projects:   handlers.NewProjectHandler(projectService),
		Tasks:      handlers.NewTaskHandler(taskService),
		Timesheets: handlers.NewTimesheetHandler(timesheetService),
		Reports:    handlers.NewReportHandler(reportService),
		Health:     handlers.NewHealthHandler(db),
	})

	srv := server.BuildServer(cfg.App.HTTP, cfg.Addr(), r)

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	log.Info("server stopped")
}

func rotateOptions(l config.Log) *logger.Rotate {
	if l.File == "" {
		return nil
	}
	return &logger.Rotate{
		Filename:   l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}
