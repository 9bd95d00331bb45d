// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory sqlite database that is closed when the
// test ends. The pool is limited to one connection because every new
// connection to ":memory:" is a separate database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return open(t, ":memory:?_foreign_keys=on", 1)
}

// NewFileDB opens a migrated sqlite database in a temporary file that several
// connections can write to concurrently. Transactions take the write lock when
// they begin and wait for it instead of failing with SQLITE_BUSY.
func NewFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	return open(t, dsn, 4)
}

func open(t *testing.T, dsn string, maxConns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.AddIndexes(db))

	return db
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateUser inserts an active user with the given role and hourly rate.
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role, rate float64) *models.User {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         role,
		HourlyRate:   rate,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProject inserts an ongoing project managed by managerID.
func CreateProject(t *testing.T, db *gorm.DB, name string, managerID uint64, budget float64) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:      name,
		Budget:    budget,
		Status:    models.ProjectStatusOngoing,
		StartDate: Date(2024, time.January, 1),
		ManagerID: managerID,
	}
	require.NoError(t, db.Omit("Manager").Create(project).Error)
	return project
}

// CreateTask inserts a TODO task in projectID. assignee may be nil.
func CreateTask(t *testing.T, db *gorm.DB, title string, projectID uint64, assignee *uint64, estimated float64) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:          title,
		Status:         models.TaskStatusTodo,
		EstimatedHours: estimated,
		ProjectID:      projectID,
		AssignedTo:     assignee,
	}
	require.NoError(t, db.Omit("Project", "Assignee").Create(task).Error)
	return task
}

// CreateTimesheet inserts a timesheet without running business rules.
func CreateTimesheet(t *testing.T, db *gorm.DB, userID, taskID uint64, day time.Time, hours float64) *models.Timesheet {
	t.Helper()
	ts := &models.Timesheet{
		UserID:   userID,
		TaskID:   taskID,
		WorkDate: day,
		Hours:    hours,
	}
	require.NoError(t, db.Omit("User", "Task").Create(ts).Error)
	return ts
}
