package models

import (
	"time"
)

// Timesheet is one day of work logged by a user against a task.
// (user_id, task_id, work_date) is unique.
type Timesheet struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	WorkDate  time.Time `gorm:"type:date;not null;uniqueIndex:idx_timesheets_user_task_date,priority:3;index" json:"work_date"`
	Hours     float64   `gorm:"type:decimal(4,2);not null" json:"hours"`
	Remarks   string    `gorm:"type:text" json:"remarks"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_timesheets_user_task_date,priority:1" json:"user_id"`
	TaskID    uint64    `gorm:"not null;uniqueIndex:idx_timesheets_user_task_date,priority:2;index" json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user,omitempty"`
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task,omitempty"`
}
