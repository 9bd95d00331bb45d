package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusOngoing   ProjectStatus = "ONGOING"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

// Valid reports whether s is one of the known project statuses.
func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusOngoing || s == ProjectStatusCompleted
}

type Project struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Budget      float64       `gorm:"type:decimal(12,2);not null;default:0" json:"budget"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'ONGOING';index" json:"status"`
	StartDate   time.Time     `gorm:"type:date;not null" json:"start_date"`
	EndDate     *time.Time    `gorm:"type:date" json:"end_date"`
	ManagerID   uint64        `gorm:"not null;index" json:"manager_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Manager User   `gorm:"foreignKey:ManagerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"manager,omitempty"`
	Tasks   []Task `gorm:"foreignKey:ProjectID" json:"-"`
}
