package models

import (
	"time"
)

// ProjectStatus is the user-assigned billing status overlay for a project
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusOnHold    ProjectStatus = "onHold"
	StatusCompleted ProjectStatus = "completed"
	StatusArchived  ProjectStatus = "archived"
)

// ValidStatus reports whether s is one of the known project statuses.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusActive, StatusOnHold, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// ProjectMeta stores the user-entered overlay for a Zoho project.
// Zoho stays the source of truth for the project itself; only dashboard
// annotations (status, comment, signed fee) live here.
type ProjectMeta struct {
	ProjectID string        `json:"projectId" gorm:"column:project_id;primaryKey"`
	Status    ProjectStatus `json:"status" gorm:"not null;default:'active'"`
	Comment   string        `json:"comment"`
	SignedFee float64       `json:"signedFee" gorm:"column:signed_fee"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`
}

// TableName specifies the table name for ProjectMeta Model
func (ProjectMeta) TableName() string {
	return "project_metas"
}
