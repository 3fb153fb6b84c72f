package models

import (
	"time"
)

// ProjectionMonthLayout is the expected format of Projection.Month.
const ProjectionMonthLayout = "2006-01"

// Projection is a user-entered projected billing amount for one project month.
type Projection struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	ProjectID string    `json:"projectId" gorm:"column:project_id;not null;uniqueIndex:idx_project_month"`
	Month     string    `json:"month" gorm:"not null;uniqueIndex:idx_project_month"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName specifies the table name for Projection Model
func (Projection) TableName() string {
	return "projections"
}

// ValidMonth reports whether month parses as "YYYY-MM".
func ValidMonth(month string) bool {
	_, err := time.Parse(ProjectionMonthLayout, month)
	return err == nil
}
