package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

// Project is a construction site with its budget.
type Project struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:200;not null" json:"name"`
	Location        string          `gorm:"size:255" json:"location"`
	Description     string          `gorm:"type:text" json:"description"`
	AllocatedBudget decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"allocatedBudget"`
	Spent           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"spent"`
	Status          ProjectStatus   `gorm:"size:20;not null;default:'active'" json:"status"`
	StartDate       Date            `json:"startDate"`
	EndDate         Date            `json:"endDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OverBudget reports whether spending exceeds the allocated budget.
func (p Project) OverBudget() bool {
	return p.AllocatedBudget.IsPositive() && p.Spent.GreaterThan(p.AllocatedBudget)
}

// ProjectBalanceAdjustment is a manual correction to a project's running balance.
type ProjectBalanceAdjustment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProjectID uint            `gorm:"not null;index:,composite:project_date,priority:1" json:"projectId"`
	Date      Date            `gorm:"not null;index:,composite:project_date,priority:2" json:"date"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Reason    string          `gorm:"size:500;not null" json:"reason"`
	CreatedBy uint            `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
