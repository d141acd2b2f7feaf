package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a dated cash-out record of a project.
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"not null;index:,composite:project_date,priority:1" json:"projectId"`
	Date        Date            `gorm:"not null;index:,composite:project_date,priority:2" json:"date"`
	Category    string          `gorm:"size:100;not null;index" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMode PaymentMode     `gorm:"size:20;not null;default:'cash'" json:"paymentMode"`
	PaidTo      string          `gorm:"size:200" json:"paidTo"`
	Description string          `gorm:"size:500" json:"description"`
	CreatedBy   uint            `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
