package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contractor is a labour contractor working on a project.
type Contractor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index" json:"projectId"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Phone     string    `gorm:"size:32" json:"phone"`
	WorkType  string    `gorm:"size:100" json:"workType"`
	Notes     string    `gorm:"type:text" json:"notes"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContractorEntry records work value owed to a contractor on a date.
type ContractorEntry struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ContractorID uint            `gorm:"not null;index:,composite:contractor_date,priority:1" json:"contractorId"`
	ProjectID    uint            `gorm:"not null;index" json:"projectId"`
	Date         Date            `gorm:"not null;index:,composite:contractor_date,priority:2" json:"date"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description  string          `gorm:"size:500" json:"description"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ContractorPayment records cash paid to a contractor.
type ContractorPayment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ContractorID uint            `gorm:"not null;index:,composite:contractor_date,priority:1" json:"contractorId"`
	ProjectID    uint            `gorm:"not null;index:,composite:project_date,priority:1" json:"projectId"`
	Date         Date            `gorm:"not null;index:,composite:contractor_date,priority:2;index:,composite:project_date,priority:2" json:"date"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMode  PaymentMode     `gorm:"size:20;not null;default:'cash'" json:"paymentMode"`
	Remarks      string          `gorm:"size:500" json:"remarks"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ContractorPaymentAllocation settles part of an entry with part of a payment.
type ContractorPaymentAllocation struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	PaymentID uint            `gorm:"not null;index" json:"paymentId"`
	EntryID   uint            `gorm:"not null;index" json:"entryId"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
