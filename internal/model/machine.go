package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Machine is a piece of equipment used on a project.
type Machine struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProjectID     uint            `gorm:"not null;index" json:"projectId"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	MachineNumber string          `gorm:"size:64" json:"machineNumber"`
	OwnerName     string          `gorm:"size:200" json:"ownerName"`
	OwnershipType string          `gorm:"size:20;not null;default:'rented'" json:"ownershipType"`
	Rate          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"rate"`
	RateUnit      string          `gorm:"size:10;not null;default:'hour'" json:"rateUnit"`
	Notes         string          `gorm:"type:text" json:"notes"`
	IsActive      bool            `gorm:"not null" json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// MachineEntry records machine usage owed on a date.
type MachineEntry struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MachineID   uint            `gorm:"not null;index:,composite:machine_date,priority:1" json:"machineId"`
	ProjectID   uint            `gorm:"not null;index" json:"projectId"`
	Date        Date            `gorm:"not null;index:,composite:machine_date,priority:2" json:"date"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"quantity"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description string          `gorm:"size:500" json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// MachinePayment records cash paid for machine usage.
type MachinePayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MachineID   uint            `gorm:"not null;index:,composite:machine_date,priority:1" json:"machineId"`
	ProjectID   uint            `gorm:"not null;index:,composite:project_date,priority:1" json:"projectId"`
	Date        Date            `gorm:"not null;index:,composite:machine_date,priority:2;index:,composite:project_date,priority:2" json:"date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMode PaymentMode     `gorm:"size:20;not null;default:'cash'" json:"paymentMode"`
	Remarks     string          `gorm:"size:500" json:"remarks"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// MachinePaymentAllocation settles part of a machine entry with part of a payment.
type MachinePaymentAllocation struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	PaymentID uint            `gorm:"not null;index" json:"paymentId"`
	EntryID   uint            `gorm:"not null;index" json:"entryId"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
