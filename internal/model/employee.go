package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompensationType is how an employee is paid.
type CompensationType string

const (
	CompensationFixed CompensationType = "fixed"
	CompensationDaily CompensationType = "daily"
)

// Employee is a salaried or daily-wage worker.
type Employee struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	ProjectID        *uint            `gorm:"index" json:"projectId"`
	Name             string           `gorm:"size:200;not null" json:"name"`
	Phone            string           `gorm:"size:32" json:"phone"`
	Designation      string           `gorm:"size:100" json:"designation"`
	CompensationType CompensationType `gorm:"size:10;not null" json:"compensationType"`
	MonthlySalary    decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0" json:"monthlySalary"`
	DailyRate        decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0" json:"dailyRate"`
	IsActive         bool             `gorm:"not null" json:"isActive"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// AttendanceStatus is an employee's presence on a date.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half_day"
)

// Valid reports whether s is a known attendance status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceHalfDay:
		return true
	}
	return false
}

// EmployeeAttendance is one employee's attendance on one date.
type EmployeeAttendance struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	EmployeeID uint             `gorm:"not null;uniqueIndex:,composite:employee_date,priority:1" json:"employeeId"`
	Date       Date             `gorm:"not null;uniqueIndex:,composite:employee_date,priority:2" json:"date"`
	Status     AttendanceStatus `gorm:"size:10;not null" json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// EmployeePayment is a wage or salary payment.
type EmployeePayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	EmployeeID  uint            `gorm:"not null;index:,composite:employee_date,priority:1" json:"employeeId"`
	ProjectID   *uint           `gorm:"index:,composite:project_date,priority:1" json:"projectId"`
	Date        Date            `gorm:"not null;index:,composite:employee_date,priority:2;index:,composite:project_date,priority:2" json:"date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMode PaymentMode     `gorm:"size:20;not null;default:'cash'" json:"paymentMode"`
	Remarks     string          `gorm:"size:500" json:"remarks"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
