package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is a material supplier. Its totals are derived from bills and payments.
type Vendor struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Phone       string          `gorm:"size:32" json:"phone"`
	GSTNumber   string          `gorm:"column:gst_number;size:32" json:"gstNumber"`
	Address     string          `gorm:"size:500" json:"address"`
	TotalBilled decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"totalBilled"`
	TotalPaid   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"totalPaid"`
	Remaining   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"remaining"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// VendorBill is an amount billed by a vendor.
type VendorBill struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	VendorID    uint            `gorm:"not null;index:,composite:vendor_date,priority:1" json:"vendorId"`
	ProjectID   *uint           `gorm:"index" json:"projectId"`
	Date        Date            `gorm:"not null;index:,composite:vendor_date,priority:2" json:"date"`
	BillNumber  string          `gorm:"size:64" json:"billNumber"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description string          `gorm:"size:500" json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// VendorPayment is an amount paid to a vendor.
type VendorPayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	VendorID    uint            `gorm:"not null;index:,composite:vendor_date,priority:1" json:"vendorId"`
	ProjectID   *uint           `gorm:"index:,composite:project_date,priority:1" json:"projectId"`
	Date        Date            `gorm:"not null;index:,composite:vendor_date,priority:2;index:,composite:project_date,priority:2" json:"date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMode PaymentMode     `gorm:"size:20;not null;default:'cash'" json:"paymentMode"`
	Remarks     string          `gorm:"size:500" json:"remarks"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
