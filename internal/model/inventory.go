package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NonConsumableCategory groups reusable inventory items (tools, scaffolding, ...).
type NonConsumableCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Bucket is one of the places a non-consumable item's quantity can be.
type Bucket string

const (
	BucketCompanyStore Bucket = "companyStore"
	BucketInUse        Bucket = "inUse"
	BucketUnderRepair  Bucket = "underRepair"
	BucketLost         Bucket = "lost"
)

// NonConsumableItem is a reusable item whose quantity is partitioned across buckets.
type NonConsumableItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CategoryID    uint      `gorm:"not null;index" json:"categoryId"`
	Name          string    `gorm:"size:200;not null" json:"name"`
	Unit          string    `gorm:"size:20" json:"unit"`
	TotalQuantity int       `gorm:"not null;default:0" json:"totalQuantity"`
	CompanyStore  int       `gorm:"not null;default:0" json:"companyStore"`
	InUse         int       `gorm:"not null;default:0" json:"inUse"`
	UnderRepair   int       `gorm:"not null;default:0" json:"underRepair"`
	Lost          int       `gorm:"not null;default:0" json:"lost"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (it *NonConsumableItem) bucket(b Bucket) (*int, error) {
	switch b {
	case BucketCompanyStore:
		return &it.CompanyStore, nil
	case BucketInUse:
		return &it.InUse, nil
	case BucketUnderRepair:
		return &it.UnderRepair, nil
	case BucketLost:
		return &it.Lost, nil
	}
	return nil, fmt.Errorf("unknown bucket %q", b)
}

// CheckPartition verifies every bucket is non-negative and the buckets sum to the total.
func (it NonConsumableItem) CheckPartition() error {
	if it.TotalQuantity < 0 || it.CompanyStore < 0 || it.InUse < 0 || it.UnderRepair < 0 || it.Lost < 0 {
		return fmt.Errorf("quantities must not be negative")
	}
	if sum := it.CompanyStore + it.InUse + it.UnderRepair + it.Lost; sum != it.TotalQuantity {
		return fmt.Errorf("bucket quantities sum to %d but totalQuantity is %d", sum, it.TotalQuantity)
	}
	return nil
}

// Move shifts qty units between buckets.
func (it *NonConsumableItem) Move(from, to Bucket, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if from == to {
		return fmt.Errorf("from and to must differ")
	}
	src, err := it.bucket(from)
	if err != nil {
		return err
	}
	dst, err := it.bucket(to)
	if err != nil {
		return err
	}
	if *src < qty {
		return fmt.Errorf("only %d available in %s", *src, from)
	}
	*src -= qty
	*dst += qty
	return it.CheckPartition()
}

// Resize changes the total quantity, absorbing the difference in the company store.
func (it *NonConsumableItem) Resize(total int) error {
	delta := total - it.TotalQuantity
	if it.CompanyStore+delta < 0 {
		return fmt.Errorf("cannot reduce total below quantities held outside the company store")
	}
	it.CompanyStore += delta
	it.TotalQuantity = total
	return it.CheckPartition()
}

// Material is a consumable stocked at a project.
type Material struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ProjectID    uint            `gorm:"not null;index" json:"projectId"`
	Name         string          `gorm:"size:200;not null" json:"name"`
	Unit         string          `gorm:"size:20" json:"unit"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"currentStock"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// MovementType is the direction of a material movement.
type MovementType string

const (
	MovementInward   MovementType = "inward"
	MovementConsumed MovementType = "consumed"
)

// MaterialMovement records stock received or consumed.
type MaterialMovement struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	MaterialID uint            `gorm:"not null;index:,composite:material_date,priority:1" json:"materialId"`
	Date       Date            `gorm:"not null;index:,composite:material_date,priority:2" json:"date"`
	Type       MovementType    `gorm:"size:10;not null" json:"type"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"quantity"`
	VendorID   *uint           `gorm:"index" json:"vendorId"`
	Notes      string          `gorm:"size:500" json:"notes"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Signed returns the stock delta of the movement.
func (m MaterialMovement) Signed() decimal.Decimal {
	if m.Type == MovementConsumed {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
