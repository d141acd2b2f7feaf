package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/ledger"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
)

// VendorStore manages vendors, their bills and payments.
type VendorStore interface {
	ListVendors(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Vendor, error)
	GetVendor(ctx context.Context, scope rbac.Scope, id uint) (*model.Vendor, error)
	CreateVendor(ctx context.Context, scope rbac.Scope, in VendorInput) (*model.Vendor, error)
	UpdateVendor(ctx context.Context, scope rbac.Scope, id uint, apply func(*VendorInput) error) (*model.Vendor, error)
	DeleteVendor(ctx context.Context, scope rbac.Scope, id uint) error

	ListVendorBills(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.VendorBill, error)
	CreateVendorBill(ctx context.Context, scope rbac.Scope, id uint, in VendorBillInput) (*model.VendorBill, error)
	DeleteVendorBill(ctx context.Context, scope rbac.Scope, id, billID uint) error

	ListVendorPayments(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.VendorPayment, error)
	CreateVendorPayment(ctx context.Context, scope rbac.Scope, id uint, in VendorPaymentInput) (*model.VendorPayment, error)
	DeleteVendorPayment(ctx context.Context, scope rbac.Scope, id, paymentID uint) error

	VendorLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*VendorLedgerReport, error)
}

// VendorInput creates or replaces a vendor's editable fields.
type VendorInput struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	GSTNumber string `json:"gstNumber"`
	Address   string `json:"address"`
}

// VendorBillInput records a bill.
type VendorBillInput struct {
	ProjectID   *uint           `json:"projectId"`
	Date        model.Date      `json:"date"`
	BillNumber  string          `json:"billNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// VendorPaymentInput records a payment.
type VendorPaymentInput struct {
	ProjectID   *uint             `json:"projectId"`
	Date        model.Date        `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	PaymentMode model.PaymentMode `json:"paymentMode"`
	Remarks     string            `json:"remarks"`
}

// VendorLedgerReport is a vendor's bills against payments. Bills act as entries.
// Vendor payments are not allocated explicitly; they settle bills oldest first.
type VendorLedgerReport struct {
	Vendor model.Vendor `json:"vendor"`
	ledger.Book
}

func (s *gormStore) vendor(tx *gorm.DB, id uint, lock bool) (*model.Vendor, error) {
	var v model.Vendor
	if err := first(tx, &v, id, "vendor", lock); err != nil {
		return nil, err
	}
	return &v, nil
}

// uniqueVendorName rejects a name already used by another vendor, ignoring case.
func uniqueVendorName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&model.Vendor{}).Where("LOWER(name) = ?", toLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check vendor name: %w", err)
	}
	if count > 0 {
		return vendorNameTaken()
	}
	return nil
}

func vendorNameTaken() error {
	return apperr.Fields(map[string]string{"name": "a vendor with this name already exists"})
}

func (s *gormStore) ListVendors(ctx context.Context, _ rbac.Scope, f Filter) ([]model.Vendor, error) {
	q := s.db.WithContext(ctx)
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Search))
	}
	var out []model.Vendor
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetVendor(ctx context.Context, _ rbac.Scope, id uint) (*model.Vendor, error) {
	return s.vendor(s.db.WithContext(ctx), id, false)
}

func (s *gormStore) CreateVendor(ctx context.Context, _ rbac.Scope, in VendorInput) (*model.Vendor, error) {
	name := trimmed(in.Name)
	if name == "" {
		return nil, apperr.Fields(map[string]string{"name": "is required"})
	}
	v := model.Vendor{
		Name: name, Phone: in.Phone, GSTNumber: in.GSTNumber, Address: in.Address,
		TotalBilled: decimal.Zero, TotalPaid: decimal.Zero, Remaining: decimal.Zero,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueVendorName(tx, name, 0); err != nil {
			return err
		}
		return onDuplicate(tx.Create(&v).Error, vendorNameTaken)
	})
	if err != nil {
		return nil, notFound(err, "vendor")
	}
	return &v, nil
}

func (s *gormStore) UpdateVendor(ctx context.Context, _ rbac.Scope, id uint, apply func(*VendorInput) error) (*model.Vendor, error) {
	var v *model.Vendor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if v, err = s.vendor(tx, id, true); err != nil {
			return err
		}
		in := VendorInput{Name: v.Name, Phone: v.Phone, GSTNumber: v.GSTNumber, Address: v.Address}
		if err := apply(&in); err != nil {
			return err
		}
		name := trimmed(in.Name)
		if name == "" {
			return apperr.Fields(map[string]string{"name": "is required"})
		}
		if err := uniqueVendorName(tx, name, id); err != nil {
			return err
		}
		v.Name, v.Phone, v.GSTNumber, v.Address = name, in.Phone, in.GSTNumber, in.Address
		return onDuplicate(tx.Save(v).Error, vendorNameTaken)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *gormStore) DeleteVendor(ctx context.Context, _ rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.vendor(tx, id, true); err != nil {
			return err
		}
		if err := blockIfReferenced(tx, "vendor", id,
			ref{&model.VendorBill{}, "vendor_id", "bills"},
			ref{&model.VendorPayment{}, "vendor_id", "payments"},
			ref{&model.MaterialMovement{}, "vendor_id", "material movements"},
		); err != nil {
			return err
		}
		return tx.Delete(&model.Vendor{}, id).Error
	})
}

func (s *gormStore) ListVendorBills(ctx context.Context, _ rbac.Scope, id uint, r parse.Range) ([]model.VendorBill, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.vendor(db, id, false); err != nil {
		return nil, err
	}
	var out []model.VendorBill
	if err := dateRange(db.Where("vendor_id = ?", id), "date", r).Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list vendor bills: %w", err)
	}
	return out, nil
}

func (s *gormStore) CreateVendorBill(ctx context.Context, scope rbac.Scope, id uint, in VendorBillInput) (*model.VendorBill, error) {
	v := violations{}
	v.date("date", in.Date)
	v.positive("amount", in.Amount)
	if err := v.err(); err != nil {
		return nil, err
	}

	bill := model.VendorBill{VendorID: id, Date: in.Date, BillNumber: in.BillNumber, Amount: in.Amount, Description: in.Description}
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		vendor, err := s.vendor(tx, id, true)
		if err != nil {
			return err
		}
		if in.ProjectID != nil {
			if err := requireProject(tx, scope, *in.ProjectID); err != nil {
				return err
			}
			bill.ProjectID = in.ProjectID
		}
		if err := tx.Create(&bill).Error; err != nil {
			return fmt.Errorf("create vendor bill: %w", err)
		}
		fx.ledger("vendor", "create_bill")
		return recomputeVendor(tx, vendor)
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (s *gormStore) DeleteVendorBill(ctx context.Context, _ rbac.Scope, id, billID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		vendor, err := s.vendor(tx, id, true)
		if err != nil {
			return err
		}
		res := tx.Where("vendor_id = ?", id).Delete(&model.VendorBill{}, billID)
		if res.Error != nil {
			return fmt.Errorf("delete vendor bill %d: %w", billID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("bill")
		}
		fx.ledger("vendor", "delete_bill")
		return recomputeVendor(tx, vendor)
	})
}

func (s *gormStore) ListVendorPayments(ctx context.Context, _ rbac.Scope, id uint, r parse.Range) ([]model.VendorPayment, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.vendor(db, id, false); err != nil {
		return nil, err
	}
	var out []model.VendorPayment
	if err := dateRange(db.Where("vendor_id = ?", id), "date", r).Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list vendor payments: %w", err)
	}
	return out, nil
}

func (s *gormStore) CreateVendorPayment(ctx context.Context, scope rbac.Scope, id uint, in VendorPaymentInput) (*model.VendorPayment, error) {
	v := violations{}
	v.date("date", in.Date)
	v.positive("amount", in.Amount)
	v.mode("paymentMode", &in.PaymentMode)
	if err := v.err(); err != nil {
		return nil, err
	}

	payment := model.VendorPayment{VendorID: id, Date: in.Date, Amount: in.Amount, PaymentMode: in.PaymentMode, Remarks: in.Remarks}
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		vendor, err := s.vendor(tx, id, true)
		if err != nil {
			return err
		}
		if in.ProjectID != nil {
			if err := requireProject(tx, scope, *in.ProjectID); err != nil {
				return err
			}
			payment.ProjectID = in.ProjectID
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create vendor payment: %w", err)
		}
		if err := touchProjects(tx, fx, payment.ProjectID); err != nil {
			return err
		}
		fx.ledger("vendor", "create_payment")
		return recomputeVendor(tx, vendor)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *gormStore) DeleteVendorPayment(ctx context.Context, _ rbac.Scope, id, paymentID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		vendor, err := s.vendor(tx, id, true)
		if err != nil {
			return err
		}
		var payment model.VendorPayment
		if err := tx.Where("vendor_id = ?", id).First(&payment, paymentID).Error; err != nil {
			return notFound(err, "payment")
		}
		if err := tx.Delete(&payment).Error; err != nil {
			return fmt.Errorf("delete vendor payment %d: %w", paymentID, err)
		}
		if err := touchProjects(tx, fx, payment.ProjectID); err != nil {
			return err
		}
		fx.ledger("vendor", "delete_payment")
		return recomputeVendor(tx, vendor)
	})
}

// recomputeVendor derives the vendor's totals from its bills and payments.
func recomputeVendor(tx *gorm.DB, v *model.Vendor) error {
	var billed, paid []decimal.Decimal
	if err := tx.Model(&model.VendorBill{}).Where("vendor_id = ?", v.ID).Pluck("amount", &billed).Error; err != nil {
		return fmt.Errorf("sum bills of vendor %d: %w", v.ID, err)
	}
	if err := tx.Model(&model.VendorPayment{}).Where("vendor_id = ?", v.ID).Pluck("amount", &paid).Error; err != nil {
		return fmt.Errorf("sum payments of vendor %d: %w", v.ID, err)
	}
	v.TotalBilled = decimal.Sum(decimal.Zero, billed...)
	v.TotalPaid = decimal.Sum(decimal.Zero, paid...)
	v.Remaining = v.TotalBilled.Sub(v.TotalPaid)
	return tx.Model(v).Updates(map[string]any{
		"total_billed": v.TotalBilled,
		"total_paid":   v.TotalPaid,
		"remaining":    v.Remaining,
	}).Error
}

func (s *gormStore) VendorLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*VendorLedgerReport, error) {
	db := s.db.WithContext(ctx)
	vendor, err := s.vendor(db, id, false)
	if err != nil {
		return nil, err
	}
	bills, err := s.ListVendorBills(ctx, scope, id, parse.Range{})
	if err != nil {
		return nil, err
	}
	payments, err := s.ListVendorPayments(ctx, scope, id, parse.Range{})
	if err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, 0, len(bills))
	for _, b := range bills {
		desc := b.Description
		if b.BillNumber != "" {
			desc = trimmed("Bill " + b.BillNumber + " " + desc)
		}
		entries = append(entries, ledger.Entry{ID: b.ID, Date: b.Date, Amount: b.Amount, Description: desc})
	}
	paid := make([]ledger.Payment, 0, len(payments))
	for _, p := range payments {
		paid = append(paid, ledger.Payment{ID: p.ID, Date: p.Date, Amount: p.Amount, Mode: p.PaymentMode, Remarks: p.Remarks})
	}
	return &VendorLedgerReport{Vendor: *vendor, Book: ledger.Build(entries, paid, ledger.SettleOldestFirst(entries, paid)).Window(r)}, nil
}
