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

// MachineStore manages machines and their entry/payment/allocation ledger.
type MachineStore interface {
	ListMachines(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Machine, error)
	GetMachine(ctx context.Context, scope rbac.Scope, id uint) (*model.Machine, error)
	CreateMachine(ctx context.Context, scope rbac.Scope, in MachineInput) (*model.Machine, error)
	UpdateMachine(ctx context.Context, scope rbac.Scope, id uint, apply func(*MachineInput) error) (*model.Machine, error)
	DeleteMachine(ctx context.Context, scope rbac.Scope, id uint) error

	ListMachineEntries(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.MachineEntry, error)
	CreateMachineEntry(ctx context.Context, scope rbac.Scope, id uint, in EntryInput) (*model.MachineEntry, error)
	UpdateMachineEntry(ctx context.Context, scope rbac.Scope, id, entryID uint, apply func(*EntryInput) error) (*model.MachineEntry, error)
	DeleteMachineEntry(ctx context.Context, scope rbac.Scope, id, entryID uint) error

	ListMachinePayments(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.MachinePayment, error)
	CreateMachinePayment(ctx context.Context, scope rbac.Scope, id uint, in PaymentInput) (*model.MachinePayment, error)
	UpdateMachinePayment(ctx context.Context, scope rbac.Scope, id, paymentID uint, apply func(*PaymentInput) error) (*model.MachinePayment, error)
	DeleteMachinePayment(ctx context.Context, scope rbac.Scope, id, paymentID uint) error

	ListMachineAllocations(ctx context.Context, scope rbac.Scope, id uint) ([]model.MachinePaymentAllocation, error)
	CreateMachineAllocation(ctx context.Context, scope rbac.Scope, id uint, in AllocationInput) (*model.MachinePaymentAllocation, error)
	DeleteMachineAllocation(ctx context.Context, scope rbac.Scope, id, allocationID uint) error

	MachineLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*PartyLedger, error)
}

// MachineInput creates or replaces a machine's editable fields.
type MachineInput struct {
	ProjectID     uint            `json:"projectId"`
	Name          string          `json:"name" binding:"required"`
	MachineNumber string          `json:"machineNumber"`
	OwnerName     string          `json:"ownerName"`
	OwnershipType string          `json:"ownershipType"`
	Rate          decimal.Decimal `json:"rate"`
	RateUnit      string          `json:"rateUnit"`
	Notes         string          `json:"notes"`
	IsActive      *bool           `json:"isActive"`
}

func (in *MachineInput) validate() error {
	v := violations{}
	v.required("name", in.Name)
	if in.ProjectID == 0 {
		v.add("projectId", "is required")
	}
	if in.OwnershipType == "" {
		in.OwnershipType = "rented"
	}
	if in.OwnershipType != "rented" && in.OwnershipType != "owned" {
		v.add("ownershipType", "must be rented or owned")
	}
	if in.RateUnit == "" {
		in.RateUnit = "hour"
	}
	switch in.RateUnit {
	case "hour", "day", "trip":
	default:
		v.add("rateUnit", "must be one of hour, day, trip")
	}
	v.nonNegative("rate", in.Rate)
	return v.err()
}

func (in MachineInput) apply(m *model.Machine) {
	m.ProjectID, m.Name, m.MachineNumber, m.OwnerName = in.ProjectID, trimmed(in.Name), in.MachineNumber, in.OwnerName
	m.OwnershipType, m.Rate, m.RateUnit, m.Notes = in.OwnershipType, in.Rate, in.RateUnit, in.Notes
	m.IsActive = boolOr(in.IsActive, m.IsActive)
}

var machineLedger = &partyLedger[model.MachineEntry, model.MachinePayment, model.MachinePaymentAllocation]{
	name: "machine",
	fk:   "machine_id",

	entryOf: func(e *model.MachineEntry) ledger.Entry {
		return ledger.Entry{ID: e.ID, Date: e.Date, Amount: e.Amount, Description: e.Description}
	},
	newEntry: func(pt party, in EntryInput) *model.MachineEntry {
		return &model.MachineEntry{MachineID: pt.ID, ProjectID: pt.ProjectID, Date: in.Date, Quantity: in.Quantity, Amount: in.Amount, Description: in.Description}
	},
	setEntry: func(e *model.MachineEntry, in EntryInput) {
		e.Date, e.Quantity, e.Amount, e.Description = in.Date, in.Quantity, in.Amount, in.Description
	},
	entryIn: func(e *model.MachineEntry) EntryInput {
		return EntryInput{Date: e.Date, Quantity: e.Quantity, Amount: e.Amount, Description: e.Description}
	},

	paymentOf: func(p *model.MachinePayment) ledger.Payment {
		return ledger.Payment{ID: p.ID, Date: p.Date, Amount: p.Amount, Mode: p.PaymentMode, Remarks: p.Remarks}
	},
	newPayment: func(pt party, in PaymentInput) *model.MachinePayment {
		return &model.MachinePayment{MachineID: pt.ID, ProjectID: pt.ProjectID, Date: in.Date, Amount: in.Amount, PaymentMode: in.PaymentMode, Remarks: in.Remarks}
	},
	setPayment: func(p *model.MachinePayment, in PaymentInput) {
		p.Date, p.Amount, p.PaymentMode, p.Remarks = in.Date, in.Amount, in.PaymentMode, in.Remarks
	},
	paymentIn: func(p *model.MachinePayment) PaymentInput {
		return PaymentInput{Date: p.Date, Amount: p.Amount, PaymentMode: p.PaymentMode, Remarks: p.Remarks}
	},

	allocOf: func(a *model.MachinePaymentAllocation) ledger.Allocation {
		return ledger.Allocation{ID: a.ID, PaymentID: a.PaymentID, EntryID: a.EntryID, Amount: a.Amount}
	},
	newAlloc: func(in AllocationInput) *model.MachinePaymentAllocation {
		return &model.MachinePaymentAllocation{PaymentID: in.PaymentID, EntryID: in.EntryID, Amount: in.Amount}
	},
}

func (s *gormStore) machine(tx *gorm.DB, scope rbac.Scope, id uint, lock bool) (*model.Machine, error) {
	var m model.Machine
	if err := first(tx, &m, id, "machine", lock); err != nil {
		return nil, err
	}
	if !scope.Allows(m.ProjectID) {
		return nil, apperr.AccessDenied("machine")
	}
	return &m, nil
}

func (s *gormStore) ListMachines(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Machine, error) {
	q := scoped(s.db.WithContext(ctx), scope, "project_id")
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Search))
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []model.Machine
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetMachine(ctx context.Context, scope rbac.Scope, id uint) (*model.Machine, error) {
	return s.machine(s.db.WithContext(ctx), scope, id, false)
}

func (s *gormStore) CreateMachine(ctx context.Context, scope rbac.Scope, in MachineInput) (*model.Machine, error) {
	if in.ProjectID == 0 {
		if own, ok := scope.ProjectID(); ok {
			in.ProjectID = own
		}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := model.Machine{IsActive: true}
	in.apply(&m)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, notFound(err, "machine")
	}
	return &m, nil
}

func (s *gormStore) UpdateMachine(ctx context.Context, scope rbac.Scope, id uint, apply func(*MachineInput) error) (*model.Machine, error) {
	var m *model.Machine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if m, err = s.machine(tx, scope, id, true); err != nil {
			return err
		}
		active := m.IsActive
		in := MachineInput{
			ProjectID: m.ProjectID, Name: m.Name, MachineNumber: m.MachineNumber, OwnerName: m.OwnerName,
			OwnershipType: m.OwnershipType, Rate: m.Rate, RateUnit: m.RateUnit, Notes: m.Notes, IsActive: &active,
		}
		if err := apply(&in); err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		if in.ProjectID != m.ProjectID {
			if err := requireProject(tx, scope, in.ProjectID); err != nil {
				return err
			}
			if err := blockIfReferenced(tx, "machine", id,
				ref{&model.MachineEntry{}, "machine_id", "entries"},
				ref{&model.MachinePayment{}, "machine_id", "payments"},
			); err != nil {
				return err
			}
		}
		in.apply(m)
		return tx.Save(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *gormStore) DeleteMachine(ctx context.Context, scope rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.machine(tx, scope, id, true); err != nil {
			return err
		}
		if err := blockIfReferenced(tx, "machine", id,
			ref{&model.MachineEntry{}, "machine_id", "entries"},
			ref{&model.MachinePayment{}, "machine_id", "payments"},
		); err != nil {
			return err
		}
		return tx.Delete(&model.Machine{}, id).Error
	})
}

func (s *gormStore) ListMachineEntries(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.MachineEntry, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.machine(db, scope, id, false); err != nil {
		return nil, err
	}
	return listEntries(db, machineLedger, id, r)
}

func (s *gormStore) CreateMachineEntry(ctx context.Context, scope rbac.Scope, id uint, in EntryInput) (*model.MachineEntry, error) {
	var out *model.MachineEntry
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		m, err := s.machine(tx, scope, id, true)
		if err != nil {
			return err
		}
		out, err = createEntry(tx, fx, machineLedger, party{ID: m.ID, ProjectID: m.ProjectID}, in)
		return err
	})
	return out, err
}

func (s *gormStore) UpdateMachineEntry(ctx context.Context, scope rbac.Scope, id, entryID uint, apply func(*EntryInput) error) (*model.MachineEntry, error) {
	var out *model.MachineEntry
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.machine(tx, scope, id, true); err != nil {
			return err
		}
		var err error
		out, err = updateEntry(tx, fx, machineLedger, id, entryID, apply)
		return err
	})
	return out, err
}

func (s *gormStore) DeleteMachineEntry(ctx context.Context, scope rbac.Scope, id, entryID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.machine(tx, scope, id, true); err != nil {
			return err
		}
		return deleteEntry(tx, fx, machineLedger, id, entryID)
	})
}

func (s *gormStore) ListMachinePayments(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.MachinePayment, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.machine(db, scope, id, false); err != nil {
		return nil, err
	}
	return listPayments(db, machineLedger, id, r)
}

func (s *gormStore) CreateMachinePayment(ctx context.Context, scope rbac.Scope, id uint, in PaymentInput) (*model.MachinePayment, error) {
	var out *model.MachinePayment
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		m, err := s.machine(tx, scope, id, true)
		if err != nil {
			return err
		}
		out, err = createPayment(tx, fx, machineLedger, party{ID: m.ID, ProjectID: m.ProjectID}, in)
		return err
	})
	return out, err
}

func (s *gormStore) UpdateMachinePayment(ctx context.Context, scope rbac.Scope, id, paymentID uint, apply func(*PaymentInput) error) (*model.MachinePayment, error) {
	var out *model.MachinePayment
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		m, err := s.machine(tx, scope, id, true)
		if err != nil {
			return err
		}
		out, err = updatePayment(tx, fx, machineLedger, party{ID: m.ID, ProjectID: m.ProjectID}, paymentID, apply)
		return err
	})
	return out, err
}

func (s *gormStore) DeleteMachinePayment(ctx context.Context, scope rbac.Scope, id, paymentID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		m, err := s.machine(tx, scope, id, true)
		if err != nil {
			return err
		}
		return deletePayment(tx, fx, machineLedger, party{ID: m.ID, ProjectID: m.ProjectID}, paymentID)
	})
}

func (s *gormStore) ListMachineAllocations(ctx context.Context, scope rbac.Scope, id uint) ([]model.MachinePaymentAllocation, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.machine(db, scope, id, false); err != nil {
		return nil, err
	}
	return listAllocations(db, machineLedger, id)
}

func (s *gormStore) CreateMachineAllocation(ctx context.Context, scope rbac.Scope, id uint, in AllocationInput) (*model.MachinePaymentAllocation, error) {
	var out *model.MachinePaymentAllocation
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.machine(tx, scope, id, true); err != nil {
			return err
		}
		var err error
		out, err = createAllocation(tx, fx, machineLedger, id, in)
		return err
	})
	return out, err
}

func (s *gormStore) DeleteMachineAllocation(ctx context.Context, scope rbac.Scope, id, allocationID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.machine(tx, scope, id, true); err != nil {
			return err
		}
		return deleteAllocation(tx, fx, machineLedger, id, allocationID)
	})
}

func (s *gormStore) MachineLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*PartyLedger, error) {
	db := s.db.WithContext(ctx)
	m, err := s.machine(db, scope, id, false)
	if err != nil {
		return nil, err
	}
	book, err := buildBook(db, machineLedger, id, r)
	if err != nil {
		return nil, err
	}
	return &PartyLedger{PartyID: m.ID, Name: m.Name, ProjectID: m.ProjectID, Book: book}, nil
}
