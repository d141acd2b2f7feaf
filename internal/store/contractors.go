package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/ledger"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
)

// ContractorStore manages contractors and their entry/payment/allocation ledger.
type ContractorStore interface {
	ListContractors(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Contractor, error)
	GetContractor(ctx context.Context, scope rbac.Scope, id uint) (*model.Contractor, error)
	CreateContractor(ctx context.Context, scope rbac.Scope, in ContractorInput) (*model.Contractor, error)
	UpdateContractor(ctx context.Context, scope rbac.Scope, id uint, apply func(*ContractorInput) error) (*model.Contractor, error)
	DeleteContractor(ctx context.Context, scope rbac.Scope, id uint) error

	ListContractorEntries(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.ContractorEntry, error)
	CreateContractorEntry(ctx context.Context, scope rbac.Scope, id uint, in EntryInput) (*model.ContractorEntry, error)
	UpdateContractorEntry(ctx context.Context, scope rbac.Scope, id, entryID uint, apply func(*EntryInput) error) (*model.ContractorEntry, error)
	DeleteContractorEntry(ctx context.Context, scope rbac.Scope, id, entryID uint) error

	ListContractorPayments(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.ContractorPayment, error)
	CreateContractorPayment(ctx context.Context, scope rbac.Scope, id uint, in PaymentInput) (*model.ContractorPayment, error)
	UpdateContractorPayment(ctx context.Context, scope rbac.Scope, id, paymentID uint, apply func(*PaymentInput) error) (*model.ContractorPayment, error)
	DeleteContractorPayment(ctx context.Context, scope rbac.Scope, id, paymentID uint) error

	ListContractorAllocations(ctx context.Context, scope rbac.Scope, id uint) ([]model.ContractorPaymentAllocation, error)
	CreateContractorAllocation(ctx context.Context, scope rbac.Scope, id uint, in AllocationInput) (*model.ContractorPaymentAllocation, error)
	DeleteContractorAllocation(ctx context.Context, scope rbac.Scope, id, allocationID uint) error

	ContractorLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*PartyLedger, error)
}

// ContractorInput creates or replaces a contractor's editable fields.
type ContractorInput struct {
	ProjectID uint   `json:"projectId"`
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	WorkType  string `json:"workType"`
	Notes     string `json:"notes"`
	IsActive  *bool  `json:"isActive"`
}

func (in *ContractorInput) validate() error {
	v := violations{}
	v.required("name", in.Name)
	if in.ProjectID == 0 {
		v.add("projectId", "is required")
	}
	return v.err()
}

var contractorLedger = &partyLedger[model.ContractorEntry, model.ContractorPayment, model.ContractorPaymentAllocation]{
	name: "contractor",
	fk:   "contractor_id",

	entryOf: func(e *model.ContractorEntry) ledger.Entry {
		return ledger.Entry{ID: e.ID, Date: e.Date, Amount: e.Amount, Description: e.Description}
	},
	newEntry: func(pt party, in EntryInput) *model.ContractorEntry {
		return &model.ContractorEntry{ContractorID: pt.ID, ProjectID: pt.ProjectID, Date: in.Date, Amount: in.Amount, Description: in.Description}
	},
	setEntry: func(e *model.ContractorEntry, in EntryInput) {
		e.Date, e.Amount, e.Description = in.Date, in.Amount, in.Description
	},
	entryIn: func(e *model.ContractorEntry) EntryInput {
		return EntryInput{Date: e.Date, Amount: e.Amount, Description: e.Description}
	},

	paymentOf: func(p *model.ContractorPayment) ledger.Payment {
		return ledger.Payment{ID: p.ID, Date: p.Date, Amount: p.Amount, Mode: p.PaymentMode, Remarks: p.Remarks}
	},
	newPayment: func(pt party, in PaymentInput) *model.ContractorPayment {
		return &model.ContractorPayment{ContractorID: pt.ID, ProjectID: pt.ProjectID, Date: in.Date, Amount: in.Amount, PaymentMode: in.PaymentMode, Remarks: in.Remarks}
	},
	setPayment: func(p *model.ContractorPayment, in PaymentInput) {
		p.Date, p.Amount, p.PaymentMode, p.Remarks = in.Date, in.Amount, in.PaymentMode, in.Remarks
	},
	paymentIn: func(p *model.ContractorPayment) PaymentInput {
		return PaymentInput{Date: p.Date, Amount: p.Amount, PaymentMode: p.PaymentMode, Remarks: p.Remarks}
	},

	allocOf: func(a *model.ContractorPaymentAllocation) ledger.Allocation {
		return ledger.Allocation{ID: a.ID, PaymentID: a.PaymentID, EntryID: a.EntryID, Amount: a.Amount}
	},
	newAlloc: func(in AllocationInput) *model.ContractorPaymentAllocation {
		return &model.ContractorPaymentAllocation{PaymentID: in.PaymentID, EntryID: in.EntryID, Amount: in.Amount}
	},
}

func (s *gormStore) contractor(tx *gorm.DB, scope rbac.Scope, id uint, lock bool) (*model.Contractor, error) {
	var c model.Contractor
	if err := first(tx, &c, id, "contractor", lock); err != nil {
		return nil, err
	}
	if !scope.Allows(c.ProjectID) {
		return nil, apperr.AccessDenied("contractor")
	}
	return &c, nil
}

func (s *gormStore) ListContractors(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Contractor, error) {
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
	var out []model.Contractor
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetContractor(ctx context.Context, scope rbac.Scope, id uint) (*model.Contractor, error) {
	return s.contractor(s.db.WithContext(ctx), scope, id, false)
}

func (s *gormStore) CreateContractor(ctx context.Context, scope rbac.Scope, in ContractorInput) (*model.Contractor, error) {
	if in.ProjectID == 0 {
		if own, ok := scope.ProjectID(); ok {
			in.ProjectID = own
		}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := model.Contractor{
		ProjectID: in.ProjectID, Name: trimmed(in.Name), Phone: in.Phone,
		WorkType: in.WorkType, Notes: in.Notes, IsActive: boolOr(in.IsActive, true),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, notFound(err, "contractor")
	}
	return &c, nil
}

func (s *gormStore) UpdateContractor(ctx context.Context, scope rbac.Scope, id uint, apply func(*ContractorInput) error) (*model.Contractor, error) {
	var c *model.Contractor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if c, err = s.contractor(tx, scope, id, true); err != nil {
			return err
		}
		active := c.IsActive
		in := ContractorInput{ProjectID: c.ProjectID, Name: c.Name, Phone: c.Phone, WorkType: c.WorkType, Notes: c.Notes, IsActive: &active}
		if err := apply(&in); err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		if in.ProjectID != c.ProjectID {
			if err := requireProject(tx, scope, in.ProjectID); err != nil {
				return err
			}
			if err := blockIfReferenced(tx, "contractor", id,
				ref{&model.ContractorEntry{}, "contractor_id", "entries"},
				ref{&model.ContractorPayment{}, "contractor_id", "payments"},
			); err != nil {
				return err
			}
		}
		c.ProjectID, c.Name, c.Phone, c.WorkType, c.Notes = in.ProjectID, trimmed(in.Name), in.Phone, in.WorkType, in.Notes
		c.IsActive = boolOr(in.IsActive, c.IsActive)
		return tx.Save(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *gormStore) DeleteContractor(ctx context.Context, scope rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.contractor(tx, scope, id, true); err != nil {
			return err
		}
		if err := blockIfReferenced(tx, "contractor", id,
			ref{&model.ContractorEntry{}, "contractor_id", "entries"},
			ref{&model.ContractorPayment{}, "contractor_id", "payments"},
		); err != nil {
			return err
		}
		return tx.Delete(&model.Contractor{}, id).Error
	})
}

func (s *gormStore) ListContractorEntries(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.ContractorEntry, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.contractor(db, scope, id, false); err != nil {
		return nil, err
	}
	return listEntries(db, contractorLedger, id, r)
}

func (s *gormStore) CreateContractorEntry(ctx context.Context, scope rbac.Scope, id uint, in EntryInput) (*model.ContractorEntry, error) {
	var out *model.ContractorEntry
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		c, err := s.contractor(tx, scope, id, true)
		if err != nil {
			return err
		}
		out, err = createEntry(tx, fx, contractorLedger, party{ID: c.ID, ProjectID: c.ProjectID}, in)
		return err
	})
	return out, err
}

func (s *gormStore) UpdateContractorEntry(ctx context.Context, scope rbac.Scope, id, entryID uint, apply func(*EntryInput) error) (*model.ContractorEntry, error) {
	var out *model.ContractorEntry
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.contractor(tx, scope, id, true); err != nil {
			return err
		}
		var err error
		out, err = updateEntry(tx, fx, contractorLedger, id, entryID, apply)
		return err
	})
	return out, err
}

func (s *gormStore) DeleteContractorEntry(ctx context.Context, scope rbac.Scope, id, entryID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.contractor(tx, scope, id, true); err != nil {
			return err
		}
		return deleteEntry(tx, fx, contractorLedger, id, entryID)
	})
}

func (s *gormStore) ListContractorPayments(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.ContractorPayment, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.contractor(db, scope, id, false); err != nil {
		return nil, err
	}
	return listPayments(db, contractorLedger, id, r)
}

func (s *gormStore) CreateContractorPayment(ctx context.Context, scope rbac.Scope, id uint, in PaymentInput) (*model.ContractorPayment, error) {
	var out *model.ContractorPayment
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		c, err := s.contractor(tx, scope, id, true)
		if err != nil {
			return err
		}
		out, err = createPayment(tx, fx, contractorLedger, party{ID: c.ID, ProjectID: c.ProjectID}, in)
		return err
	})
	return out, err
}

func (s *gormStore) UpdateContractorPayment(ctx context.Context, scope rbac.Scope, id, paymentID uint, apply func(*PaymentInput) error) (*model.ContractorPayment, error) {
	var out *model.ContractorPayment
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		c, err := s.contractor(tx, scope, id, true)
		if err != nil {
			return err
		}
		out, err = updatePayment(tx, fx, contractorLedger, party{ID: c.ID, ProjectID: c.ProjectID}, paymentID, apply)
		return err
	})
	return out, err
}

func (s *gormStore) DeleteContractorPayment(ctx context.Context, scope rbac.Scope, id, paymentID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		c, err := s.contractor(tx, scope, id, true)
		if err != nil {
			return err
		}
		return deletePayment(tx, fx, contractorLedger, party{ID: c.ID, ProjectID: c.ProjectID}, paymentID)
	})
}

func (s *gormStore) ListContractorAllocations(ctx context.Context, scope rbac.Scope, id uint) ([]model.ContractorPaymentAllocation, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.contractor(db, scope, id, false); err != nil {
		return nil, err
	}
	return listAllocations(db, contractorLedger, id)
}

func (s *gormStore) CreateContractorAllocation(ctx context.Context, scope rbac.Scope, id uint, in AllocationInput) (*model.ContractorPaymentAllocation, error) {
	var out *model.ContractorPaymentAllocation
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.contractor(tx, scope, id, true); err != nil {
			return err
		}
		var err error
		out, err = createAllocation(tx, fx, contractorLedger, id, in)
		return err
	})
	return out, err
}

func (s *gormStore) DeleteContractorAllocation(ctx context.Context, scope rbac.Scope, id, allocationID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.contractor(tx, scope, id, true); err != nil {
			return err
		}
		return deleteAllocation(tx, fx, contractorLedger, id, allocationID)
	})
}

func (s *gormStore) ContractorLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*PartyLedger, error) {
	db := s.db.WithContext(ctx)
	c, err := s.contractor(db, scope, id, false)
	if err != nil {
		return nil, err
	}
	book, err := buildBook(db, contractorLedger, id, r)
	if err != nil {
		return nil, err
	}
	return &PartyLedger{PartyID: c.ID, Name: c.Name, ProjectID: c.ProjectID, Book: book}, nil
}
