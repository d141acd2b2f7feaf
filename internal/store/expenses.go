package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
)

// ExpenseStore manages project expenses.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Expense, error)
	GetExpense(ctx context.Context, scope rbac.Scope, id uint) (*model.Expense, error)
	CreateExpense(ctx context.Context, scope rbac.Scope, in ExpenseInput) (*model.Expense, error)
	UpdateExpense(ctx context.Context, scope rbac.Scope, id uint, apply func(*ExpenseInput) error) (*model.Expense, error)
	DeleteExpense(ctx context.Context, scope rbac.Scope, id uint) error
}

// ExpenseInput creates or replaces an expense.
type ExpenseInput struct {
	ProjectID   uint              `json:"projectId"`
	Date        model.Date        `json:"date"`
	Category    string            `json:"category" binding:"required"`
	Amount      decimal.Decimal   `json:"amount"`
	PaymentMode model.PaymentMode `json:"paymentMode"`
	PaidTo      string            `json:"paidTo"`
	Description string            `json:"description"`
	CreatedBy   uint              `json:"-"`
}

func (in *ExpenseInput) validate() error {
	v := violations{}
	if in.ProjectID == 0 {
		v.add("projectId", "is required")
	}
	v.date("date", in.Date)
	v.required("category", in.Category)
	v.positive("amount", in.Amount)
	v.mode("paymentMode", &in.PaymentMode)
	return v.err()
}

func (in ExpenseInput) apply(e *model.Expense) {
	e.ProjectID, e.Date, e.Category, e.Amount = in.ProjectID, in.Date, trimmed(in.Category), in.Amount
	e.PaymentMode, e.PaidTo, e.Description = in.PaymentMode, in.PaidTo, in.Description
}

func (s *gormStore) expense(tx *gorm.DB, scope rbac.Scope, id uint, lock bool) (*model.Expense, error) {
	var e model.Expense
	if err := first(tx, &e, id, "expense", lock); err != nil {
		return nil, err
	}
	if !scope.Allows(e.ProjectID) {
		return nil, apperr.AccessDenied("expense")
	}
	return &e, nil
}

func (s *gormStore) ListExpenses(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Expense, error) {
	q := scoped(s.db.WithContext(ctx), scope, "project_id")
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", toLower(trimmed(f.Category)))
	}
	if f.Search != "" {
		q = q.Where("LOWER(description) LIKE ? OR LOWER(paid_to) LIKE ?", likePattern(f.Search), likePattern(f.Search))
	}
	var out []model.Expense
	if err := dateRange(q, "date", f.Range).Order("date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetExpense(ctx context.Context, scope rbac.Scope, id uint) (*model.Expense, error) {
	return s.expense(s.db.WithContext(ctx), scope, id, false)
}

func (s *gormStore) CreateExpense(ctx context.Context, scope rbac.Scope, in ExpenseInput) (*model.Expense, error) {
	if in.ProjectID == 0 {
		if own, ok := scope.ProjectID(); ok {
			in.ProjectID = own
		}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	e := model.Expense{CreatedBy: in.CreatedBy}
	in.apply(&e)
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if err := requireProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(&e).Error; err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		fx.ledger("expense", "create")
		return touchProject(tx, fx, e.ProjectID)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) UpdateExpense(ctx context.Context, scope rbac.Scope, id uint, apply func(*ExpenseInput) error) (*model.Expense, error) {
	var e *model.Expense
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		var err error
		if e, err = s.expense(tx, scope, id, true); err != nil {
			return err
		}
		in := ExpenseInput{
			ProjectID: e.ProjectID, Date: e.Date, Category: e.Category, Amount: e.Amount,
			PaymentMode: e.PaymentMode, PaidTo: e.PaidTo, Description: e.Description,
		}
		if err := apply(&in); err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		oldProject := e.ProjectID
		if in.ProjectID != oldProject {
			if err := requireProject(tx, scope, in.ProjectID); err != nil {
				return err
			}
		}
		in.apply(e)
		if err := tx.Save(e).Error; err != nil {
			return fmt.Errorf("update expense %d: %w", id, err)
		}
		fx.ledger("expense", "update")
		return touchProjects(tx, fx, &oldProject, &e.ProjectID)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *gormStore) DeleteExpense(ctx context.Context, scope rbac.Scope, id uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		e, err := s.expense(tx, scope, id, true)
		if err != nil {
			return err
		}
		if err := tx.Delete(e).Error; err != nil {
			return fmt.Errorf("delete expense %d: %w", id, err)
		}
		fx.ledger("expense", "delete")
		return touchProject(tx, fx, e.ProjectID)
	})
}
