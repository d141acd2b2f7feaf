package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
)

// BankStore manages bank accounts and their transactions.
type BankStore interface {
	ListBankAccounts(ctx context.Context, scope rbac.Scope, f Filter) ([]model.BankAccount, error)
	GetBankAccount(ctx context.Context, scope rbac.Scope, id uint) (*model.BankAccount, error)
	CreateBankAccount(ctx context.Context, scope rbac.Scope, in BankAccountInput) (*model.BankAccount, error)
	UpdateBankAccount(ctx context.Context, scope rbac.Scope, id uint, apply func(*BankAccountInput) error) (*model.BankAccount, error)
	DeleteBankAccount(ctx context.Context, scope rbac.Scope, id uint) error

	ListBankTransactions(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.BankTransaction, error)
	CreateBankTransaction(ctx context.Context, scope rbac.Scope, id uint, in BankTransactionInput) (*model.BankTransaction, error)
	DeleteBankTransaction(ctx context.Context, scope rbac.Scope, id, txID uint) error
}

// BankAccountInput creates or replaces a bank account's editable fields.
type BankAccountInput struct {
	AccountName    string          `json:"accountName" binding:"required"`
	BankName       string          `json:"bankName"`
	AccountNumber  string          `json:"accountNumber"`
	ProjectID      *uint           `json:"projectId"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	IsActive       *bool           `json:"isActive"`
}

// BankTransactionInput records money moving into or out of an account.
type BankTransactionInput struct {
	Date        model.Date                `json:"date"`
	Type        model.BankTransactionType `json:"type" binding:"required,oneof=credit debit"`
	Amount      decimal.Decimal           `json:"amount"`
	Description string                    `json:"description"`
	Reference   string                    `json:"reference"`
}

func (s *gormStore) bankAccount(tx *gorm.DB, scope rbac.Scope, id uint, lock bool) (*model.BankAccount, error) {
	var a model.BankAccount
	if err := first(tx, &a, id, "bank account", lock); err != nil {
		return nil, err
	}
	if !scope.AllowsOptional(a.ProjectID) {
		return nil, apperr.AccessDenied("bank account")
	}
	return &a, nil
}

func (s *gormStore) ListBankAccounts(ctx context.Context, scope rbac.Scope, f Filter) ([]model.BankAccount, error) {
	q := scoped(s.db.WithContext(ctx), scope, "project_id")
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []model.BankAccount
	if err := q.Order("account_name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetBankAccount(ctx context.Context, scope rbac.Scope, id uint) (*model.BankAccount, error) {
	return s.bankAccount(s.db.WithContext(ctx), scope, id, false)
}

func (s *gormStore) CreateBankAccount(ctx context.Context, scope rbac.Scope, in BankAccountInput) (*model.BankAccount, error) {
	if trimmed(in.AccountName) == "" {
		return nil, apperr.Fields(map[string]string{"accountName": "is required"})
	}
	a := model.BankAccount{
		AccountName: trimmed(in.AccountName), BankName: in.BankName, AccountNumber: in.AccountNumber,
		OpeningBalance: in.OpeningBalance, TotalInflow: decimal.Zero, TotalOutflow: decimal.Zero,
		IsActive: boolOr(in.IsActive, true),
	}
	a.Recompute()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if a.ProjectID, err = requireOptionalProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *gormStore) UpdateBankAccount(ctx context.Context, scope rbac.Scope, id uint, apply func(*BankAccountInput) error) (*model.BankAccount, error) {
	var a *model.BankAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if a, err = s.bankAccount(tx, scope, id, true); err != nil {
			return err
		}
		active := a.IsActive
		in := BankAccountInput{
			AccountName: a.AccountName, BankName: a.BankName, AccountNumber: a.AccountNumber,
			ProjectID: a.ProjectID, OpeningBalance: a.OpeningBalance, IsActive: &active,
		}
		if err := apply(&in); err != nil {
			return err
		}
		if trimmed(in.AccountName) == "" {
			return apperr.Fields(map[string]string{"accountName": "is required"})
		}
		if a.ProjectID, err = requireOptionalProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		a.AccountName, a.BankName, a.AccountNumber = trimmed(in.AccountName), in.BankName, in.AccountNumber
		a.OpeningBalance = in.OpeningBalance
		a.IsActive = boolOr(in.IsActive, a.IsActive)
		a.Recompute()
		return tx.Save(a).Error
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteBankAccount removes an account and its transactions.
func (s *gormStore) DeleteBankAccount(ctx context.Context, scope rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.bankAccount(tx, scope, id, true); err != nil {
			return err
		}
		if err := tx.Where("bank_account_id = ?", id).Delete(&model.BankTransaction{}).Error; err != nil {
			return fmt.Errorf("delete transactions of bank account %d: %w", id, err)
		}
		return tx.Delete(&model.BankAccount{}, id).Error
	})
}

func (s *gormStore) ListBankTransactions(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.BankTransaction, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.bankAccount(db, scope, id, false); err != nil {
		return nil, err
	}
	var out []model.BankTransaction
	if err := dateRange(db.Where("bank_account_id = ?", id), "date", r).Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list bank transactions: %w", err)
	}
	return out, nil
}

func (s *gormStore) CreateBankTransaction(ctx context.Context, scope rbac.Scope, id uint, in BankTransactionInput) (*model.BankTransaction, error) {
	v := violations{}
	v.date("date", in.Date)
	v.positive("amount", in.Amount)
	if in.Type != model.BankCredit && in.Type != model.BankDebit {
		v.add("type", "must be credit or debit")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	t := model.BankTransaction{BankAccountID: id, Date: in.Date, Type: in.Type, Amount: in.Amount, Description: in.Description, Reference: in.Reference}
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		a, err := s.bankAccount(tx, scope, id, true)
		if err != nil {
			return err
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("create bank transaction: %w", err)
		}
		fx.ledger("bank", "create_transaction")
		return recomputeBankAccount(tx, a)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) DeleteBankTransaction(ctx context.Context, scope rbac.Scope, id, txID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		a, err := s.bankAccount(tx, scope, id, true)
		if err != nil {
			return err
		}
		res := tx.Where("bank_account_id = ?", id).Delete(&model.BankTransaction{}, txID)
		if res.Error != nil {
			return fmt.Errorf("delete bank transaction %d: %w", txID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("transaction")
		}
		fx.ledger("bank", "delete_transaction")
		return recomputeBankAccount(tx, a)
	})
}

// recomputeBankAccount derives inflow, outflow and balance from all transactions.
func recomputeBankAccount(tx *gorm.DB, a *model.BankAccount) error {
	var txs []model.BankTransaction
	if err := tx.Where("bank_account_id = ?", a.ID).Find(&txs).Error; err != nil {
		return fmt.Errorf("load transactions of bank account %d: %w", a.ID, err)
	}
	a.TotalInflow, a.TotalOutflow = decimal.Zero, decimal.Zero
	for _, t := range txs {
		if t.Type == model.BankCredit {
			a.TotalInflow = a.TotalInflow.Add(t.Amount)
		} else {
			a.TotalOutflow = a.TotalOutflow.Add(t.Amount)
		}
	}
	a.Recompute()
	return tx.Model(a).Updates(map[string]any{
		"total_inflow":    a.TotalInflow,
		"total_outflow":   a.TotalOutflow,
		"current_balance": a.CurrentBalance,
	}).Error
}
