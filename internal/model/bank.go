package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount tracks a company bank account and its running totals.
type BankAccount struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	AccountName    string          `gorm:"size:200;not null" json:"accountName"`
	BankName       string          `gorm:"size:200" json:"bankName"`
	AccountNumber  string          `gorm:"size:64" json:"accountNumber"`
	ProjectID      *uint           `gorm:"index" json:"projectId"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"openingBalance"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"currentBalance"`
	TotalInflow    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"totalInflow"`
	TotalOutflow   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"totalOutflow"`
	IsActive       bool            `gorm:"not null" json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// BankTransactionType is the direction of a bank transaction.
type BankTransactionType string

const (
	BankCredit BankTransactionType = "credit"
	BankDebit  BankTransactionType = "debit"
)

// BankTransaction moves money into or out of a bank account.
type BankTransaction struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	BankAccountID uint                `gorm:"not null;index:,composite:account_date,priority:1" json:"bankAccountId"`
	Date          Date                `gorm:"not null;index:,composite:account_date,priority:2" json:"date"`
	Type          BankTransactionType `gorm:"size:10;not null" json:"type"`
	Amount        decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description   string              `gorm:"size:500" json:"description"`
	Reference     string              `gorm:"size:100" json:"reference"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Recompute derives the current balance from opening balance and totals.
func (a *BankAccount) Recompute() {
	a.CurrentBalance = a.OpeningBalance.Add(a.TotalInflow).Sub(a.TotalOutflow)
}
