package store

import (
	"github.com/shopspring/decimal"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
)

// Filter narrows list queries. Unused fields are ignored by each list.
type Filter struct {
	ProjectID  *uint
	Range      parse.Range
	Search     string
	Category   string
	ActiveOnly bool
}

// violations accumulates per-field validation messages.
type violations map[string]string

func (v violations) add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return apperr.Fields(v)
}

func (v violations) positive(field string, d decimal.Decimal) {
	if !d.IsPositive() {
		v.add(field, "must be greater than zero")
	}
	v.cents(field, d)
}

func (v violations) nonNegative(field string, d decimal.Decimal) {
	if d.IsNegative() {
		v.add(field, "must not be negative")
	}
	v.cents(field, d)
}

// cents rejects values the decimal(20,2) columns would round.
func (v violations) cents(field string, d decimal.Decimal) {
	if !d.Equal(d.Truncate(2)) {
		v.add(field, "at most 2 decimal places")
	}
}

func (v violations) required(field, s string) {
	if trimmed(s) == "" {
		v.add(field, "is required")
	}
}

func (v violations) date(field string, d model.Date) {
	if d.IsZero() {
		v.add(field, "is required")
	}
}

func (v violations) mode(field string, m *model.PaymentMode) {
	if *m == "" {
		*m = model.PaymentCash
	}
	if !m.Valid() {
		v.add(field, "must be one of cash, bank, upi, cheque")
	}
}

// EntryInput creates or replaces a contractor or machine entry.
type EntryInput struct {
	Date        model.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    decimal.Decimal `json:"quantity"`
	Description string          `json:"description"`
}

func (in *EntryInput) validate() error {
	v := violations{}
	v.date("date", in.Date)
	v.positive("amount", in.Amount)
	v.nonNegative("quantity", in.Quantity)
	return v.err()
}

// PaymentInput creates or replaces a payment to a contractor, machine or employee.
type PaymentInput struct {
	Date        model.Date        `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	PaymentMode model.PaymentMode `json:"paymentMode"`
	Remarks     string            `json:"remarks"`
}

func (in *PaymentInput) validate() error {
	v := violations{}
	v.date("date", in.Date)
	v.positive("amount", in.Amount)
	v.mode("paymentMode", &in.PaymentMode)
	return v.err()
}

// AllocationInput settles amount of a payment against an entry.
type AllocationInput struct {
	PaymentID uint            `json:"paymentId" binding:"required"`
	EntryID   uint            `json:"entryId" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

func (in *AllocationInput) validate() error {
	v := violations{}
	if in.PaymentID == 0 {
		v.add("paymentId", "is required")
	}
	if in.EntryID == 0 {
		v.add("entryId", "is required")
	}
	v.positive("amount", in.Amount)
	return v.err()
}
