package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
)

// OutflowKind names the source of a project outflow.
type OutflowKind string

const (
	OutflowExpense           OutflowKind = "expense"
	OutflowContractorPayment OutflowKind = "contractor_payment"
	OutflowMachinePayment    OutflowKind = "machine_payment"
	OutflowVendorPayment     OutflowKind = "vendor_payment"
	OutflowEmployeePayment   OutflowKind = "employee_payment"
)

// Category is the reporting category of non-expense outflows.
func (k OutflowKind) Category() string {
	switch k {
	case OutflowContractorPayment:
		return "Contractor payments"
	case OutflowMachinePayment:
		return "Machine payments"
	case OutflowVendorPayment:
		return "Vendor payments"
	case OutflowEmployeePayment:
		return "Salaries and wages"
	}
	return "Other"
}

// Outflow is money leaving a project.
type Outflow struct {
	Kind        OutflowKind       `json:"kind"`
	RefID       uint              `json:"refId"`
	Date        model.Date        `json:"date"`
	Category    string            `json:"category"`
	PaidTo      string            `json:"paidTo"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Mode        model.PaymentMode `json:"paymentMode"`
}

// Adjustment is a manual correction to a project's balance.
type Adjustment struct {
	ID     uint            `json:"id"`
	Date   model.Date      `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// ProjectLine is one chronological row of a project ledger.
type ProjectLine struct {
	Date        model.Date      `json:"date"`
	Kind        string          `json:"kind"`
	RefID       uint            `json:"refId"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
}

// ProjectBook is the computed ledger of a project.
type ProjectBook struct {
	AllocatedBudget  decimal.Decimal            `json:"allocatedBudget"`
	TotalSpent       decimal.Decimal            `json:"totalSpent"`
	TotalAdjustments decimal.Decimal            `json:"totalAdjustments"`
	Balance          decimal.Decimal            `json:"balance"`
	ByKind           map[string]decimal.Decimal `json:"byKind"`
	ByCategory       map[string]decimal.Decimal `json:"byCategory"`
	OpeningBalance   decimal.Decimal            `json:"openingBalance"`
	Lines            []ProjectLine              `json:"lines"`
}

// SpentOf sums the outflows.
func SpentOf(outflows []Outflow) decimal.Decimal {
	total := decimal.Zero
	for _, o := range outflows {
		total = total.Add(o.Amount)
	}
	return total
}

// BuildProject computes the running balance of a project starting from its allocated
// budget. Outflows lower the balance and adjustments move it by their signed amount.
func BuildProject(budget decimal.Decimal, outflows []Outflow, adjustments []Adjustment) ProjectBook {
	book := ProjectBook{
		AllocatedBudget:  budget,
		TotalSpent:       decimal.Zero,
		TotalAdjustments: decimal.Zero,
		ByKind:           make(map[string]decimal.Decimal),
		ByCategory:       make(map[string]decimal.Decimal),
		OpeningBalance:   budget,
		Lines:            make([]ProjectLine, 0, len(outflows)+len(adjustments)),
	}

	for _, o := range outflows {
		category := o.Category
		if o.Kind != OutflowExpense || category == "" {
			category = o.Kind.Category()
		}
		book.TotalSpent = book.TotalSpent.Add(o.Amount)
		book.ByKind[string(o.Kind)] = book.ByKind[string(o.Kind)].Add(o.Amount)
		book.ByCategory[category] = book.ByCategory[category].Add(o.Amount)
		book.Lines = append(book.Lines, ProjectLine{
			Date: o.Date, Kind: string(o.Kind), RefID: o.RefID, Category: category,
			Description: o.Description, Amount: o.Amount.Neg(),
		})
	}
	for _, a := range adjustments {
		book.TotalAdjustments = book.TotalAdjustments.Add(a.Amount)
		book.Lines = append(book.Lines, ProjectLine{
			Date: a.Date, Kind: "adjustment", RefID: a.ID, Category: "Adjustment",
			Description: a.Reason, Amount: a.Amount,
		})
	}

	sort.SliceStable(book.Lines, func(i, j int) bool {
		a, b := book.Lines[i], book.Lines[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.RefID < b.RefID
	})

	running := budget
	for i := range book.Lines {
		running = running.Add(book.Lines[i].Amount)
		book.Lines[i].Balance = running
	}
	book.Balance = running
	return book
}

// Window restricts the lines to r. Totals keep covering the whole project.
func (b ProjectBook) Window(r parse.Range) ProjectBook {
	if r.IsOpen() {
		return b
	}
	out := b
	out.Lines = make([]ProjectLine, 0, len(b.Lines))
	for _, l := range b.Lines {
		if !r.From.IsZero() && l.Date.Before(r.From) {
			out.OpeningBalance = l.Balance
			continue
		}
		if r.Contains(l.Date.Time) {
			out.Lines = append(out.Lines, l)
		}
	}
	return out
}
