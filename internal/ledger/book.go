package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
)

// Entry is an obligation owed to a party.
type Entry struct {
	ID          uint            `json:"id"`
	Date        model.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Payment is cash paid to a party.
type Payment struct {
	ID      uint              `json:"id"`
	Date    model.Date        `json:"date"`
	Amount  decimal.Decimal   `json:"amount"`
	Mode    model.PaymentMode `json:"paymentMode"`
	Remarks string            `json:"remarks"`
}

// Allocation links part of a payment to part of an entry.
type Allocation struct {
	ID        uint            `json:"id"`
	PaymentID uint            `json:"paymentId"`
	EntryID   uint            `json:"entryId"`
	Amount    decimal.Decimal `json:"amount"`
}

// EntryStatus is an entry with its settlement state.
type EntryStatus struct {
	Entry
	Allocated decimal.Decimal `json:"allocated"`
	Remaining decimal.Decimal `json:"remaining"`
	Settled   bool            `json:"settled"`
}

// PaymentStatus is a payment with how much of it is allocated.
type PaymentStatus struct {
	Payment
	Allocated   decimal.Decimal `json:"allocated"`
	Unallocated decimal.Decimal `json:"unallocated"`
}

// LineKind tells entries and payments apart on a ledger line.
type LineKind string

const (
	LineEntry   LineKind = "entry"
	LinePayment LineKind = "payment"
)

// Line is one chronological ledger row.
type Line struct {
	Date        model.Date      `json:"date"`
	Kind        LineKind        `json:"kind"`
	RefID       uint            `json:"refId"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// Totals summarize a party ledger. Outstanding is what entries still await from
// allocations; NetBalance ignores allocations and is the final running balance.
type Totals struct {
	TotalOwed        decimal.Decimal `json:"totalOwed"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	TotalAllocated   decimal.Decimal `json:"totalAllocated"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	NetBalance       decimal.Decimal `json:"netBalance"`
	UnallocatedPaid  decimal.Decimal `json:"unallocatedPaid"`
	UnsettledEntries int             `json:"unsettledEntries"`
}

// Book is the computed ledger of one party.
type Book struct {
	Entries        []EntryStatus   `json:"entries"`
	Payments       []PaymentStatus `json:"payments"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Lines          []Line          `json:"lines"`
	Totals         Totals          `json:"totals"`
}

// Build computes settlement state, running balance and totals. Entries raise the
// balance owed and payments lower it; on the same date entries come first.
func Build(entries []Entry, payments []Payment, allocations []Allocation) Book {
	byEntry := make(map[uint]decimal.Decimal)
	byPayment := make(map[uint]decimal.Decimal)
	totalAllocated := decimal.Zero
	for _, a := range allocations {
		byEntry[a.EntryID] = byEntry[a.EntryID].Add(a.Amount)
		byPayment[a.PaymentID] = byPayment[a.PaymentID].Add(a.Amount)
		totalAllocated = totalAllocated.Add(a.Amount)
	}

	book := Book{
		Entries:  make([]EntryStatus, 0, len(entries)),
		Payments: make([]PaymentStatus, 0, len(payments)),
		Lines:    make([]Line, 0, len(entries)+len(payments)),
	}

	owed := decimal.Zero
	for _, e := range entries {
		allocated := byEntry[e.ID]
		remaining := e.Amount.Sub(allocated)
		book.Entries = append(book.Entries, EntryStatus{
			Entry:     e,
			Allocated: allocated,
			Remaining: remaining,
			Settled:   !remaining.IsPositive(),
		})
		if remaining.IsPositive() {
			book.Totals.UnsettledEntries++
		}
		owed = owed.Add(e.Amount)
		book.Lines = append(book.Lines, Line{
			Date: e.Date, Kind: LineEntry, RefID: e.ID, Description: e.Description,
			Debit: e.Amount, Credit: decimal.Zero,
		})
	}

	paid := decimal.Zero
	for _, p := range payments {
		allocated := byPayment[p.ID]
		book.Payments = append(book.Payments, PaymentStatus{
			Payment:     p,
			Allocated:   allocated,
			Unallocated: p.Amount.Sub(allocated),
		})
		paid = paid.Add(p.Amount)
		book.Lines = append(book.Lines, Line{
			Date: p.Date, Kind: LinePayment, RefID: p.ID, Description: p.Remarks,
			Debit: decimal.Zero, Credit: p.Amount,
		})
	}

	sortLines(book.Lines)
	running := decimal.Zero
	for i := range book.Lines {
		running = running.Add(book.Lines[i].Debit).Sub(book.Lines[i].Credit)
		book.Lines[i].Balance = running
	}

	book.OpeningBalance = decimal.Zero
	book.Totals.TotalOwed = owed
	book.Totals.TotalPaid = paid
	book.Totals.TotalAllocated = totalAllocated
	book.Totals.Outstanding = owed.Sub(totalAllocated)
	book.Totals.NetBalance = owed.Sub(paid)
	book.Totals.UnallocatedPaid = paid.Sub(totalAllocated)
	return book
}

// Window restricts the lines to r, carrying the balance before r.From as the opening
// balance. Entries, payments and totals keep covering the whole ledger.
func (b Book) Window(r parse.Range) Book {
	if r.IsOpen() {
		return b
	}
	out := b
	out.Lines = make([]Line, 0, len(b.Lines))
	opening := decimal.Zero
	for _, l := range b.Lines {
		if !r.From.IsZero() && l.Date.Before(r.From) {
			opening = l.Balance
			continue
		}
		if r.Contains(l.Date.Time) {
			out.Lines = append(out.Lines, l)
		}
	}
	out.OpeningBalance = opening
	return out
}

func sortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if a.Kind != b.Kind {
			return a.Kind == LineEntry
		}
		return a.RefID < b.RefID
	})
}
