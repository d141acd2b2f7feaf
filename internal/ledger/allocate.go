package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
)

// Sum adds the amounts of the given allocations.
func Sum(allocations []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// CheckAllocation validates allocating amount of payment p to entry e, given the
// allocations already recorded against either of them.
func CheckAllocation(e Entry, p Payment, existing []Allocation, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("allocation amount must be positive")
	}

	onEntry, onPayment := decimal.Zero, decimal.Zero
	for _, a := range existing {
		if a.EntryID == e.ID {
			onEntry = onEntry.Add(a.Amount)
		}
		if a.PaymentID == p.ID {
			onPayment = onPayment.Add(a.Amount)
		}
	}

	if left := e.Amount.Sub(onEntry); amount.GreaterThan(left) {
		return apperr.Validation("allocation of %s exceeds the entry's unallocated amount %s", amount.StringFixed(2), left.StringFixed(2))
	}
	if left := p.Amount.Sub(onPayment); amount.GreaterThan(left) {
		return apperr.Validation("allocation of %s exceeds the payment's unallocated amount %s", amount.StringFixed(2), left.StringFixed(2))
	}
	return nil
}

// CheckAmountChange rejects shrinking an entry or payment below what is allocated to it.
func CheckAmountChange(newAmount, allocated decimal.Decimal) error {
	if !newAmount.IsPositive() {
		return apperr.Validation("amount must be positive")
	}
	if newAmount.LessThan(allocated) {
		return apperr.Validation("amount %s is below the allocated %s", newAmount.StringFixed(2), allocated.StringFixed(2))
	}
	return nil
}

// SettleOldestFirst derives allocations for parties that do not record them, such
// as vendors: payments are applied to entries in date order, oldest first, and
// any excess stays unallocated.
func SettleOldestFirst(entries []Entry, payments []Payment) []Allocation {
	es := append([]Entry(nil), entries...)
	ps := append([]Payment(nil), payments...)
	sort.SliceStable(es, func(i, j int) bool { return earlier(es[i].Date, es[i].ID, es[j].Date, es[j].ID) })
	sort.SliceStable(ps, func(i, j int) bool { return earlier(ps[i].Date, ps[i].ID, ps[j].Date, ps[j].ID) })

	var out []Allocation
	i, owed := 0, decimal.Zero
	if len(es) > 0 {
		owed = es[0].Amount
	}
	for _, p := range ps {
		left := p.Amount
		for left.IsPositive() && i < len(es) {
			amount := decimal.Min(left, owed)
			if amount.IsPositive() {
				out = append(out, Allocation{PaymentID: p.ID, EntryID: es[i].ID, Amount: amount})
			}
			left = left.Sub(amount)
			owed = owed.Sub(amount)
			if !owed.IsPositive() {
				i++
				if i < len(es) {
					owed = es[i].Amount
				}
			}
		}
	}
	return out
}

func earlier(a model.Date, aID uint, b model.Date, bID uint) bool {
	if !a.Equal(b.Time) {
		return a.Before(b.Time)
	}
	return aID < bID
}
