package store

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/ledger"
	"sitebooks-backend/internal/parse"
)

// party identifies the contractor or machine that owns a ledger.
type party struct {
	ID        uint
	ProjectID uint
}

// partyLedger maps one family of entry (E), payment (P) and allocation (A) models
// onto the ledger types. Contractors and machines share every operation through it.
type partyLedger[E, P, A any] struct {
	name string
	fk   string

	entryOf  func(*E) ledger.Entry
	newEntry func(party, EntryInput) *E
	setEntry func(*E, EntryInput)
	entryIn  func(*E) EntryInput

	paymentOf  func(*P) ledger.Payment
	newPayment func(party, PaymentInput) *P
	setPayment func(*P, PaymentInput)
	paymentIn  func(*P) PaymentInput

	allocOf  func(*A) ledger.Allocation
	newAlloc func(AllocationInput) *A
}

// PartyLedger is the ledger report of one contractor or machine.
type PartyLedger struct {
	PartyID   uint   `json:"partyId"`
	Name      string `json:"name"`
	ProjectID uint   `json:"projectId"`
	ledger.Book
}

func dateRange(q *gorm.DB, column string, r parse.Range) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where(column+" <= ?", r.To)
	}
	return q
}

func listEntries[E, P, A any](tx *gorm.DB, l *partyLedger[E, P, A], partyID uint, r parse.Range) ([]E, error) {
	var out []E
	q := dateRange(tx.Where(l.fk+" = ?", partyID), "date", r)
	if err := q.Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s entries: %w", l.name, err)
	}
	return out, nil
}

func listPayments[E, P, A any](tx *gorm.DB, l *partyLedger[E, P, A], partyID uint, r parse.Range) ([]P, error) {
	var out []P
	q := dateRange(tx.Where(l.fk+" = ?", partyID), "date", r)
	if err := q.Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s payments: %w", l.name, err)
	}
	return out, nil
}

func listAllocations[E, P, A any](tx *gorm.DB, l *partyLedger[E, P, A], partyID uint) ([]A, error) {
	var out []A
	payments := tx.Model(new(P)).Select("id").Where(l.fk+" = ?", partyID)
	if err := tx.Where("payment_id IN (?)", payments).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s allocations: %w", l.name, err)
	}
	return out, nil
}

func findEntry[E, P, A any](tx *gorm.DB, l *partyLedger[E, P, A], partyID, entryID uint) (*E, error) {
	e := new(E)
	if err := tx.Where(l.fk+" = ?", partyID).First(e, entryID).Error; err != nil {
		return nil, notFound(err, "entry")
	}
	return e, nil
}

func findPayment[E, P, A any](tx *gorm.DB, l *partyLedger[E, P, A], partyID, paymentID uint) (*P, error) {
	p := new(P)
	if err := tx.Where(l.fk+" = ?", partyID).First(p, paymentID).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return p, nil
}

// allocatedTo sums the allocations whose column equals id.
func allocatedTo[E, P, A any](tx *gorm.DB, l *partyLedger[E, P, A], column string, id uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := tx.Model(new(A)).Where(column+" = ?", id).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum %s allocations: %w", l.name, err)
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

func createEntry[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], pt party, in EntryInput) (*E, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e := l.newEntry(pt, in)
	if err := tx.Create(e).Error; err != nil {
		return nil, fmt.Errorf("create %s entry: %w", l.name, err)
	}
	fx.ledger(l.name, "create_entry")
	return e, nil
}

func updateEntry[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], partyID, entryID uint, apply func(*EntryInput) error) (*E, error) {
	e, err := findEntry(tx, l, partyID, entryID)
	if err != nil {
		return nil, err
	}
	in := l.entryIn(e)
	if err := apply(&in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	allocated, err := allocatedTo(tx, l, "entry_id", entryID)
	if err != nil {
		return nil, err
	}
	if err := ledger.CheckAmountChange(in.Amount, allocated); err != nil {
		return nil, err
	}
	l.setEntry(e, in)
	if err := tx.Save(e).Error; err != nil {
		return nil, fmt.Errorf("update %s entry %d: %w", l.name, entryID, err)
	}
	fx.ledger(l.name, "update_entry")
	return e, nil
}

// deleteEntry removes an entry together with its allocations.
func deleteEntry[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], partyID, entryID uint) error {
	e, err := findEntry(tx, l, partyID, entryID)
	if err != nil {
		return err
	}
	if err := tx.Where("entry_id = ?", entryID).Delete(new(A)).Error; err != nil {
		return fmt.Errorf("delete allocations of %s entry %d: %w", l.name, entryID, err)
	}
	if err := tx.Delete(e).Error; err != nil {
		return fmt.Errorf("delete %s entry %d: %w", l.name, entryID, err)
	}
	fx.ledger(l.name, "delete_entry")
	return nil
}

func createPayment[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], pt party, in PaymentInput) (*P, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := l.newPayment(pt, in)
	if err := tx.Create(p).Error; err != nil {
		return nil, fmt.Errorf("create %s payment: %w", l.name, err)
	}
	if err := touchProject(tx, fx, pt.ProjectID); err != nil {
		return nil, err
	}
	fx.ledger(l.name, "create_payment")
	return p, nil
}

func updatePayment[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], pt party, paymentID uint, apply func(*PaymentInput) error) (*P, error) {
	p, err := findPayment(tx, l, pt.ID, paymentID)
	if err != nil {
		return nil, err
	}
	in := l.paymentIn(p)
	if err := apply(&in); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	allocated, err := allocatedTo(tx, l, "payment_id", paymentID)
	if err != nil {
		return nil, err
	}
	if err := ledger.CheckAmountChange(in.Amount, allocated); err != nil {
		return nil, err
	}
	l.setPayment(p, in)
	if err := tx.Save(p).Error; err != nil {
		return nil, fmt.Errorf("update %s payment %d: %w", l.name, paymentID, err)
	}
	if err := touchProject(tx, fx, pt.ProjectID); err != nil {
		return nil, err
	}
	fx.ledger(l.name, "update_payment")
	return p, nil
}

// deletePayment removes a payment together with its allocations.
func deletePayment[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], pt party, paymentID uint) error {
	p, err := findPayment(tx, l, pt.ID, paymentID)
	if err != nil {
		return err
	}
	if err := tx.Where("payment_id = ?", paymentID).Delete(new(A)).Error; err != nil {
		return fmt.Errorf("delete allocations of %s payment %d: %w", l.name, paymentID, err)
	}
	if err := tx.Delete(p).Error; err != nil {
		return fmt.Errorf("delete %s payment %d: %w", l.name, paymentID, err)
	}
	if err := touchProject(tx, fx, pt.ProjectID); err != nil {
		return err
	}
	fx.ledger(l.name, "delete_payment")
	return nil
}

func createAllocation[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], partyID uint, in AllocationInput) (*A, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e, err := findEntry(tx, l, partyID, in.EntryID)
	if err != nil {
		return nil, err
	}
	p, err := findPayment(tx, l, partyID, in.PaymentID)
	if err != nil {
		return nil, err
	}

	var existing []A
	if err := tx.Where("entry_id = ? OR payment_id = ?", in.EntryID, in.PaymentID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("load %s allocations: %w", l.name, err)
	}
	current := make([]ledger.Allocation, 0, len(existing))
	for i := range existing {
		current = append(current, l.allocOf(&existing[i]))
	}
	if err := ledger.CheckAllocation(l.entryOf(e), l.paymentOf(p), current, in.Amount); err != nil {
		return nil, err
	}

	a := l.newAlloc(in)
	if err := tx.Create(a).Error; err != nil {
		return nil, fmt.Errorf("create %s allocation: %w", l.name, err)
	}
	fx.ledger(l.name, "create_allocation")
	return a, nil
}

func deleteAllocation[E, P, A any](tx *gorm.DB, fx *effects, l *partyLedger[E, P, A], partyID, allocationID uint) error {
	payments := tx.Model(new(P)).Select("id").Where(l.fk+" = ?", partyID)
	res := tx.Where("payment_id IN (?)", payments).Delete(new(A), allocationID)
	if res.Error != nil {
		return fmt.Errorf("delete %s allocation %d: %w", l.name, allocationID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("allocation")
	}
	fx.ledger(l.name, "delete_allocation")
	return nil
}

// buildBook loads every row of the party's ledger. Lines are windowed to r while
// totals keep covering all rows.
func buildBook[E, P, A any](tx *gorm.DB, l *partyLedger[E, P, A], partyID uint, r parse.Range) (ledger.Book, error) {
	entries, err := listEntries(tx, l, partyID, parse.Range{})
	if err != nil {
		return ledger.Book{}, err
	}
	payments, err := listPayments(tx, l, partyID, parse.Range{})
	if err != nil {
		return ledger.Book{}, err
	}
	allocations, err := listAllocations(tx, l, partyID)
	if err != nil {
		return ledger.Book{}, err
	}

	es := make([]ledger.Entry, 0, len(entries))
	for i := range entries {
		es = append(es, l.entryOf(&entries[i]))
	}
	ps := make([]ledger.Payment, 0, len(payments))
	for i := range payments {
		ps = append(ps, l.paymentOf(&payments[i]))
	}
	as := make([]ledger.Allocation, 0, len(allocations))
	for i := range allocations {
		as = append(as, l.allocOf(&allocations[i]))
	}
	return ledger.Build(es, ps, as).Window(r), nil
}
