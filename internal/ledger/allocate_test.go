package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
)

func TestCheckAllocation(t *testing.T) {
	entry := Entry{ID: 1, Date: model.MustDate("2024-01-01"), Amount: d("1000")}
	payment := Payment{ID: 5, Date: model.MustDate("2024-01-02"), Amount: d("600")}

	testCases := []struct {
		name     string
		existing []Allocation
		amount   string
		wantErr  bool
	}{
		{name: "Whole payment", amount: "600"},
		{name: "Zero amount", amount: "0", wantErr: true},
		{name: "Negative amount", amount: "-1", wantErr: true},
		{name: "More than payment", amount: "600.01", wantErr: true},
		{
			name:     "Entry nearly settled by another payment",
			existing: []Allocation{{PaymentID: 9, EntryID: 1, Amount: d("900")}},
			amount:   "200",
			wantErr:  true,
		},
		{
			name:     "Payment partly used elsewhere",
			existing: []Allocation{{PaymentID: 5, EntryID: 2, Amount: d("500")}},
			amount:   "100",
		},
		{
			name:     "Payment used up elsewhere",
			existing: []Allocation{{PaymentID: 5, EntryID: 2, Amount: d("550")}},
			amount:   "100",
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckAllocation(entry, payment, tc.existing, d(tc.amount))
			if tc.wantErr {
				assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckAmountChange(t *testing.T) {
	assert.NoError(t, CheckAmountChange(d("600"), d("600")))
	assert.True(t, apperr.Is(CheckAmountChange(d("599.99"), d("600")), apperr.KindValidation))
	assert.True(t, apperr.Is(CheckAmountChange(d("0"), d("0")), apperr.KindValidation))
}

func TestSum(t *testing.T) {
	assert.True(t, Sum(nil).IsZero())
	assert.True(t, Sum([]Allocation{{Amount: d("1.10")}, {Amount: d("2.25")}}).Equal(d("3.35")))
}

func TestSettleOldestFirst(t *testing.T) {
	entries := []Entry{
		{ID: 2, Date: model.MustDate("2024-03-10"), Amount: d("300")},
		{ID: 1, Date: model.MustDate("2024-03-01"), Amount: d("500")},
	}
	payments := []Payment{
		{ID: 7, Date: model.MustDate("2024-03-12"), Amount: d("600")},
		{ID: 8, Date: model.MustDate("2024-03-20"), Amount: d("400")},
	}

	want := []Allocation{
		{PaymentID: 7, EntryID: 1, Amount: d("500")},
		{PaymentID: 7, EntryID: 2, Amount: d("100")},
		{PaymentID: 8, EntryID: 2, Amount: d("200")},
	}
	allocations := SettleOldestFirst(entries, payments)
	require.Len(t, allocations, len(want))
	for i, w := range want {
		assert.Equal(t, w.PaymentID, allocations[i].PaymentID)
		assert.Equal(t, w.EntryID, allocations[i].EntryID)
		assert.True(t, w.Amount.Equal(allocations[i].Amount), allocations[i].Amount.String())
	}

	book := Build(entries, payments, allocations)
	assert.True(t, book.Totals.Outstanding.IsZero())
	assert.Equal(t, 0, book.Totals.UnsettledEntries)
	assert.True(t, book.Totals.UnallocatedPaid.Equal(d("200")))
	assert.True(t, book.Totals.NetBalance.Equal(d("-200")))

	assert.Empty(t, SettleOldestFirst(entries, nil))
	assert.Empty(t, SettleOldestFirst(nil, payments))
}
