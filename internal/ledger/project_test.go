package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
)

func sampleOutflows() []Outflow {
	return []Outflow{
		{Kind: OutflowExpense, RefID: 1, Date: model.MustDate("2024-01-05"), Category: "Fuel", Amount: d("200"), Mode: model.PaymentCash},
		{Kind: OutflowContractorPayment, RefID: 4, Date: model.MustDate("2024-01-05"), Amount: d("1000"), Mode: model.PaymentCash},
		{Kind: OutflowExpense, RefID: 2, Date: model.MustDate("2024-01-06"), Category: "Fuel", Amount: d("50"), Mode: model.PaymentUPI},
		{Kind: OutflowVendorPayment, RefID: 8, Date: model.MustDate("2024-01-05"), Amount: d("300"), Mode: model.PaymentBank},
		{Kind: OutflowEmployeePayment, RefID: 3, Date: model.MustDate("2024-01-05"), Amount: d("400"), Mode: model.PaymentCash},
	}
}

func TestBuildProject(t *testing.T) {
	adjustments := []Adjustment{{ID: 1, Date: model.MustDate("2024-01-07"), Amount: d("-25"), Reason: "rounding"}}

	book := BuildProject(d("5000"), sampleOutflows(), adjustments)

	assert.True(t, book.TotalSpent.Equal(d("1950")))
	assert.True(t, book.TotalAdjustments.Equal(d("-25")))
	assert.True(t, book.Balance.Equal(d("3025")))
	assert.True(t, book.ByKind["expense"].Equal(d("250")))
	assert.True(t, book.ByCategory["Fuel"].Equal(d("250")))
	assert.True(t, book.ByCategory["Contractor payments"].Equal(d("1000")))

	require.Len(t, book.Lines, 6)
	last := book.Lines[len(book.Lines)-1]
	assert.Equal(t, "adjustment", last.Kind)
	assert.True(t, last.Balance.Equal(book.Balance))
}

func TestProjectBook_Window(t *testing.T) {
	book := BuildProject(d("5000"), sampleOutflows(), nil)

	r, err := parse.ParseRange("2024-01-06", "")
	require.NoError(t, err)
	windowed := book.Window(r)

	require.Len(t, windowed.Lines, 1)
	assert.True(t, windowed.OpeningBalance.Equal(d("3100")))
	assert.True(t, windowed.TotalSpent.Equal(d("1950")))
}

func TestBuildCashReport(t *testing.T) {
	report := BuildCashReport(9, model.MustDate("2024-01-05"), sampleOutflows())

	assert.Equal(t, uint(9), report.ProjectID)
	assert.Equal(t, 3, report.Count)
	assert.True(t, report.GrandTotal.Equal(d("1600")))

	var names []string
	for _, c := range report.Categories {
		names = append(names, c.Category)
	}
	assert.Equal(t, []string{"Contractor payments", "Fuel", "Salaries and wages"}, names)
}

func TestBuildCashReport_Empty(t *testing.T) {
	report := BuildCashReport(1, model.MustDate("2023-01-01"), sampleOutflows())

	assert.Zero(t, report.Count)
	assert.NotNil(t, report.Categories)
	assert.True(t, report.GrandTotal.IsZero())
}
