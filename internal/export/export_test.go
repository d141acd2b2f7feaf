package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sitebooks-backend/internal/ledger"
	"sitebooks-backend/internal/model"
)

func open(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestPartyLedger(t *testing.T) {
	book := ledger.Build(
		[]ledger.Entry{{ID: 1, Date: model.MustDate("2024-01-01"), Amount: decimal.NewFromInt(1000), Description: "Plastering"}},
		[]ledger.Payment{{ID: 1, Date: model.MustDate("2024-01-02"), Amount: decimal.NewFromInt(600), Mode: model.PaymentCash}},
		[]ledger.Allocation{{ID: 1, PaymentID: 1, EntryID: 1, Amount: decimal.NewFromInt(600)}},
	)

	var buf bytes.Buffer
	require.NoError(t, PartyLedger(&buf, "Contractor: Ravi Masonry", book))

	rows := open(t, &buf)
	assert.Equal(t, "Contractor: Ravi Masonry", rows[0][0])
	assert.Equal(t, []string{"Outstanding", "400"}, rows[4])
	last := rows[len(rows)-1]
	assert.Equal(t, "2024-01-02", last[0])
	assert.Equal(t, "payment", last[1])
	assert.Equal(t, "400", last[6])
}

func TestProjectLedger(t *testing.T) {
	book := ledger.BuildProject(decimal.NewFromInt(5000), []ledger.Outflow{
		{Kind: ledger.OutflowExpense, RefID: 1, Date: model.MustDate("2024-01-01"), Category: "Cement", Amount: decimal.NewFromInt(700)},
		{Kind: ledger.OutflowVendorPayment, RefID: 2, Date: model.MustDate("2024-01-02"), Amount: decimal.NewFromInt(300)},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, ProjectLedger(&buf, "Project: Tower A", book))

	rows := open(t, &buf)
	assert.Equal(t, []string{"Balance", "4000"}, rows[4])
	assert.Equal(t, []string{"Category", "Spent"}, rows[6])
	assert.Equal(t, []string{"Cement", "700"}, rows[7])
	assert.Equal(t, []string{"Vendor payments", "300"}, rows[8])
	assert.Equal(t, "4000", rows[len(rows)-1][6])
}
