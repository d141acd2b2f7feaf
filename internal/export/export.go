// Package export renders ledgers as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sitebooks-backend/internal/ledger"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheet = "Ledger"

type workbook struct {
	f   *excelize.File
	row int
}

func newWorkbook(title string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	wb := &workbook{f: f, row: 1}
	if err := wb.append(title); err != nil {
		f.Close()
		return nil, err
	}
	return wb, nil
}

// append writes values into the next row.
func (wb *workbook) append(values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, wb.row)
	if err != nil {
		return err
	}
	if err := wb.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", wb.row, err)
	}
	wb.row++
	return nil
}

func (wb *workbook) blank() { wb.row++ }

func (wb *workbook) finish(w io.Writer) error {
	defer wb.f.Close()
	if err := wb.f.SetColWidth(sheet, "A", "G", 16); err != nil {
		return err
	}
	return wb.f.Write(w)
}

func money(d decimal.Decimal) float64 { return d.InexactFloat64() }

// PartyLedger writes a contractor or machine ledger: totals, then every line with its
// running balance.
func PartyLedger(w io.Writer, title string, book ledger.Book) error {
	wb, err := newWorkbook(title)
	if err != nil {
		return err
	}
	t := book.Totals
	rows := [][]any{
		{"Total owed", money(t.TotalOwed)},
		{"Total paid", money(t.TotalPaid)},
		{"Allocated", money(t.TotalAllocated)},
		{"Outstanding", money(t.Outstanding)},
		{"Net balance", money(t.NetBalance)},
		{"Unallocated paid", money(t.UnallocatedPaid)},
	}
	for _, r := range rows {
		if err := wb.append(r...); err != nil {
			return err
		}
	}
	wb.blank()

	if err := wb.append("Date", "Type", "Ref", "Description", "Debit", "Credit", "Balance"); err != nil {
		return err
	}
	if err := wb.append("", "opening", "", "", "", "", money(book.OpeningBalance)); err != nil {
		return err
	}
	for _, l := range book.Lines {
		if err := wb.append(l.Date.String(), string(l.Kind), l.RefID, l.Description,
			money(l.Debit), money(l.Credit), money(l.Balance)); err != nil {
			return err
		}
	}
	return wb.finish(w)
}

// ProjectLedger writes a project ledger: budget summary, category breakdown and lines.
func ProjectLedger(w io.Writer, title string, book ledger.ProjectBook) error {
	wb, err := newWorkbook(title)
	if err != nil {
		return err
	}
	rows := [][]any{
		{"Allocated budget", money(book.AllocatedBudget)},
		{"Total spent", money(book.TotalSpent)},
		{"Adjustments", money(book.TotalAdjustments)},
		{"Balance", money(book.Balance)},
	}
	for _, r := range rows {
		if err := wb.append(r...); err != nil {
			return err
		}
	}
	wb.blank()

	if err := wb.append("Category", "Spent"); err != nil {
		return err
	}
	for _, category := range sortedKeys(book.ByCategory) {
		if err := wb.append(category, money(book.ByCategory[category])); err != nil {
			return err
		}
	}
	wb.blank()

	if err := wb.append("Date", "Type", "Ref", "Category", "Description", "Amount", "Balance"); err != nil {
		return err
	}
	if err := wb.append("", "opening", "", "", "", "", money(book.OpeningBalance)); err != nil {
		return err
	}
	for _, l := range book.Lines {
		if err := wb.append(l.Date.String(), l.Kind, l.RefID, l.Category, l.Description,
			money(l.Amount), money(l.Balance)); err != nil {
			return err
		}
	}
	return wb.finish(w)
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
