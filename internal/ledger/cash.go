package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"sitebooks-backend/internal/model"
)

// CategoryTotal groups cash outflows of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Items    []Outflow       `json:"items"`
}

// CashReport lists a project's cash outflows on one date.
type CashReport struct {
	ProjectID  uint            `json:"projectId"`
	Date       model.Date      `json:"date"`
	Categories []CategoryTotal `json:"categories"`
	Count      int             `json:"count"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// BuildCashReport keeps the cash-mode outflows dated on date and groups them by category.
func BuildCashReport(projectID uint, date model.Date, outflows []Outflow) CashReport {
	report := CashReport{ProjectID: projectID, Date: date, Categories: []CategoryTotal{}, GrandTotal: decimal.Zero}
	index := make(map[string]int)

	for _, o := range outflows {
		if o.Mode != model.PaymentCash || !o.Date.Equal(date.Time) {
			continue
		}
		category := o.Category
		if o.Kind != OutflowExpense || category == "" {
			category = o.Kind.Category()
		}
		i, ok := index[category]
		if !ok {
			i = len(report.Categories)
			index[category] = i
			report.Categories = append(report.Categories, CategoryTotal{Category: category, Total: decimal.Zero})
		}
		report.Categories[i].Items = append(report.Categories[i].Items, o)
		report.Categories[i].Total = report.Categories[i].Total.Add(o.Amount)
		report.GrandTotal = report.GrandTotal.Add(o.Amount)
		report.Count++
	}

	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].Category < report.Categories[j].Category
	})
	return report
}
