package ledger

import (
	"github.com/shopspring/decimal"

	"sitebooks-backend/internal/model"
)

var half = decimal.NewFromFloat(0.5)

// PaidDays counts present days fully and half days as one half.
func PaidDays(statuses []model.AttendanceStatus) decimal.Decimal {
	days := decimal.Zero
	for _, s := range statuses {
		switch s {
		case model.AttendancePresent:
			days = days.Add(decimal.NewFromInt(1))
		case model.AttendanceHalfDay:
			days = days.Add(half)
		}
	}
	return days
}

// Earned computes an employee's wages for a month with daysInMonth days.
// Daily workers earn their rate per paid day; fixed salaries are prorated by paid days.
func Earned(e model.Employee, paidDays decimal.Decimal, daysInMonth int) decimal.Decimal {
	switch e.CompensationType {
	case model.CompensationDaily:
		return e.DailyRate.Mul(paidDays).Round(2)
	case model.CompensationFixed:
		if daysInMonth <= 0 {
			return decimal.Zero
		}
		return e.MonthlySalary.Mul(paidDays).Div(decimal.NewFromInt(int64(daysInMonth))).Round(2)
	}
	return decimal.Zero
}
