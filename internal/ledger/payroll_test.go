package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitebooks-backend/internal/model"
)

func TestPaidDays(t *testing.T) {
	statuses := []model.AttendanceStatus{
		model.AttendancePresent, model.AttendanceHalfDay, model.AttendanceAbsent, model.AttendancePresent,
	}
	assert.True(t, PaidDays(statuses).Equal(d("2.5")))
}

func TestEarned(t *testing.T) {
	testCases := []struct {
		name     string
		employee model.Employee
		days     string
		month    int
		expected string
	}{
		{
			name:     "Daily worker",
			employee: model.Employee{CompensationType: model.CompensationDaily, DailyRate: d("700")},
			days:     "2.5",
			month:    31,
			expected: "1750",
		},
		{
			name:     "Fixed salary full month",
			employee: model.Employee{CompensationType: model.CompensationFixed, MonthlySalary: d("30000")},
			days:     "30",
			month:    30,
			expected: "30000",
		},
		{
			name:     "Fixed salary prorated",
			employee: model.Employee{CompensationType: model.CompensationFixed, MonthlySalary: d("31000")},
			days:     "10",
			month:    31,
			expected: "10000",
		},
		{
			name:     "Unknown type",
			employee: model.Employee{},
			days:     "5",
			month:    30,
			expected: "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Earned(tc.employee, d(tc.days), tc.month)
			assert.True(t, got.Equal(d(tc.expected)), "got %s", got)
		})
	}
}
