package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  time.Time
		expectErr bool
	}{
		{
			name:     "Standard date",
			raw:      "2024-01-02",
			expected: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Surrounding spaces",
			raw:      " 2024-12-31 ",
			expected: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Leap day",
			raw:      "2024-02-29",
			expected: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{name: "Empty", raw: "", expectErr: true},
		{name: "Blank", raw: "   ", expectErr: true},
		{name: "Impossible day", raw: "2023-02-29", expectErr: true},
		{name: "Wrong layout", raw: "02/01/2024", expectErr: true},
		{name: "Timestamp", raw: "2024-01-02T10:00:00Z", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseDate(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, tc.expected.Equal(parsed), "got %v", parsed)
			}
		})
	}
}

func TestParseMonth(t *testing.T) {
	first, last, err := ParseMonth("2024-02")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), last)

	_, _, err = ParseMonth("2024-13")
	assert.Error(t, err)
	_, _, err = ParseMonth("")
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("", "")
	assert.NoError(t, err)
	assert.True(t, r.IsOpen())

	r, err = ParseRange("2024-01-01", "2024-01-31")
	assert.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	_, err = ParseRange("2024-02-01", "2024-01-01")
	assert.Error(t, err)

	_, err = ParseRange("nope", "")
	assert.Error(t, err)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 31, DaysIn(time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)))
}
