package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		date, err := ParseDate("2024-01-15")
		assert.NoError(t, err)
		assert.Equal(t, 2024, date.Year)
		assert.Equal(t, 1, date.Month)
		assert.Equal(t, 15, date.Day)
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date format")
	})

	t.Run("Invalid month", func(t *testing.T) {
		_, err := ParseDate("2024-13-15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "month must be between 1 and 12")
	})

	t.Run("Invalid day", func(t *testing.T) {
		_, err := ParseDate("2023-02-29")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "day must be between 1 and 28")
	})
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, 2))
	assert.Equal(t, 28, DaysInMonth(2023, 2))
	assert.Equal(t, 28, DaysInMonth(1900, 2))
	assert.Equal(t, 29, DaysInMonth(2000, 2))
	assert.Equal(t, 30, DaysInMonth(2024, 4))
	assert.Equal(t, 31, DaysInMonth(2024, 12))
}

func TestDaysBetween(t *testing.T) {
	jan10 := time.Date(2023, 1, 10, 23, 59, 0, 0, time.UTC)

	t.Run("Ignores time of day", func(t *testing.T) {
		assert.Equal(t, 2, DaysBetween(jan10, time.Date(2023, 1, 12, 0, 1, 0, 0, time.UTC)))
	})

	t.Run("Same day", func(t *testing.T) {
		assert.Equal(t, 0, DaysBetween(jan10, time.Date(2023, 1, 10, 1, 0, 0, 0, time.UTC)))
	})

	t.Run("Earlier end", func(t *testing.T) {
		assert.Equal(t, -1, DaysBetween(jan10, time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("Across months", func(t *testing.T) {
		assert.Equal(t, 22, DaysBetween(jan10, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)))
	})
}

func TestMonthWindow(t *testing.T) {
	first, last := MonthWindow(time.Date(2024, 2, 17, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), last)
}
