package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(dateStr), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// ParseDateTime parses yyyy-mm-dd into a midnight time in loc.
func ParseDateTime(dateStr string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(loc), nil
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DateOf drops the time of day from t, keeping its location.
func DateOf(t time.Time) Date {
	y, m, day := t.Date()
	return Date{Year: y, Month: int(m), Day: day}
}

// TruncateToDay returns midnight of t in its own location.
func TruncateToDay(t time.Time) time.Time {
	return DateOf(t).Time(t.Location())
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// DaysBetween returns the whole calendar days from start to end, negative when end is earlier.
func DaysBetween(start, end time.Time) int {
	s := DateOf(start).Time(time.UTC)
	e := DateOf(end).Time(time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// SameOrBeforeDay reports whether a falls on or before b's calendar day.
func SameOrBeforeDay(a, b time.Time) bool {
	return DaysBetween(a, b) >= 0
}

// MonthWindow returns the first and last day of the month containing t.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	d := DateOf(t)
	first := Date{Year: d.Year, Month: d.Month, Day: 1}
	last := Date{Year: d.Year, Month: d.Month, Day: DaysInMonth(d.Year, d.Month)}
	return first.Time(t.Location()), last.Time(t.Location())
}
