package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthYear identifies a billing period. Its string form is "March-2024".
type MonthYear struct {
	Month time.Month
	Year  int
}

// ParseMonthYear parses "Month-YYYY" with a full English month name.
func ParseMonthYear(s string) (MonthYear, error) {
	name, year, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || len(year) != 4 {
		return MonthYear{}, fmt.Errorf("invalid month %q, expected Month-YYYY", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return MonthYear{}, fmt.Errorf("invalid year in %q", s)
	}
	for m := time.January; m <= time.December; m++ {
		if m.String() == name {
			return MonthYear{Month: m, Year: y}, nil
		}
	}
	return MonthYear{}, fmt.Errorf("invalid month name in %q", s)
}

// MonthYearOf returns the billing period containing t.
func MonthYearOf(t time.Time) MonthYear {
	return MonthYear{Month: t.Month(), Year: t.Year()}
}

func (m MonthYear) String() string {
	return fmt.Sprintf("%s-%04d", m.Month, m.Year)
}

// ID is a sortable key, e.g. "2024-03".
func (m MonthYear) ID() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start is midnight UTC on the first day of the month.
func (m MonthYear) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last instant of the month.
func (m MonthYear) End() time.Time {
	return m.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func (m MonthYear) Before(o MonthYear) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Contains reports whether t falls in the month, compared on the calendar
// date in t's own location.
func (m MonthYear) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// IsValidMonthYear reports whether s parses as Month-YYYY.
func IsValidMonthYear(s string) bool {
	_, err := ParseMonthYear(s)
	return err == nil
}
