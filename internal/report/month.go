package report

import (
	"fmt"
	"strings"
	"time"

	"kharcha/internal/core"
)

const monthLayout = "2006-01"

// Month is a calendar month, independent of day and time of day.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month t falls in, in t's own location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth accepts "2024-09".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, &core.ValidationError{Field: "month", Reason: fmt.Sprintf("%q is not YYYY-MM", s), Err: err}
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label renders "September 2024".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Contains compares calendar month and year only, so the last instant of a
// month never leaks into the next one.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// Shift moves delta months forward (or backward when negative).
func (m Month) Shift(delta int) Month {
	return MonthOf(time.Date(m.Year, m.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC))
}

// Range returns the first and last instant of the month in loc, inclusive.
func (m Month) Range(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func (m Month) Filter(list []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(list))
	for _, t := range list {
		if m.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ShiftMonth returns the first day of the month delta months away from ref.
// Day overflow (Jan 31 + 1 month) cannot happen because the day is pinned to 1.
func ShiftMonth(ref time.Time, delta int) time.Time {
	return time.Date(ref.Year(), ref.Month()+time.Month(delta), 1, 0, 0, 0, 0, ref.Location())
}

// RecentMonths lists the n months ending with now's month, newest first.
func RecentMonths(now time.Time, n int) []Month {
	if n <= 0 {
		return nil
	}
	cur := MonthOf(now)
	out := make([]Month, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, cur.Shift(-i))
	}
	return out
}
