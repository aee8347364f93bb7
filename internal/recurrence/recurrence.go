// Package recurrence advances a recurring series' date cursor.
//
// All arithmetic is calendar-aware: adding months never overflows into the
// month after the target (Jan 31 + 1 month lands on the last day of
// February, not March 2), and anchor days are clamped to the target
// month's length.
package recurrence

import (
	"time"

	"github.com/dagfinn/faktura/internal/domain"
)

// NextOccurrence computes the cursor position after current for the given
// schedule. The result is always strictly after current. Unrecognized
// frequencies advance by one month.
func NextOccurrence(current time.Time, s domain.RecurrenceSchedule) time.Time {
	var next time.Time

	switch s.Frequency {
	case domain.FrequencyEvery20Seconds:
		next = current.Add(20 * time.Second)
	case domain.FrequencyEveryMinute:
		next = current.Add(time.Minute)
	case domain.FrequencyDaily:
		next = current.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		next = current.AddDate(0, 0, 7)
		if s.DayOfWeek != nil {
			// Roll forward to the scheduled weekday. The +7 above keeps
			// the result at least a week out.
			delta := (*s.DayOfWeek - int(next.Weekday()) + 7) % 7
			next = next.AddDate(0, 0, delta)
		}
	case domain.FrequencyBiWeekly:
		next = current.AddDate(0, 0, 14)
	case domain.FrequencyMonthly:
		next = addMonths(current, 1, s.DayOfMonth)
	case domain.FrequencyMonthlyTest:
		next = current.Add(2 * time.Minute)
	case domain.FrequencyQuarterly:
		next = addMonths(current, 3, s.DayOfMonth)
		if s.QuarterMonth != nil && s.DayOfMonth != nil {
			// Re-anchor inside the quarter the +3 landed in.
			quarterStart := (int(next.Month()) - 1) / 3 * 3
			next = setMonthDay(next, time.Month(quarterStart+*s.QuarterMonth), *s.DayOfMonth)
		}
	case domain.FrequencyYearly:
		next = addYear(current)
		if s.MonthOfYear != nil && s.DayOfMonth != nil {
			next = setMonthDay(next, time.Month(*s.MonthOfYear), *s.DayOfMonth)
		}
	default:
		next = addMonths(current, 1, s.DayOfMonth)
	}

	if s.TimeOfDay != nil && !s.Frequency.IsFastTest() {
		if hour, minute, ok := parseClock(*s.TimeOfDay); ok {
			next = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, next.Location())
		}
	}

	return next
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths advances t by n calendar months. The day is the anchor day
// when given, otherwise t's own day, clamped to the target month.
func addMonths(t time.Time, n int, anchorDay *int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + n
	year += total / 12
	month = time.Month(total%12 + 1)

	if anchorDay != nil {
		day = *anchorDay
	}
	if last := daysIn(year, month); day > last {
		day = last
	}

	hour, minute, sec := t.Clock()
	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// addYear advances t by one year, clamping Feb 29 to Feb 28 off leap years.
func addYear(t time.Time) time.Time {
	year, month, day := t.Date()
	year++
	if last := daysIn(year, month); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// setMonthDay re-anchors t to the given month and day within t's year,
// clamping the day to the month's length.
func setMonthDay(t time.Time, month time.Month, day int) time.Time {
	year := t.Year()
	if last := daysIn(year, month); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// parseClock parses a 24h "HH:MM" string.
func parseClock(v string) (hour, minute int, ok bool) {
	parsed, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, false
	}
	return parsed.Hour(), parsed.Minute(), true
}
