package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// StartOfWeek returns midnight of the Monday on or before t, in t's location.
// Sunday belongs to the week that started six days earlier.
func StartOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-daysSinceMonday, 0, 0, 0, 0, t.Location())
}

// WeekDates returns the seven Monday to Sunday dates of the week offset whole weeks from
// the week containing today.
func WeekDates(today time.Time, offset int) [7]time.Time {
	start := StartOfWeek(today)
	var dates [7]time.Time
	for i := range dates {
		dates[i] = time.Date(start.Year(), start.Month(), start.Day()+offset*7+i, 0, 0, 0, 0, start.Location())
	}
	return dates
}

// WeekOffset returns how many whole weeks the week containing date lies after the week
// containing today. Only the calendar dates of both values are compared.
func WeekOffset(today, date time.Time) int {
	from := StartOfWeek(civilDate(today))
	to := StartOfWeek(civilDate(date))
	return int(to.Sub(from).Hours()/24) / 7
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekKeys returns the date keys for dates.
func WeekKeys(dates [7]time.Time) [7]string {
	var keys [7]string
	for i, d := range dates {
		keys[i] = DateKey(d)
	}
	return keys
}

// ParseDateKey parses a YYYY-MM-DD date in UTC.
func ParseDateKey(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid date %q: %w", value, err)
	}
	return parsed, nil
}
