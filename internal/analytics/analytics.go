// Package analytics derives study-time totals and averages from recorded
// sessions. Sessions are bucketed by the calendar date of their start in a
// caller-chosen location.
package analytics

import (
	"fmt"
	"time"

	"lockin/internal/storage"
)

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear is 366 in leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DailyTotalsForMonth sums session seconds by day of month. Days with no
// sessions are absent from the map. A nil loc means time.Local.
func DailyTotalsForMonth(sessions []storage.Session, year int, month time.Month, loc *time.Location) map[int]int64 {
	loc = orLocal(loc)
	totals := make(map[int]int64)
	for _, s := range sessions {
		start := s.Start.In(loc)
		if start.Year() == year && start.Month() == month {
			totals[start.Day()] += s.DurationSec
		}
	}
	return totals
}

// AverageDailyForMonth divides the month's total by its number of calendar
// days, idle days included.
func AverageDailyForMonth(sessions []storage.Session, year int, month time.Month, loc *time.Location) float64 {
	return float64(sum(DailyTotalsForMonth(sessions, year, month, loc))) / float64(DaysInMonth(year, month))
}

// MonthlyTotalsForYear sums session seconds by month (1-12).
func MonthlyTotalsForYear(sessions []storage.Session, year int, loc *time.Location) map[time.Month]int64 {
	loc = orLocal(loc)
	totals := make(map[time.Month]int64)
	for _, s := range sessions {
		start := s.Start.In(loc)
		if start.Year() == year {
			totals[start.Month()] += s.DurationSec
		}
	}
	return totals
}

// AverageDailyForYear divides the year's total by 365 or 366.
func AverageDailyForYear(sessions []storage.Session, year int, loc *time.Location) float64 {
	return float64(sum(MonthlyTotalsForYear(sessions, year, loc))) / float64(DaysInYear(year))
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func sum[K comparable](m map[K]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// FormatHM renders seconds as "1h 05m".
func FormatHM(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%dh %02dm", sec/3600, (sec%3600)/60)
}

// Hours converts seconds to fractional hours.
func Hours(sec float64) float64 {
	return sec / 3600
}
