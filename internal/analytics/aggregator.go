package analytics

import (
	"time"

	"lockin/internal/storage"
)

// SessionSource supplies the current list of recorded sessions.
// *storage.Storage satisfies it.
type SessionSource interface {
	GetSessions() []storage.Session
}

// DayTotal is one day of a MonthSummary.
type DayTotal struct {
	Day     int
	Seconds int64
}

// MonthSummary covers every day of a month, idle days included.
type MonthSummary struct {
	Year         int
	Month        time.Month
	Days         []DayTotal
	TotalSec     int64
	AvgDailySec  float64
	ActiveDays   int
	SessionCount int
}

// MonthTotal is one month of a YearSummary.
type MonthTotal struct {
	Month   time.Month
	Seconds int64
}

// YearSummary covers all twelve months of a year.
type YearSummary struct {
	Year        int
	Months      []MonthTotal
	TotalSec    int64
	AvgDailySec float64
}

// Aggregator recomputes every figure from its source on each call.
type Aggregator struct {
	src SessionSource
	loc *time.Location
}

// NewAggregator buckets by loc; nil means time.Local.
func NewAggregator(src SessionSource, loc *time.Location) *Aggregator {
	return &Aggregator{src: src, loc: orLocal(loc)}
}

// Location returns the location used for calendar bucketing.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

func (a *Aggregator) DailyTotalsForMonth(year int, month time.Month) map[int]int64 {
	return DailyTotalsForMonth(a.src.GetSessions(), year, month, a.loc)
}

func (a *Aggregator) AverageDailyForMonth(year int, month time.Month) float64 {
	return AverageDailyForMonth(a.src.GetSessions(), year, month, a.loc)
}

func (a *Aggregator) MonthlyTotalsForYear(year int) map[time.Month]int64 {
	return MonthlyTotalsForYear(a.src.GetSessions(), year, a.loc)
}

func (a *Aggregator) AverageDailyForYear(year int) float64 {
	return AverageDailyForYear(a.src.GetSessions(), year, a.loc)
}

// Month builds the full-month view.
func (a *Aggregator) Month(year int, month time.Month) MonthSummary {
	sessions := a.src.GetSessions()
	totals := DailyTotalsForMonth(sessions, year, month, a.loc)

	n := DaysInMonth(year, month)
	out := MonthSummary{Year: year, Month: month, Days: make([]DayTotal, n)}
	for d := 1; d <= n; d++ {
		sec := totals[d]
		out.Days[d-1] = DayTotal{Day: d, Seconds: sec}
		out.TotalSec += sec
		if sec > 0 {
			out.ActiveDays++
		}
	}
	for _, s := range sessions {
		start := s.Start.In(a.loc)
		if start.Year() == year && start.Month() == month {
			out.SessionCount++
		}
	}
	out.AvgDailySec = float64(out.TotalSec) / float64(n)
	return out
}

// Year builds the twelve-month view.
func (a *Aggregator) Year(year int) YearSummary {
	totals := MonthlyTotalsForYear(a.src.GetSessions(), year, a.loc)

	out := YearSummary{Year: year, Months: make([]MonthTotal, 12)}
	for m := time.January; m <= time.December; m++ {
		out.Months[m-1] = MonthTotal{Month: m, Seconds: totals[m]}
		out.TotalSec += totals[m]
	}
	out.AvgDailySec = float64(out.TotalSec) / float64(DaysInYear(year))
	return out
}

// Today sums sessions that started on now's calendar day.
func (a *Aggregator) Today(now time.Time) int64 {
	now = now.In(a.loc)
	return a.DailyTotalsForMonth(now.Year(), now.Month())[now.Day()]
}
