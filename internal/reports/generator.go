package reports

import (
	"time"

	"github.com/jonboulle/clockwork"

	"lockin/internal/analytics"
	"lockin/internal/storage"
)

// Source is what a report reads. *storage.Storage satisfies it.
type Source interface {
	GetTasks() []storage.Task
	GetSessions() []storage.Session
	GetUnfinishedSession() *storage.UnfinishedSession
}

// Generator creates reports from storage data.
type Generator struct {
	src   Source
	agg   *analytics.Aggregator
	clock clockwork.Clock
}

// NewGenerator buckets by loc (nil means time.Local).
func NewGenerator(src Source, loc *time.Location, clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Generator{src: src, agg: analytics.NewAggregator(src, loc), clock: clock}
}

// Month generates the report for one calendar month.
func (g *Generator) Month(year int, month time.Month) *MonthReport {
	loc := g.agg.Location()
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	sum := g.agg.Month(year, month)
	report := &MonthReport{
		Year:  year,
		Month: month,
		Study: StudySummary{
			TotalSec:     sum.TotalSec,
			AvgDailySec:  sum.AvgDailySec,
			ActiveDays:   sum.ActiveDays,
			Sessions:     sum.SessionCount,
			CalendarDays: len(sum.Days),
		},
		Days:        make([]DayStudy, 0, len(sum.Days)),
		Tasks:       g.taskSummary(start, end),
		GeneratedAt: g.clock.Now(),
	}
	for _, d := range sum.Days {
		date := time.Date(year, month, d.Day, 0, 0, 0, 0, loc)
		report.Days = append(report.Days, DayStudy{
			Date:      date.Format("2006-01-02"),
			DayOfWeek: date.Weekday().String(),
			Seconds:   d.Seconds,
		})
		if d.Seconds > report.Study.BestPeriodSec {
			report.Study.BestPeriodSec = d.Seconds
			report.Study.BestPeriod = date.Format("2006-01-02")
		}
	}
	report.Study.LongestSec = g.longest(start, end)
	report.Study.UnfinishedSince = g.unfinished(start, end)
	return report
}

// Year generates the report for one calendar year.
func (g *Generator) Year(year int) *YearReport {
	loc := g.agg.Location()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0)

	sum := g.agg.Year(year)
	report := &YearReport{
		Year: year,
		Study: StudySummary{
			TotalSec:     sum.TotalSec,
			AvgDailySec:  sum.AvgDailySec,
			CalendarDays: analytics.DaysInYear(year),
		},
		Months:      make([]MonthStudy, 0, 12),
		Tasks:       g.taskSummary(start, end),
		GeneratedAt: g.clock.Now(),
	}
	for _, m := range sum.Months {
		pct := 0.0
		if sum.TotalSec > 0 {
			pct = float64(m.Seconds) / float64(sum.TotalSec) * 100
		}
		report.Months = append(report.Months, MonthStudy{
			Month:      m.Month.String(),
			Seconds:    m.Seconds,
			Percentage: pct,
		})
		if m.Seconds > report.Study.BestPeriodSec {
			report.Study.BestPeriodSec = m.Seconds
			report.Study.BestPeriod = m.Month.String()
		}
	}

	sessions := g.src.GetSessions()
	for _, s := range sessions {
		if inRange(s.Start.In(loc), start, end) {
			report.Study.Sessions++
		}
	}
	for m := time.January; m <= time.December; m++ {
		for _, sec := range analytics.DailyTotalsForMonth(sessions, year, m, loc) {
			if sec > 0 {
				report.Study.ActiveDays++
			}
		}
	}
	report.Study.LongestSec = g.longest(start, end)
	report.Study.UnfinishedSince = g.unfinished(start, end)
	return report
}

func (g *Generator) taskSummary(start, end time.Time) TaskSummary {
	var sum TaskSummary
	for _, task := range g.src.GetTasks() {
		if inRange(task.CreatedAt, start, end) {
			sum.AddedCount++
		}
		switch {
		case task.Done && inRange(task.UpdatedAt, start, end):
			sum.Completed = append(sum.Completed, task)
		case !task.Done:
			sum.Pending = append(sum.Pending, task)
		}
	}
	sum.CompletedCount = len(sum.Completed)
	sum.PendingCount = len(sum.Pending)
	return sum
}

func (g *Generator) longest(start, end time.Time) int64 {
	var best int64
	for _, s := range g.src.GetSessions() {
		if inRange(s.Start, start, end) && s.DurationSec > best {
			best = s.DurationSec
		}
	}
	return best
}

func (g *Generator) unfinished(start, end time.Time) *string {
	u := g.src.GetUnfinishedSession()
	if u == nil || !inRange(u.Start, start, end) {
		return nil
	}
	s := u.Start.In(g.agg.Location()).Format(time.RFC3339)
	return &s
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
