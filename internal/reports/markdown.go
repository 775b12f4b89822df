package reports

import (
	"fmt"
	"strings"

	"lockin/internal/analytics"
)

const barWidth = 20

// FormatMonthMarkdown renders a month report.
func FormatMonthMarkdown(r *MonthReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Study report: %s %d\n\n", r.Month, r.Year)
	writeStudy(&b, r.Study, "Best day")

	b.WriteString("\n## Daily\n\n")
	b.WriteString("| Date | Day | Time | |\n|---|---|---|---|\n")
	max := r.Study.BestPeriodSec
	for _, d := range r.Days {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			d.Date, d.DayOfWeek[:3], analytics.FormatHM(d.Seconds), bar(d.Seconds, max))
	}

	writeTasks(&b, r.Tasks)
	return b.String()
}

// FormatYearMarkdown renders a year report.
func FormatYearMarkdown(r *YearReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Study report: %d\n\n", r.Year)
	writeStudy(&b, r.Study, "Best month")

	b.WriteString("\n## Monthly\n\n")
	b.WriteString("| Month | Time | Share | |\n|---|---|---|---|\n")
	max := r.Study.BestPeriodSec
	for _, m := range r.Months {
		fmt.Fprintf(&b, "| %s | %s | %.0f%% | %s |\n",
			m.Month, analytics.FormatHM(m.Seconds), m.Percentage, bar(m.Seconds, max))
	}

	writeTasks(&b, r.Tasks)
	return b.String()
}

func writeStudy(b *strings.Builder, s StudySummary, bestLabel string) {
	b.WriteString("## Study\n\n")
	fmt.Fprintf(b, "- Total: %s\n", analytics.FormatHM(s.TotalSec))
	fmt.Fprintf(b, "- Daily average: %s (over %d days)\n", analytics.FormatHM(int64(s.AvgDailySec)), s.CalendarDays)
	fmt.Fprintf(b, "- Active days: %d\n", s.ActiveDays)
	fmt.Fprintf(b, "- Sessions: %d\n", s.Sessions)
	if s.LongestSec > 0 {
		fmt.Fprintf(b, "- Longest session: %s\n", analytics.FormatHM(s.LongestSec))
	}
	if s.BestPeriod != "" {
		fmt.Fprintf(b, "- %s: %s (%s)\n", bestLabel, s.BestPeriod, analytics.FormatHM(s.BestPeriodSec))
	}
	if s.UnfinishedSince != nil {
		fmt.Fprintf(b, "- Unfinished session since %s (not counted)\n", *s.UnfinishedSince)
	}
}

func writeTasks(b *strings.Builder, t TaskSummary) {
	b.WriteString("\n## Tasks\n\n")
	fmt.Fprintf(b, "- Added: %d\n- Completed: %d\n- Pending: %d\n", t.AddedCount, t.CompletedCount, t.PendingCount)
	if len(t.Completed) > 0 {
		b.WriteString("\n### Completed\n\n")
		for _, task := range t.Completed {
			fmt.Fprintf(b, "- [x] %s\n", task.Text)
		}
	}
	if len(t.Pending) > 0 {
		b.WriteString("\n### Pending\n\n")
		for _, task := range t.Pending {
			fmt.Fprintf(b, "- [ ] %s\n", task.Text)
		}
	}
}

func bar(v, max int64) string {
	if max <= 0 || v <= 0 {
		return ""
	}
	n := int(v * barWidth / max)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
