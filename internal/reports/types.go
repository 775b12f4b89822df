// Package reports builds monthly and yearly study reports from the task list
// and the recorded sessions.
package reports

import (
	"time"

	"lockin/internal/storage"
)

// MonthReport contains aggregated data for one calendar month.
type MonthReport struct {
	Year        int          `json:"year"`
	Month       time.Month   `json:"month"`
	Study       StudySummary `json:"study"`
	Days        []DayStudy   `json:"days"`
	Tasks       TaskSummary  `json:"tasks"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// YearReport contains aggregated data for one calendar year.
type YearReport struct {
	Year        int          `json:"year"`
	Study       StudySummary `json:"study"`
	Months      []MonthStudy `json:"months"`
	Tasks       TaskSummary  `json:"tasks"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// StudySummary holds the headline study figures for a period.
type StudySummary struct {
	TotalSec        int64   `json:"total_sec"`
	AvgDailySec     float64 `json:"avg_daily_sec"`
	ActiveDays      int     `json:"active_days"`
	Sessions        int     `json:"sessions"`
	LongestSec      int64   `json:"longest_session_sec"`
	BestPeriod      string  `json:"best_period,omitempty"` // day "2006-01-02" or month name
	BestPeriodSec   int64   `json:"best_period_sec"`
	CalendarDays    int     `json:"calendar_days"`
	UnfinishedSince *string `json:"unfinished_since,omitempty"`
}

// DayStudy is one row of a month report.
type DayStudy struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	Seconds   int64  `json:"seconds"`
}

// MonthStudy is one row of a year report.
type MonthStudy struct {
	Month      string  `json:"month"`
	Seconds    int64   `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// TaskSummary contains task statistics for a period. Completion time is
// approximated by the last update of a done task.
type TaskSummary struct {
	Completed      []storage.Task `json:"completed"`
	Pending        []storage.Task `json:"pending"`
	CompletedCount int            `json:"completed_count"`
	PendingCount   int            `json:"pending_count"`
	AddedCount     int            `json:"added_count"`
}
