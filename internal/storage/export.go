package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportJSON returns the current document, indented.
func (s *Storage) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Load(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return data, nil
}

// ExportTasksCSV writes one row per task.
func (s *Storage) ExportTasksCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "text", "done", "createdAt", "updatedAt"})
	for _, t := range s.GetTasks() {
		_ = cw.Write([]string{
			t.ID,
			t.Text,
			strconv.FormatBool(t.Done),
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
	return cw.Error()
}

// ExportSessionsCSV writes one row per recorded session.
func (s *Storage) ExportSessionsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "start", "end", "durationSec"})
	for _, sess := range s.GetSessions() {
		_ = cw.Write([]string{
			sess.ID,
			sess.Start.Format(time.RFC3339),
			sess.End.Format(time.RFC3339),
			strconv.FormatInt(sess.DurationSec, 10),
		})
	}
	cw.Flush()
	return cw.Error()
}
