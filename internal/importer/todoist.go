package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// TodoistImporter reads Todoist CSV exports. Only rows of TYPE "task" are
// kept; sections and notes are skipped.
type TodoistImporter struct{}

func (t *TodoistImporter) Name() string {
	return "todoist"
}

func (t *TodoistImporter) Parse(reader io.Reader) ([]PreviewTask, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.ReuseRecord = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int)
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff") // UTF-8 BOM
		}
		cols[strings.ToUpper(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"TYPE", "CONTENT"} {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	field := func(record []string, col string) string {
		if idx, ok := cols[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	var tasks []PreviewTask
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if !strings.EqualFold(field(record, "TYPE"), "task") {
			continue
		}
		text := field(record, "CONTENT")
		if text == "" {
			continue
		}
		tasks = append(tasks, PreviewTask{
			Text:    text,
			Project: field(record, "PROJECT"),
		})
	}
	return tasks, nil
}
