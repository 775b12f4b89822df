package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// TaskwarriorImporter reads `task export` output, either a JSON array or
// newline-delimited JSON. Deleted tasks are skipped; completed ones are
// imported as done.
type TaskwarriorImporter struct{}

// maxTaskwarriorInput caps how much of an export is read.
const maxTaskwarriorInput = 64 << 20

func (t *TaskwarriorImporter) Name() string {
	return "taskwarrior"
}

func (t *TaskwarriorImporter) Parse(reader io.Reader) ([]PreviewTask, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxTaskwarriorInput+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if len(data) > maxTaskwarriorInput {
		return nil, fmt.Errorf("input exceeds %d bytes", maxTaskwarriorInput)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty input")
	}

	if data[0] == '[' {
		return parseTaskwarriorArray(data)
	}
	return parseTaskwarriorLines(data)
}

func parseTaskwarriorArray(data []byte) ([]PreviewTask, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON array")
	}
	var tasks []PreviewTask
	for i, item := range gjson.ParseBytes(data).Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("task %d is not an object", i+1)
		}
		if task, ok := previewFromTaskwarrior(item); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func parseTaskwarriorLines(data []byte) ([]PreviewTask, error) {
	var tasks []PreviewTask
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("invalid JSON on line %d", i+1)
		}
		item := gjson.ParseBytes(line)
		if !item.IsObject() {
			return nil, fmt.Errorf("line %d is not an object", i+1)
		}
		if task, ok := previewFromTaskwarrior(item); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func previewFromTaskwarrior(item gjson.Result) (PreviewTask, bool) {
	text := strings.TrimSpace(item.Get("description").String())
	status := strings.ToLower(item.Get("status").String())
	if status == "deleted" || text == "" {
		return PreviewTask{}, false
	}
	task := PreviewTask{
		Text:    text,
		Project: strings.TrimSpace(item.Get("project").String()),
		Done:    status == "completed",
	}
	if entry, ok := parseTaskwarriorDate(item.Get("entry").String()); ok {
		task.CreatedAt = entry
	}
	return task, true
}

// parseTaskwarriorDate parses ISO 8601 basic format (20140928T211124Z) and a
// few extended variants. Zone-less values are taken as UTC.
func parseTaskwarriorDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"20060102T150405Z",
		"20060102T150405",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
