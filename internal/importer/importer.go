// Package importer migrates tasks from other productivity tools (Todoist
// CSV exports and Taskwarrior JSON exports) into the task list.
package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lockin/internal/storage"
)

// Result contains statistics about an import operation.
type Result struct {
	Imported int // tasks added
	Skipped  int // parsed tasks rejected by the store or filtered out
}

// PreviewTask represents a task before import.
type PreviewTask struct {
	Text      string
	Project   string
	Done      bool
	CreatedAt time.Time // zero when the source has no creation date
}

// Options tunes how parsed tasks become lockin tasks.
type Options struct {
	// ProjectPrefix prepends "project: " to the task text.
	ProjectPrefix bool
	// SkipDone drops tasks that are already completed.
	SkipDone bool
}

// Importer parses one export format.
type Importer interface {
	// Parse reads tasks without importing them.
	Parse(r io.Reader) ([]PreviewTask, error)

	// Name returns the importer name (e.g., "todoist", "taskwarrior").
	Name() string
}

// TaskStore is the slice of the task repository an import needs.
type TaskStore interface {
	ImportTasks(items []storage.NewTask) (int, error)
}

// Get returns the importer for format, or nil.
func Get(format string) Importer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "todoist":
		return &TodoistImporter{}
	case "taskwarrior":
		return &TaskwarriorImporter{}
	default:
		return nil
	}
}

// SupportedFormats returns the list of supported import formats.
func SupportedFormats() []string {
	return []string{"todoist", "taskwarrior"}
}

// Import parses r with imp and adds the result to store in a single write.
// The first parsed task ends up at the head of the list.
func Import(imp Importer, r io.Reader, store TaskStore, opts Options) (*Result, error) {
	tasks, err := imp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imp.Name(), err)
	}
	items := Convert(tasks, opts)

	added, err := store.ImportTasks(items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imp.Name(), err)
	}
	return &Result{Imported: added, Skipped: len(tasks) - added}, nil
}

// Convert applies opts to parsed tasks.
func Convert(tasks []PreviewTask, opts Options) []storage.NewTask {
	items := make([]storage.NewTask, 0, len(tasks))
	for _, t := range tasks {
		if opts.SkipDone && t.Done {
			continue
		}
		text := t.Text
		if opts.ProjectPrefix && t.Project != "" {
			text = t.Project + ": " + text
		}
		items = append(items, storage.NewTask{Text: text, Done: t.Done, CreatedAt: t.CreatedAt})
	}
	return items
}
