package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxTaskTextLen = 200

var (
	ErrEmptyText   = errors.New("task text is required")
	ErrTextTooLong = fmt.Errorf("task text too long (max %d)", maxTaskTextLen)
	ErrTaskExists  = errors.New("task already exists")
)

// TaskUpdate carries the optional fields of an update. Nil means unchanged.
type TaskUpdate struct {
	Text *string
	Done *bool
}

// NewTask is an imported task.
type NewTask struct {
	Text      string
	Done      bool
	CreatedAt time.Time
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if len(text) > maxTaskTextLen {
		return "", ErrTextTooLong
	}
	return text, nil
}

// GetTasks returns all tasks, most recently touched first.
func (s *Storage) GetTasks() []Task {
	return s.Load().Tasks
}

// AddTask creates a task at the head of the list.
func (s *Storage) AddTask(text string) (Task, error) {
	text, err := validateText(text)
	if err != nil {
		return Task{}, err
	}

	var task Task
	err = s.mutate("add task", func(doc *Document) (bool, error) {
		now := s.now()
		task = Task{ID: s.newID(), Text: text, CreatedAt: now, UpdatedAt: now}
		doc.Tasks = append([]Task{task}, doc.Tasks...)
		return true, nil
	})
	if err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTask applies upd to the task with id. It returns nil for an unknown
// id. Only fields that actually differ count as a change; an update that
// changes nothing is not written and does not move the task.
func (s *Storage) UpdateTask(id string, upd TaskUpdate) (*Task, error) {
	if upd.Text != nil {
		text, err := validateText(*upd.Text)
		if err != nil {
			return nil, err
		}
		upd.Text = &text
	}

	var out *Task
	err := s.mutate("update task", func(doc *Document) (bool, error) {
		out = nil
		i := indexOfTask(doc.Tasks, id)
		if i < 0 {
			return false, nil
		}

		t := &doc.Tasks[i]
		changed := false
		if upd.Text != nil && *upd.Text != t.Text {
			t.Text = *upd.Text
			changed = true
		}
		if upd.Done != nil && *upd.Done != t.Done {
			t.Done = *upd.Done
			changed = true
		}
		if !changed {
			cp := *t
			out = &cp
			return false, nil
		}

		t.UpdatedAt = s.now()
		moveToFront(doc.Tasks, i)
		cp := doc.Tasks[0]
		out = &cp
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTask removes the task with id and reports whether it existed.
func (s *Storage) DeleteTask(id string) (bool, error) {
	removed := false
	err := s.mutate("delete task", func(doc *Document) (bool, error) {
		i := indexOfTask(doc.Tasks, id)
		removed = i >= 0
		if !removed {
			return false, nil
		}
		doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// ClearCompletedTasks removes every done task, preserving the order of the
// rest, and returns how many were removed.
func (s *Storage) ClearCompletedTasks() (int, error) {
	removed := 0
	err := s.mutate("clear completed tasks", func(doc *Document) (bool, error) {
		kept := make([]Task, 0, len(doc.Tasks))
		for _, t := range doc.Tasks {
			if !t.Done {
				kept = append(kept, t)
			}
		}
		removed = len(doc.Tasks) - len(kept)
		doc.Tasks = kept
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// RestoreTask re-inserts a previously deleted task at the head, keeping its
// id and timestamps. Used by undo.
func (s *Storage) RestoreTask(task Task) error {
	if strings.TrimSpace(task.ID) == "" {
		return errors.New("task id is required")
	}
	text, err := validateText(task.Text)
	if err != nil {
		return err
	}
	task.Text = text
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	task.CreatedAt = normalizeTime(task.CreatedAt)
	task.UpdatedAt = normalizeTime(task.UpdatedAt)

	return s.mutate("restore task", func(doc *Document) (bool, error) {
		if indexOfTask(doc.Tasks, task.ID) >= 0 {
			return false, fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
		}
		doc.Tasks = append([]Task{task}, doc.Tasks...)
		return true, nil
	})
}

// ImportTasks adds tasks in one cycle, with items[0] ending up at the head.
// Items with invalid text are skipped. It returns how many were added.
func (s *Storage) ImportTasks(items []NewTask) (int, error) {
	added := 0
	err := s.mutate("import tasks", func(doc *Document) (bool, error) {
		now := s.now()
		batch := make([]Task, 0, len(items))
		for _, item := range items {
			text, err := validateText(item.Text)
			if err != nil {
				continue
			}
			created := now
			if !item.CreatedAt.IsZero() {
				created = normalizeTime(item.CreatedAt)
			}
			batch = append(batch, Task{
				ID:        s.newID(),
				Text:      text,
				Done:      item.Done,
				CreatedAt: created,
				UpdatedAt: now,
			})
		}
		added = len(batch)
		doc.Tasks = append(batch, doc.Tasks...)
		return added > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
