package storage

import "time"

// DocumentKey is the backend key the whole document lives under.
const DocumentKey = "lockin"

// Task is a single to-do item.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is a completed, recorded focus interval.
type Session struct {
	ID          string    `json:"id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationSec int64     `json:"durationSec"`
}

// Duration returns DurationSec as a time.Duration.
func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationSec) * time.Second
}

// UnfinishedSession is an in-progress work interval that has not yet been
// folded into a Session. LastActive is refreshed by the timer heartbeat.
type UnfinishedSession struct {
	Start      time.Time `json:"start"`
	LastActive time.Time `json:"lastActive"`
}

// Study groups recorded sessions with the unfinished slot.
type Study struct {
	Sessions   []Session          `json:"sessions"`
	Unfinished *UnfinishedSession `json:"unfinished"`
}

// Document is the single persisted unit. It is read fresh and rewritten in
// full by every mutating operation.
type Document struct {
	Tasks    []Task `json:"tasks"`
	Study    Study  `json:"study"`
	Revision int64  `json:"revision"`
}

// NewDocument returns the default, empty document.
func NewDocument() *Document {
	return &Document{
		Tasks: []Task{},
		Study: Study{Sessions: []Session{}},
	}
}

// Clone returns a deep copy so callers never alias stored slices.
func (d *Document) Clone() *Document {
	out := &Document{
		Tasks:    append([]Task{}, d.Tasks...),
		Study:    Study{Sessions: append([]Session{}, d.Study.Sessions...)},
		Revision: d.Revision,
	}
	if d.Study.Unfinished != nil {
		u := *d.Study.Unfinished
		out.Study.Unfinished = &u
	}
	return out
}

// normalizeTime converts t to UTC at millisecond precision, which is what the
// persisted format can represent.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// durationBetween is floor((end-start) seconds) clamped at zero.
func durationBetween(start, end time.Time) int64 {
	ms := end.Sub(start).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return ms / 1000
}

func newSession(id string, start, end time.Time) Session {
	start, end = normalizeTime(start), normalizeTime(end)
	return Session{
		ID:          id,
		Start:       start,
		End:         end,
		DurationSec: durationBetween(start, end),
	}
}

func indexOfTask(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfSession(sessions []Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// moveToFront moves items[i] to index 0, shifting the prefix right.
func moveToFront[T any](items []T, i int) {
	if i <= 0 {
		return
	}
	item := items[i]
	copy(items[1:i+1], items[:i])
	items[0] = item
}
