package storage

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// DecodeStatus summarizes how much of a stored document survived decoding.
type DecodeStatus int

const (
	// StatusValid means every field decoded as-is.
	StatusValid DecodeStatus = iota
	// StatusPartial means the document decoded but some fields were
	// corrected or dropped.
	StatusPartial
	// StatusReset means nothing usable was found and the default document
	// was returned.
	StatusReset
)

func (s DecodeStatus) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusPartial:
		return "partial"
	case StatusReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Correction records one field that had to be defaulted or repaired.
type Correction struct {
	Path   string
	Reason string
}

func (c Correction) String() string {
	return c.Path + ": " + c.Reason
}

// DecodeResult is returned alongside every decoded document.
type DecodeResult struct {
	Status      DecodeStatus
	Corrections []Correction
	// Cause is set when Status is StatusReset.
	Cause error
}

// Paths lists the corrected field paths, for logging.
func (r DecodeResult) Paths() []string {
	out := make([]string, 0, len(r.Corrections))
	for _, c := range r.Corrections {
		out = append(out, c.Path)
	}
	return out
}

var (
	errEmptyDocument = errors.New("document is empty")
	errInvalidJSON   = errors.New("document is not valid JSON")
	errNotAnObject   = errors.New("document top level is not an object")
)

// Decode parses a stored document, coercing every field independently.
// It never fails: unusable input yields the default document with
// StatusReset. newID supplies ids for records missing one; nil means
// uuid.NewString.
func Decode(data []byte, newID func() string) (*Document, DecodeResult) {
	if newID == nil {
		newID = uuid.NewString
	}
	switch {
	case len(bytes.TrimSpace(data)) == 0:
		return NewDocument(), DecodeResult{Status: StatusReset, Cause: errEmptyDocument}
	case !gjson.ValidBytes(data):
		return NewDocument(), DecodeResult{Status: StatusReset, Cause: errInvalidJSON}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return NewDocument(), DecodeResult{Status: StatusReset, Cause: errNotAnObject}
	}

	d := &decoder{newID: newID}
	doc := NewDocument()
	doc.Tasks = d.tasks(root.Get("tasks"))

	study := root.Get("study")
	switch {
	case !study.Exists():
		d.fix("study", "missing")
	case !study.IsObject():
		d.fix("study", "not an object")
	default:
		doc.Study.Sessions = d.sessions(study.Get("sessions"))
		doc.Study.Unfinished = d.unfinished(study.Get("unfinished"))
	}

	if rev := root.Get("revision"); rev.Exists() {
		if rev.Type == gjson.Number && rev.Num >= 0 {
			doc.Revision = int64(rev.Num)
		} else {
			d.fix("revision", "not a non-negative number")
		}
	}

	res := DecodeResult{Status: StatusValid, Corrections: d.corrections}
	if len(d.corrections) > 0 {
		res.Status = StatusPartial
	}
	return doc, res
}

type decoder struct {
	newID       func() string
	corrections []Correction
}

func (d *decoder) fix(path, reason string) {
	d.corrections = append(d.corrections, Correction{Path: path, Reason: reason})
}

func (d *decoder) tasks(v gjson.Result) []Task {
	out := []Task{}
	if !d.array("tasks", v) {
		return out
	}

	seen := make(map[string]struct{})
	for i, item := range v.Array() {
		path := fmt.Sprintf("tasks.%d", i)
		if !item.IsObject() {
			d.fix(path, "not an object, dropped")
			continue
		}

		t := Task{
			ID:   d.id(path+".id", item.Get("id"), seen),
			Text: d.text(path+".text", item.Get("text")),
			Done: d.boolean(path+".done", item.Get("done")),
		}
		t.CreatedAt, t.UpdatedAt, _ = d.timePair(path, "createdAt", "updatedAt", item)
		out = append(out, t)
	}
	return out
}

func (d *decoder) sessions(v gjson.Result) []Session {
	out := []Session{}
	if !d.array("study.sessions", v) {
		return out
	}

	seen := make(map[string]struct{})
	for i, item := range v.Array() {
		path := fmt.Sprintf("study.sessions.%d", i)
		if !item.IsObject() {
			d.fix(path, "not an object, dropped")
			continue
		}

		start, end, ok := d.timePair(path, "start", "end", item)
		if !ok {
			d.fix(path, "no usable start or end, dropped")
			continue
		}

		s := Session{
			ID:    d.id(path+".id", item.Get("id"), seen),
			Start: start,
			End:   end,
		}
		dur, ok := d.duration(path+".durationSec", item.Get("durationSec"))
		if !ok {
			dur = durationBetween(start, end)
		}
		s.DurationSec = dur
		out = append(out, s)
	}
	return out
}

func (d *decoder) unfinished(v gjson.Result) *UnfinishedSession {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if !v.IsObject() {
		d.fix("study.unfinished", "not an object, cleared")
		return nil
	}

	start, ok := parseTimestamp(v.Get("start"))
	if !ok {
		d.fix("study.unfinished.start", "not a timestamp, slot cleared")
		return nil
	}
	last, ok := parseTimestamp(v.Get("lastActive"))
	if !ok {
		d.fix("study.unfinished.lastActive", "not a timestamp, using start")
		last = start
	}
	return &UnfinishedSession{Start: start, LastActive: last}
}

func (d *decoder) array(path string, v gjson.Result) bool {
	switch {
	case !v.Exists():
		d.fix(path, "missing")
		return false
	case !v.IsArray():
		d.fix(path, "not an array")
		return false
	}
	return true
}

func (d *decoder) id(path string, v gjson.Result, seen map[string]struct{}) string {
	var id string
	switch v.Type {
	case gjson.String:
		id = strings.TrimSpace(v.Str)
	case gjson.Number:
		id = v.Raw
	}

	if id == "" {
		d.fix(path, "missing, regenerated")
		id = d.freshID(seen)
	} else if _, dup := seen[id]; dup {
		d.fix(path, "duplicate, regenerated")
		id = d.freshID(seen)
	}
	seen[id] = struct{}{}
	return id
}

func (d *decoder) freshID(seen map[string]struct{}) string {
	for {
		id := d.newID()
		if _, dup := seen[id]; !dup {
			return id
		}
	}
}

func (d *decoder) text(path string, v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number, gjson.True, gjson.False:
		d.fix(path, "not a string, converted")
		return v.Raw
	default:
		d.fix(path, "not a string, emptied")
		return ""
	}
}

func (d *decoder) boolean(path string, v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		d.fix(path, "number converted to bool")
		return v.Num != 0
	case gjson.String:
		if b, err := strconv.ParseBool(strings.TrimSpace(v.Str)); err == nil {
			d.fix(path, "string converted to bool")
			return b
		}
	}
	d.fix(path, "not a bool, defaulted to false")
	return false
}

// timePair decodes two related timestamps, letting each stand in for the
// other when only one is usable. ok is false when neither parses.
func (d *decoder) timePair(path, aKey, bKey string, item gjson.Result) (a, b time.Time, ok bool) {
	a, aok := parseTimestamp(item.Get(aKey))
	b, bok := parseTimestamp(item.Get(bKey))
	switch {
	case aok && bok:
		return a, b, true
	case aok:
		d.fix(path+"."+bKey, "not a timestamp, using "+aKey)
		return a, a, true
	case bok:
		d.fix(path+"."+aKey, "not a timestamp, using "+bKey)
		return b, b, true
	default:
		d.fix(path+"."+aKey, "not a timestamp")
		d.fix(path+"."+bKey, "not a timestamp")
		return time.Time{}, time.Time{}, false
	}
}

// duration reads a stored durationSec. ok is false when the value must be
// recomputed from start and end; the correction is already recorded.
func (d *decoder) duration(path string, v gjson.Result) (int64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			d.fix(path, "not a number, recomputed")
			return 0, false
		}
		f = parsed
	default:
		d.fix(path, "not a number, recomputed")
		return 0, false
	}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		d.fix(path, "not a number, recomputed")
		return 0, false
	case f >= math.MaxInt64:
		d.fix(path, "out of range, recomputed")
		return 0, false
	case f < 0:
		d.fix(path, "negative, clamped to 0")
		return 0, true
	}
	return int64(math.Floor(f)), true
}

// maxTimestampMilli bounds unix-millisecond input well inside the range
// time.UnixMilli handles without overflow.
const maxTimestampMilli = 1 << 52

// parseTimestamp accepts RFC 3339 strings and unix-millisecond numbers.
// Years outside 0..9999 are rejected since the document cannot encode them.
func parseTimestamp(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return encodable(normalizeTime(t))
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromMilli(float64(ms))
		}
	case gjson.Number:
		return fromMilli(v.Num)
	}
	return time.Time{}, false
}

func fromMilli(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.Abs(ms) > maxTimestampMilli {
		return time.Time{}, false
	}
	return encodable(normalizeTime(time.UnixMilli(int64(ms))))
}

func encodable(t time.Time) (time.Time, bool) {
	if y := t.Year(); y < 0 || y > 9999 {
		return time.Time{}, false
	}
	return t, true
}
