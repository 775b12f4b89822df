package storage

import (
	"errors"
	"time"
)

// SessionUpdate carries the optional bounds of an update. Nil means unchanged.
type SessionUpdate struct {
	Start *time.Time
	End   *time.Time
}

// GetSessions returns all recorded sessions, most recent first.
func (s *Storage) GetSessions() []Session {
	return s.Load().Study.Sessions
}

// AddSession records a session. An end before start gives a zero duration.
func (s *Storage) AddSession(start, end time.Time) (Session, error) {
	if start.IsZero() || end.IsZero() {
		return Session{}, errors.New("session start and end are required")
	}

	var sess Session
	err := s.mutate("add session", func(doc *Document) (bool, error) {
		sess = newSession(s.newID(), start, end)
		doc.Study.Sessions = append([]Session{sess}, doc.Study.Sessions...)
		return true, nil
	})
	if err != nil {
		return Session{}, err
	}
	s.metrics.ObserveSession("manual", sess.DurationSec)
	return sess, nil
}

// UpdateSession merges upd into the session with id, recomputes its
// duration and moves it to the head. It returns nil for an unknown id.
func (s *Storage) UpdateSession(id string, upd SessionUpdate) (*Session, error) {
	var out *Session
	err := s.mutate("update session", func(doc *Document) (bool, error) {
		out = nil
		i := indexOfSession(doc.Study.Sessions, id)
		if i < 0 {
			return false, nil
		}

		cur := doc.Study.Sessions[i]
		start, end := cur.Start, cur.End
		if upd.Start != nil {
			start = *upd.Start
		}
		if upd.End != nil {
			end = *upd.End
		}
		doc.Study.Sessions[i] = newSession(cur.ID, start, end)
		moveToFront(doc.Study.Sessions, i)
		cp := doc.Study.Sessions[0]
		out = &cp
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession removes the session with id and reports whether it existed.
func (s *Storage) DeleteSession(id string) (bool, error) {
	removed := false
	err := s.mutate("delete session", func(doc *Document) (bool, error) {
		i := indexOfSession(doc.Study.Sessions, id)
		removed = i >= 0
		if !removed {
			return false, nil
		}
		doc.Study.Sessions = append(doc.Study.Sessions[:i], doc.Study.Sessions[i+1:]...)
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// GetUnfinishedSession returns the in-progress slot, or nil.
func (s *Storage) GetUnfinishedSession() *UnfinishedSession {
	return s.Load().Study.Unfinished
}

// SetUnfinishedSession overwrites the slot with {start, lastActive: now}.
func (s *Storage) SetUnfinishedSession(start time.Time) (UnfinishedSession, error) {
	var slot UnfinishedSession
	err := s.mutate("open session", func(doc *Document) (bool, error) {
		slot = UnfinishedSession{Start: normalizeTime(start), LastActive: s.now()}
		doc.Study.Unfinished = &slot
		return true, nil
	})
	if err != nil {
		return UnfinishedSession{}, err
	}
	return slot, nil
}

// UpdateLastActive refreshes the heartbeat on the slot. It does nothing when
// there is no slot.
func (s *Storage) UpdateLastActive() error {
	return s.mutate("heartbeat", func(doc *Document) (bool, error) {
		if doc.Study.Unfinished == nil {
			return false, nil
		}
		doc.Study.Unfinished.LastActive = s.now()
		return true, nil
	})
}

// ClearUnfinishedSession empties the slot.
func (s *Storage) ClearUnfinishedSession() error {
	return s.mutate("clear unfinished session", func(doc *Document) (bool, error) {
		if doc.Study.Unfinished == nil {
			return false, nil
		}
		doc.Study.Unfinished = nil
		return true, nil
	})
}

// FinalizeUnfinished folds the slot into a new session and clears it in a
// single write. A nil end uses the slot's lastActive. It returns nil when
// there is no slot.
func (s *Storage) FinalizeUnfinished(end *time.Time) (*Session, error) {
	var out *Session
	err := s.mutate("finalize session", func(doc *Document) (bool, error) {
		out = nil
		slot := doc.Study.Unfinished
		if slot == nil {
			return false, nil
		}
		stop := slot.LastActive
		if end != nil {
			stop = *end
		}
		sess := newSession(s.newID(), slot.Start, stop)
		doc.Study.Sessions = append([]Session{sess}, doc.Study.Sessions...)
		doc.Study.Unfinished = nil
		out = &sess
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
