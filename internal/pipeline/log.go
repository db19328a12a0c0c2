package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable stage-log record. Reason holds the serialized
// stage snapshot, or free text for legacy and manual-move entries.
type Entry struct {
	ID     string    `json:"id"`
	Stage  Stage     `json:"stage"`
	Result string    `json:"result"`
	Reason string    `json:"reason,omitempty"`
	Actor  string    `json:"taName"`
	Date   string    `json:"date"`
	Time   string    `json:"time,omitempty"`
	At     time.Time `json:"at"`
}

// NewEntry stamps a fresh entry with a random id and the date/time of now.
func NewEntry(stage Stage, result, reason, actor string, now time.Time) Entry {
	return Entry{
		ID:     uuid.NewString(),
		Stage:  stage,
		Result: result,
		Reason: reason,
		Actor:  actor,
		Date:   now.Format(dateLayout),
		Time:   now.Format("15:04"),
		At:     now,
	}
}

// Log is a candidate's stage log, newest entry first.
type Log []Entry

// Append returns a new log with e in front. l is left untouched.
func (l Log) Append(e Entry) Log {
	out := make(Log, 0, len(l)+1)
	out = append(out, e)
	return append(out, l...)
}

// Chronological returns the entries oldest first.
func (l Log) Chronological() []Entry {
	out := make([]Entry, len(l))
	for i, e := range l {
		out[len(l)-1-i] = e
	}
	return out
}

// WithoutStage returns a copy of l with every entry for s removed.
func (l Log) WithoutStage(s Stage) Log {
	out := make(Log, 0, len(l))
	for _, e := range l {
		if e.Stage != s {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the newest entry recorded for s.
func (l Log) Latest(s Stage) (Entry, bool) {
	for _, e := range l {
		if e.Stage == s {
			return e, true
		}
	}
	return Entry{}, false
}

// LatestWithResult returns the newest entry for s carrying result.
func (l Log) LatestWithResult(s Stage, result string) (Entry, bool) {
	for _, e := range l {
		if e.Stage == s && e.Result == result {
			return e, true
		}
	}
	return Entry{}, false
}

// CountStage returns how many entries were recorded for s.
func (l Log) CountStage(s Stage) int {
	n := 0
	for _, e := range l {
		if e.Stage == s {
			n++
		}
	}
	return n
}
