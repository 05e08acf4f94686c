package audit

import "time"

// DefaultCapacity is the number of entries a Log retains.
const DefaultCapacity = 10

// Entry records a security-relevant action.
type Entry struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is a bounded, newest-first list of entries. Once full, appending
// evicts the oldest entry. Log is not safe for concurrent use; its owner
// serializes access.
type Log struct {
	capacity int
	entries  []Entry
}

// New builds a log retaining at most capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, entries: make([]Entry, 0, capacity)}
}

// Append puts e at the front.
func (l *Log) Append(e Entry) {
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, Entry{})
	}
	copy(l.entries[1:], l.entries[:len(l.entries)-1])
	l.entries[0] = e
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of retained entries.
func (l *Log) Len() int { return len(l.entries) }
