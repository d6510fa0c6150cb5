package web

import (
	"sync"
	"time"

	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/console"
	"github.com/example/room-booker/internal/scheduler"
)

// LogLimit is how many status lines the panel keeps.
const LogLimit = 200

type LogEntry struct {
	At    time.Time
	Text  string
	Class string // success, retryable, fatal or info
}

// Log is a bounded, concurrency-safe list of recent status lines.
type Log struct {
	mu      sync.Mutex
	entries []LogEntry
	max     int
}

func NewLog(max int) *Log {
	if max < 1 {
		max = LogLimit
	}
	return &Log{max: max}
}

// Add has the signature scheduler.Booker.OnStatus expects.
func (l *Log) Add(st scheduler.Status) {
	e := LogEntry{At: st.At, Text: console.Line(st), Class: "info"}
	if st.Outcome != nil {
		e.Class = st.Outcome.Class().String()
	} else if st.State == scheduler.StateSucceeded {
		e.Class = booking.ClassSuccess.String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if n := len(l.entries) - l.max; n > 0 {
		l.entries = append(l.entries[:0:0], l.entries[n:]...)
	}
}

// Entries returns the lines newest first.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	for i, e := range l.entries {
		out[len(out)-1-i] = e
	}
	return out
}
