package engine

import (
	"log/slog"
	"time"
)

// LogType classifies chronicle entries.
type LogType string

const (
	LogEvent      LogType = "event"
	LogMajorEvent LogType = "major_event"
	LogPolitics   LogType = "politics"
	LogElection   LogType = "election"
	LogPersonal   LogType = "personal"
	LogDeath      LogType = "death"
)

// MaxLogEntries bounds the in-memory chronicle.
const MaxLogEntries = 5000

// LogEntry is one line of the game chronicle.
type LogEntry struct {
	ID          int       `json:"id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        LogType   `json:"type"`
}

// record appends to the chronicle, dropping the oldest entries past the cap.
func (s *Simulation) record(typ LogType, title, description string) LogEntry {
	id := 1
	if n := len(s.Log); n > 0 {
		id = s.Log[n-1].ID + 1
	}
	e := LogEntry{ID: id, Date: s.Date, Title: title, Description: description, Type: typ}
	s.Log = append(s.Log, e)
	if len(s.Log) > MaxLogEntries {
		s.Log = s.Log[len(s.Log)-MaxLogEntries:]
	}
	slog.Debug("chronicle", "date", s.Date.Format(time.DateOnly), "type", typ, "title", title)
	return e
}

// RecentLog returns up to n entries, newest first.
func (s *Simulation) RecentLog(n int) []LogEntry {
	if n <= 0 || n > len(s.Log) {
		n = len(s.Log)
	}
	out := make([]LogEntry, 0, n)
	for i := len(s.Log) - 1; i >= len(s.Log)-n; i-- {
		out = append(out, s.Log[i])
	}
	return out
}
