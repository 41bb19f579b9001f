package logger

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is one log line decoded back from zerolog's JSON output
type Entry struct {
	Level   zerolog.Level
	Message string
	// Fields holds every other key, with JSON-decoded values
	Fields map[string]interface{}
}

// TestLogger is a debug-level Logger for tests. It runs the real zerolog
// encoder and records what it writes, so assertions see the fields exactly
// as they would reach a log file.
type TestLogger struct {
	Logger
	sink *entrySink
}

// NewTestLogger creates a TestLogger that records every level
func NewTestLogger() *TestLogger {
	sink := &entrySink{}
	zlog := zerolog.New(sink).Level(zerolog.DebugLevel)
	return &TestLogger{
		Logger: &zerologLogger{logger: &zlog, fields: make(map[string]interface{})},
		sink:   sink,
	}
}

// Entries returns a copy of the recorded entries in write order
func (l *TestLogger) Entries() []Entry {
	return l.sink.filter(func(Entry) bool { return true })
}

// At returns the entries logged at level
func (l *TestLogger) At(level zerolog.Level) []Entry {
	return l.sink.filter(func(e Entry) bool { return e.Level == level })
}

// Find returns the first entry with message msg
func (l *TestLogger) Find(msg string) (Entry, bool) {
	found := l.sink.filter(func(e Entry) bool { return e.Message == msg })
	if len(found) == 0 {
		return Entry{}, false
	}
	return found[0], true
}

// Has reports whether msg was logged at any level
func (l *TestLogger) Has(msg string) bool {
	_, ok := l.Find(msg)
	return ok
}

// Reset drops the recorded entries
func (l *TestLogger) Reset() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.entries = nil
}

// entrySink decodes each zerolog write, which is always one JSON object
type entrySink struct {
	mu      sync.Mutex
	entries []Entry
}

func (s *entrySink) Write(p []byte) (int, error) {
	fields := make(map[string]interface{})
	if err := json.Unmarshal(p, &fields); err != nil {
		return 0, err
	}

	entry := Entry{Fields: fields}
	if lvl, ok := fields[zerolog.LevelFieldName].(string); ok {
		entry.Level, _ = zerolog.ParseLevel(lvl)
	}
	entry.Message, _ = fields[zerolog.MessageFieldName].(string)
	delete(fields, zerolog.LevelFieldName)
	delete(fields, zerolog.MessageFieldName)

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return len(p), nil
}

func (s *entrySink) filter(keep func(Entry) bool) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
