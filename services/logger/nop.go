package logsvc

import (
	"sync"

	"github.com/trezcool/schoolsite/core"
)

// Entry is one message recorded by a NopLogger.
type Entry struct {
	Level string
	Msg   string
}

// NopLogger records messages in memory and prints nothing. Used in tests.
type NopLogger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*NopLogger)(nil)

func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (l *NopLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg})
}

// Entries returns the recorded messages of the given level, all when level is "".
func (l *NopLogger) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *NopLogger) Debug(msg string, _ ...interface{}) { l.record("debug", msg) }
func (l *NopLogger) Info(msg string, _ ...interface{})  { l.record("info", msg) }
func (l *NopLogger) Warn(msg string, _ ...interface{})  { l.record("warn", msg) }
func (l *NopLogger) Error(msg string, _ ...interface{}) { l.record("error", msg) }
func (l *NopLogger) Fatal(msg string, _ ...interface{}) { l.record("fatal", msg) }
