package testutil

import (
	"context"
	"log/slog"
	"sync"

	"mandat/pkg/attrs"
)

// LogRecorder is a slog.Handler that captures records for assertions.
type LogRecorder struct {
	mu      sync.Mutex
	records []CapturedRecord
}

// CapturedRecord is one captured log entry with its attrs flattened into a
// [key1, value1, key2, value2] slice.
type CapturedRecord struct {
	Level   slog.Level
	Message string
	Attrs   []any
}

// NewLogRecorder returns a logger writing into the recorder.
func NewLogRecorder() (*slog.Logger, *LogRecorder) {
	recorder := &LogRecorder{}
	return slog.New(recorder), recorder
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	captured := CapturedRecord{Level: record.Level, Message: record.Message}
	record.Attrs(func(a slog.Attr) bool {
		captured.Attrs = append(captured.Attrs, a.Key, a.Value.Any())
		return true
	})
	r.mu.Lock()
	r.records = append(r.records, captured)
	r.mu.Unlock()
	return nil
}

func (r *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }

func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Find returns the first captured record with the message, or false.
func (r *LogRecorder) Find(message string) (CapturedRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.Message == message {
			return record, true
		}
	}
	return CapturedRecord{}, false
}

// Attr extracts a string attr from the captured record.
func (c CapturedRecord) Attr(key string) string {
	return attrs.ExtractString(c.Attrs, key)
}
