package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// JSONLogger writes one JSON object per record to a shared writer. Child
// loggers created by With share the writer, its mutex and the level, so a
// SetLevel on any of them applies to the whole family.
type JSONLogger struct {
	mu     *sync.Mutex
	w      io.Writer
	level  *atomic.Int32
	fields []Field
}

// NewJSONLogger returns a logger writing JSON lines to w at the given level.
func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	l := &JSONLogger{
		mu:    &sync.Mutex{},
		w:     w,
		level: &atomic.Int32{},
	}
	l.level.Store(int32(level))
	return l
}

// NewDefaultLogger returns a stderr logger at InfoLevel, or at the level
// named by SOURCENET_LOG_LEVEL when set.
func NewDefaultLogger() *JSONLogger {
	level := InfoLevel
	if s := os.Getenv("SOURCENET_LOG_LEVEL"); s != "" {
		level = ParseLevel(s)
	}
	return NewJSONLogger(os.Stderr, level)
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if level < Level(l.level.Load()) {
		return
	}

	rec := record{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if len(l.fields)+len(fields) > 0 {
		m := make(map[string]any, len(l.fields)+len(fields))
		for _, f := range l.fields {
			m[f.Key] = f.Value
		}
		for _, f := range fields {
			m[f.Key] = f.Value
		}
		rec.Fields = m
	}

	data, err := json.Marshal(rec)
	if err != nil {
		l.mu.Lock()
		fmt.Fprintf(l.w, "logging: dropped record %q: %v\n", msg, err)
		l.mu.Unlock()
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	l.w.Write(data)
	l.mu.Unlock()
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// With returns a child logger carrying the given fields on every record.
func (l *JSONLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &JSONLogger{mu: l.mu, w: l.w, level: l.level, fields: merged}
}

// SetLevel changes the minimum level for this logger and its children.
func (l *JSONLogger) SetLevel(level Level) { l.level.Store(int32(level)) }

// Level returns the minimum level records must meet to be written.
func (l *JSONLogger) Level() Level { return Level(l.level.Load()) }
