package logger

import (
	"context"
	"maps"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is a log line carrying metric fields (duration_ms, count, queue_len).
// The context logger supplies the tracing fields.
//
//	logger.With(logger.Fields{logger.FieldCount: 3}).Since(start).Info(ctx, "Drain finished")
type Entry struct {
	fields Fields
}

func With(fields Fields) *Entry {
	return &Entry{fields: fields}
}

// With returns a copy of e with fields merged in.
func (e *Entry) With(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	maps.Copy(merged, e.fields)
	maps.Copy(merged, fields)
	return &Entry{fields: merged}
}

// Since records the time elapsed since start as duration_ms.
func (e *Entry) Since(start time.Time) *Entry {
	return e.With(Fields{FieldDurationMs: time.Since(start).Milliseconds()})
}

func (e *Entry) Debug(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.DebugLevel, format, args...)
}

func (e *Entry) Info(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.InfoLevel, format, args...)
}

func (e *Entry) Warn(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.WarnLevel, format, args...)
}

func (e *Entry) Error(ctx context.Context, format string, args ...interface{}) {
	e.logf(ctx, logrus.ErrorLevel, format, args...)
}

func (e *Entry) logf(ctx context.Context, level logrus.Level, format string, args ...interface{}) {
	FromContext(ctx).Entry.WithFields(logrus.Fields(e.fields)).Logf(level, format, args...)
}
