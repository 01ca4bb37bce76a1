package logger

import (
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// Gorm adapts l for gorm. Only slow queries and errors are reported unless
// debug is set.
func Gorm(l *Logger, slowThreshold time.Duration, debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(l.WithField(FieldComponent, "gorm"), gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
