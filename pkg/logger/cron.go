package logger

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type cronLogger struct {
	log *Logger
}

// CronLogger adapts the logger to cron's key/value logging interface.
func (l *Logger) CronLogger() cron.Logger {
	return &cronLogger{log: l.With(zap.String("component", "cron"))}
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keyValueFields(keysAndValues)...)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keyValueFields(keysAndValues), ErrorField(err))...)
}

func keyValueFields(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, zap.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
