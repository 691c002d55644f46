package logger

import (
	"fmt"
	"sort"
	"strings"

	"forex-signal/pkg/common"

	"go.uber.org/zap/zapcore"
)

// AlertSender delivers a rendered alert. It must not log through the same core.
type AlertSender func(message string)

// AlertCore tees flagged entries to send. Fields bound with With, such as the
// job of a run-scoped logger, are included in the alert.
type AlertCore struct {
	core     zapcore.Core
	minLevel zapcore.Level
	send     AlertSender
	bound    []zapcore.Field
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	bound := make([]zapcore.Field, 0, len(a.bound)+len(fields))
	bound = append(append(bound, a.bound...), fields...)
	return &AlertCore{
		core:     a.core.With(fields),
		minLevel: a.minLevel,
		send:     a.send,
		bound:    bound,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	shouldSend := false
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			shouldSend = true
			break
		}
	}
	if entry.Level >= a.minLevel && shouldSend && a.send != nil {
		all := make([]zapcore.Field, 0, len(a.bound)+len(fields))
		go a.send(FormatAlert(entry, append(append(all, a.bound...), fields...)))
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

// FormatAlert renders an entry as plain text; field values are arbitrary so no parse mode is assumed.
func FormatAlert(entry zapcore.Entry, fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fieldStr strings.Builder
	for _, k := range keys {
		fieldStr.WriteString(fmt.Sprintf("• %s: %v\n", k, enc.Fields[k]))
	}

	return fmt.Sprintf(
		"🚨 %s Alert\n\nMessage: %s\n\nFields:\n%s\nTime: %s",
		entry.Level.CapitalString(),
		entry.Message,
		fieldStr.String(),
		entry.Time.UTC().Format("2006-01-02 15:04:05"),
	)
}
