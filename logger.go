package auth

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const redactedValue = "[REDACTED]"

var sensitiveKeys = []string{"password", "secret", "token", "authorization", "hash"}

// LogrusLogger adapts a logrus entry to Logger
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps l. Sensitive fields are masked before they
// reach any formatter or hook registered after this call.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	l.AddHook(RedactHook{})
	return &LogrusLogger{entry: logrus.NewEntry(l).WithField("component", "auth")}
}

// NewLogger builds a logrus logger from level and format ("text" or "json")
func NewLogger(level, format string) (*LogrusLogger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return NewLogrusLogger(l), nil
}

// WithField returns a logger that always carries key
func (l *LogrusLogger) WithField(key string, value any) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}

// Entry exposes the underlying entry for libraries that take logrus directly
func (l *LogrusLogger) Entry() *logrus.Entry {
	return l.entry
}

func (l *LogrusLogger) Debug(msg string, args ...any) {
	l.entry.WithFields(fieldsFromArgs(args)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, args ...any) {
	l.entry.WithFields(fieldsFromArgs(args)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, args ...any) {
	l.entry.WithFields(fieldsFromArgs(args)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, args ...any) {
	l.entry.WithFields(fieldsFromArgs(args)).Error(msg)
}

func fieldsFromArgs(args []any) logrus.Fields {
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			fields["!BADKEY"] = key
			break
		}
		value := args[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		fields[key] = value
	}
	return fields
}

// RedactHook masks values whose key looks like credential material
type RedactHook struct{}

func (RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (RedactHook) Fire(entry *logrus.Entry) error {
	for key := range entry.Data {
		if isSensitiveKey(key) {
			entry.Data[key] = redactedValue
		}
	}
	return nil
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// defLogger is used when no logger is configured
type defLogger struct{}

func (defLogger) Debug(msg string, args ...any) { stdLogger().Debug(msg, args...) }
func (defLogger) Info(msg string, args ...any)  { stdLogger().Info(msg, args...) }
func (defLogger) Warn(msg string, args ...any)  { stdLogger().Warn(msg, args...) }
func (defLogger) Error(msg string, args ...any) { stdLogger().Error(msg, args...) }

var stdHookOnce sync.Once

func stdLogger() *LogrusLogger {
	stdHookOnce.Do(func() { logrus.AddHook(RedactHook{}) })
	return &LogrusLogger{entry: logrus.WithField("component", "auth")}
}
