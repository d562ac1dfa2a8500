package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface
type Logger interface {
	// Error logs an error message
	Error(msg string, args ...interface{})
	// Warn logs a warning message
	Warn(msg string, args ...interface{})
	// Info logs an informational message
	Info(msg string, args ...interface{})
	// Debug logs a debug message
	Debug(msg string, args ...interface{})
	// Verbose logs a verbose/trace message
	Verbose(msg string, args ...interface{})

	// With returns a new logger with additional context fields
	With(key string, value interface{}) Logger
	// WithFields returns a new logger with multiple context fields
	WithFields(fields map[string]interface{}) Logger
}

const sourceField = "source"

// DefaultLogger is the default logger implementation, backed by logrus
type DefaultLogger struct {
	entry     *logrus.Entry
	silent    bool
	addSource bool
}

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg *config.LoggerConfig) Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter creates a logger with a custom writer (useful for testing)
func NewLoggerWithWriter(cfg *config.LoggerConfig, writer io.Writer) Logger {
	if cfg == nil {
		cfg = &config.LoggerConfig{}
	}
	cfg.ApplyDefaults()

	base := logrus.New()
	base.SetOutput(writer)
	base.SetFormatter(&lineFormatter{timeFormat: cfg.TimeFormat})
	base.SetLevel(toLogrusLevel(cfg.Level))

	silent := cfg.Level == config.LogLevelSilent
	if silent {
		base.SetOutput(io.Discard)
	}

	return &DefaultLogger{
		entry:     logrus.NewEntry(base),
		silent:    silent,
		addSource: cfg.AddSource,
	}
}

func toLogrusLevel(level config.LogLevel) logrus.Level {
	switch level {
	case config.LogLevelSilent:
		return logrus.PanicLevel
	case config.LogLevelError:
		return logrus.ErrorLevel
	case config.LogLevelDebug:
		return logrus.DebugLevel
	case config.LogLevelVerbose:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *DefaultLogger) log(level logrus.Level, msg string, args ...interface{}) {
	if l.silent || !l.entry.Logger.IsLevelEnabled(level) {
		return
	}

	entry := l.entry
	if l.addSource {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry = entry.WithField(sourceField, fmt.Sprintf("%s:%d", file, line))
		}
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	entry.Log(level, msg)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.log(logrus.ErrorLevel, msg, args...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.log(logrus.WarnLevel, msg, args...)
}

// Info logs an informational message
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.log(logrus.InfoLevel, msg, args...)
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	l.log(logrus.DebugLevel, msg, args...)
}

// Verbose logs a verbose/trace message
func (l *DefaultLogger) Verbose(msg string, args ...interface{}) {
	l.log(logrus.TraceLevel, msg, args...)
}

// With returns a new logger with an additional context field
func (l *DefaultLogger) With(key string, value interface{}) Logger {
	return &DefaultLogger{
		entry:     l.entry.WithField(key, value),
		silent:    l.silent,
		addSource: l.addSource,
	}
}

// WithFields returns a new logger with multiple context fields
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	return &DefaultLogger{
		entry:     l.entry.WithFields(logrus.Fields(fields)),
		silent:    l.silent,
		addSource: l.addSource,
	}
}

// lineFormatter renders "<time> [level] <source> [k=v, ...] message"
type lineFormatter struct {
	timeFormat string
}

var levelNames = map[logrus.Level]string{
	logrus.PanicLevel: "panic",
	logrus.FatalLevel: "fatal",
	logrus.ErrorLevel: "error",
	logrus.WarnLevel:  "warn",
	logrus.InfoLevel:  "info",
	logrus.DebugLevel: "debug",
	logrus.TraceLevel: "verbose",
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if f.timeFormat != "" {
		b.WriteString(e.Time.Format(f.timeFormat))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] ", levelNames[e.Level])

	if src, ok := e.Data[sourceField]; ok {
		fmt.Fprintf(&b, "%v ", src)
	}

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != sourceField {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		b.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Data[k])
		}
		b.WriteString("] ")
	}

	b.WriteString(e.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// NoOpLogger is a logger that does nothing (useful for testing or when logging is disabled)
type NoOpLogger struct{}

// NewNoOpLogger creates a no-op logger
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Error(msg string, args ...interface{})           {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})            {}
func (n *NoOpLogger) Info(msg string, args ...interface{})            {}
func (n *NoOpLogger) Debug(msg string, args ...interface{})           {}
func (n *NoOpLogger) Verbose(msg string, args ...interface{})         {}
func (n *NoOpLogger) With(key string, value interface{}) Logger       { return n }
func (n *NoOpLogger) WithFields(fields map[string]interface{}) Logger { return n }
