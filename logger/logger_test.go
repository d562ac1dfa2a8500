package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
)

func newBufferLogger(level config.LogLevel) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLoggerWithWriter(&config.LoggerConfig{Level: level}, &buf), &buf
}

func logAllLevels(l Logger) {
	l.Error("upload of foo-1.2.0.jar failed")
	l.Warn("manifest ignored")
	l.Info("uploaded bar.jar")
	l.Debug("added new jar")
	l.Verbose("chunk written")
}

func TestLogLevels(t *testing.T) {
	all := []string{"upload of foo-1.2.0.jar failed", "manifest ignored", "uploaded bar.jar", "added new jar", "chunk written"}

	tests := []struct {
		level   config.LogLevel
		visible int // number of messages of all that are written, in severity order
	}{
		{config.LogLevelSilent, 0},
		{config.LogLevelError, 1},
		{config.LogLevelInfo, 3},
		{config.LogLevelDebug, 4},
		{config.LogLevelVerbose, 5},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			l, buf := newBufferLogger(tt.level)
			logAllLevels(l)

			output := buf.String()
			for i, msg := range all {
				if i < tt.visible {
					require.Contains(t, output, msg)
				} else {
					require.NotContains(t, output, msg)
				}
			}
			if tt.visible == 0 {
				require.Empty(t, output)
			}
		})
	}
}

func TestLogger_LevelInOutput(t *testing.T) {
	l, buf := newBufferLogger(config.LogLevelVerbose)
	logAllLevels(l)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	require.Contains(t, lines[0], "[error]")
	require.Contains(t, lines[1], "[warn]")
	require.Contains(t, lines[2], "[info]")
	require.Contains(t, lines[3], "[debug]")
	require.Contains(t, lines[4], "[verbose]")
}

func TestLogger_Formatting(t *testing.T) {
	l, buf := newBufferLogger(config.LogLevelInfo)

	l.Info("Uploading %s (%s, %d directories)", "lib", "one-level", 3)

	require.Contains(t, buf.String(), "Uploading lib (one-level, 3 directories)")
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(config.LogLevelInfo)

	l.With("dir", "lib/A").With("jar", "x-1.0.jar").Info("uploaded")

	require.Contains(t, buf.String(), "[dir=lib/A, jar=x-1.0.jar] uploaded")
}

func TestLogger_WithFieldsSorted(t *testing.T) {
	l, buf := newBufferLogger(config.LogLevelInfo)

	l.WithFields(map[string]interface{}{
		"jar":    "foo-1.2.0.jar",
		"dir":    "lib/A",
		"status": 500,
	}).Error("upload failed")

	require.Contains(t, buf.String(), "[error] [dir=lib/A, jar=foo-1.2.0.jar, status=500] upload failed")
}

func TestLogger_WithDoesNotLeak(t *testing.T) {
	l, buf := newBufferLogger(config.LogLevelInfo)

	_ = l.With("dir", "lib/A")
	l.Info("plain")

	require.NotContains(t, buf.String(), "dir=")
}

func TestLogger_Timestamp(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&config.LoggerConfig{Level: config.LogLevelInfo, TimeFormat: "15:04:05"}, &buf)

	l.Info("tick")

	require.Regexp(t, `^\d{2}:\d{2}:\d{2} \[info\] tick\n$`, buf.String())
}

func TestLogger_DefaultTimestamp(t *testing.T) {
	l, buf := newBufferLogger(config.LogLevelInfo)

	l.Info("tick")

	require.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[info\] tick`, buf.String())
}

func TestLogger_AddSource(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&config.LoggerConfig{Level: config.LogLevelInfo, AddSource: true}, &buf)

	l.Info("with source")

	output := buf.String()
	require.Contains(t, output, "logger_test.go:")
	require.NotContains(t, output, "source=")
}

func TestNewLogger_NilConfig(t *testing.T) {
	require.NotNil(t, NewLogger(nil))
}

func TestNoOpLogger(t *testing.T) {
	l := NewNoOpLogger()
	require.NotNil(t, l)

	// Should not panic
	logAllLevels(l)
	l.With("dir", "lib").Info("test")
	l.WithFields(map[string]interface{}{"dir": "lib"}).Info("test")
}
