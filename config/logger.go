package config

import (
	"fmt"
	"strings"
)

// LogLevel is the verbosity of the transfer log
type LogLevel string

const (
	LogLevelSilent  LogLevel = "silent"  // nothing is written
	LogLevelError   LogLevel = "error"   // failed transfers and fatal errors
	LogLevelInfo    LogLevel = "info"    // one line per transferred jar and manifest
	LogLevelDebug   LogLevel = "debug"   // skipped files, merge details
	LogLevelVerbose LogLevel = "verbose" // everything, mapped to logrus trace
)

const defaultTimeFormat = "2006-01-02 15:04:05"

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level      LogLevel `json:"level" yaml:"level" toml:"level"`
	AddSource  bool     `json:"add_source,omitempty" yaml:"add_source,omitempty" toml:"add_source"`
	TimeFormat string   `json:"time_format,omitempty" yaml:"time_format,omitempty" toml:"time_format"`
}

// Validate validates the logger configuration
func (lc *LoggerConfig) Validate() error {
	switch LogLevel(strings.ToLower(string(lc.Level))) {
	case LogLevelSilent, LogLevelError, LogLevelInfo, LogLevelDebug, LogLevelVerbose, "":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: silent, error, info, debug, verbose)", lc.Level)
	}
}

// ApplyDefaults sets the info level and a second resolution timestamp.
// Level names are matched case-insensitively.
func (lc *LoggerConfig) ApplyDefaults() {
	lc.Level = LogLevel(strings.ToLower(strings.TrimSpace(string(lc.Level))))
	if lc.Level == "" {
		lc.Level = LogLevelInfo
	}
	if lc.TimeFormat == "" {
		lc.TimeFormat = defaultTimeFormat
	}
}
