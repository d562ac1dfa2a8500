package logger_test

import (
	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/logger"
)

// Example demonstrates basic logger usage
func Example_basic() {
	log := logger.NewLogger(&config.LoggerConfig{Level: config.LogLevelInfo})

	log.Info("Scanning directory for JARs: %s", "lib")
	log.Debug("This won't be shown (level is Info)")
	log.Error("Upload failed: %s (HTTP %d)", "foo-1.2.0.jar", 403)
	log.Warn("Manifest is not valid JSON, treating it as empty")
}

// Example_withContext demonstrates per-directory context fields
func Example_withContext() {
	log := logger.NewLogger(&config.LoggerConfig{Level: config.LogLevelInfo})

	dirLog := log.With("dir", "lib/A")
	dirLog.Info("Processing directory")

	dirLog.WithFields(map[string]interface{}{
		"jar":     "foo-1.2.0.jar",
		"version": "1.2.0",
	}).Info("Uploaded")
}

// Example_injection shows how to inject a logger into a component
func Example_injection() {
	log := logger.NewLogger(&config.LoggerConfig{
		Level:      config.LogLevelDebug,
		TimeFormat: "15:04:05",
	})

	type Syncer struct {
		logger logger.Logger
	}

	s := &Syncer{logger: log.With("component", "processor")}
	s.logger.Debug("Configuration loaded")
}
