package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	Registry RegistryConfig `json:"registry" yaml:"registry" toml:"registry"`
	Sync     SyncConfig     `json:"sync" yaml:"sync" toml:"sync"`
	Journal  JournalConfig  `json:"journal" yaml:"journal" toml:"journal"`
	Logger   LoggerConfig   `json:"logger" yaml:"logger" toml:"logger"`
	DryRun   bool           `json:"dry_run" yaml:"dry_run" toml:"dry_run"` // If true, nothing is transferred, deleted or written
}

// Validate validates the entire configuration
func (ac *AppConfig) Validate() error {
	if err := ac.Registry.Validate(); err != nil {
		return fmt.Errorf("registry config error: %w", err)
	}
	if err := ac.Sync.Validate(); err != nil {
		return fmt.Errorf("sync config error: %w", err)
	}
	if err := ac.Journal.Validate(); err != nil {
		return fmt.Errorf("journal config error: %w", err)
	}
	if err := ac.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config error: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to all components
func (ac *AppConfig) ApplyDefaults() {
	ac.Sync.ApplyDefaults()
	ac.Logger.ApplyDefaults()

	if ac.Registry.GitLab != nil {
		ac.Registry.GitLab.ApplyDefaults()
	}
	if ac.Registry.FTP != nil {
		ac.Registry.FTP.ApplyDefaults()
	}
	if ac.Journal.Bbolt != nil {
		ac.Journal.Bbolt.ApplyDefaults()
	}
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error; variables already set take precedence.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	// General configuration
	cfg.DryRun = getEnvBool("DRY_RUN", false)

	// Logger configuration
	cfg.Logger.Level = LogLevel(getEnv("LOG_LEVEL", string(LogLevelInfo)))
	cfg.Logger.AddSource = getEnvBool("LOG_ADD_SOURCE", false)
	cfg.Logger.TimeFormat = getEnv("LOG_TIME_FORMAT", "")

	// Registry configuration
	cfg.Registry.RegistryType = RegistryType(getEnv("REGISTRY_TYPE", string(RegistryTypeGitLab)))
	cfg.Registry.Common.TimeoutSeconds = getEnvInt("REGISTRY_TIMEOUT_SECONDS", 0)
	cfg.Registry.Common.MaxRPS = getEnvInt("REGISTRY_MAX_RPS", 0)

	cfg.Registry.GitLab = &GitLabConfig{
		BaseURL:   getEnv("GITLAB_URL", DefaultGitLabURL),
		ProjectID: getEnvInt("GITLAB_PROJECT_ID", DefaultProjectID),
		Token:     getEnv("PRIVATE_TOKEN", ""),
	}

	cfg.Registry.S3 = &S3Config{
		Region:          getEnv("S3_REGION", ""),
		Bucket:          getEnv("S3_BUCKET", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Prefix:          getEnv("S3_PREFIX", ""),
	}

	cfg.Registry.FTP = &FTPConfig{
		Host:     getEnv("FTP_HOST", ""),
		Port:     getEnvInt("FTP_PORT", 21),
		Username: getEnv("FTP_USERNAME", ""),
		Password: getEnv("FTP_PASSWORD", ""),
		BasePath: getEnv("FTP_BASE_PATH", "/"),
		UseTLS:   getEnvBool("FTP_USE_TLS", false),
	}

	// Sync configuration
	cfg.Sync = SyncConfig{
		GroupID:             getEnv("DEFAULT_GROUP_ID", DefaultGroupID),
		UploadPath:          getEnv("JAR_FOLDER_PATH", DefaultJarFolder),
		DownloadPath:        getEnv("DOWNLOAD_JAR_PATH", DefaultJarFolder),
		ManifestName:        getEnv("MANIFEST_NAME", DefaultManifestName),
		ArtifactRoot:        getEnv("ARTIFACT_ROOT", DefaultArtifactRoot),
		Extension:           getEnv("ARTIFACT_EXTENSION", DefaultExtension),
		ChunkSize:           getEnvInt("DOWNLOAD_CHUNK_SIZE", DefaultChunkSize),
		RecordFailedUploads: getEnvBool("RECORD_FAILED_UPLOADS", true),
		DeleteAfterUpload:   getEnvBool("DELETE_AFTER_UPLOAD", true),
	}

	// Journal configuration
	cfg.Journal.JournalType = JournalType(getEnv("JOURNAL_TYPE", string(JournalTypeNone)))
	cfg.Journal.Bbolt = &BboltConfig{
		Path:   getEnv("JOURNAL_BBOLT_PATH", "./jar-journal.db"),
		Bucket: getEnv("JOURNAL_BBOLT_BUCKET", "transfers"),
		Mode:   0600,
		NoSync: getEnvBool("JOURNAL_BBOLT_NO_SYNC", false),
	}

	// Apply defaults
	cfg.ApplyDefaults()

	return cfg, nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
