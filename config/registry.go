// The registry configuration is designed to allow adding other backends. To do this, add a new RegistryType, extend RegistryConfig and define the validation for the new backend.
package config

import (
	"fmt"
	"net/url"
)

// RegistryType represents the backend artifacts are transferred to and from
type RegistryType string

const (
	RegistryTypeGitLab RegistryType = "gitlab"
	RegistryTypeS3     RegistryType = "s3"
	RegistryTypeFTP    RegistryType = "ftp"
)

// RegistryConfig holds the configuration for the artifact registry
type RegistryConfig struct {
	RegistryType RegistryType `json:"type" yaml:"type" toml:"type"`

	// Common options for all backends
	Common CommonRegistryConfig `json:"common,omitempty" yaml:"common,omitempty" toml:"common,omitempty"`

	// Type-specific configurations
	GitLab *GitLabConfig `json:"gitlab,omitempty" yaml:"gitlab,omitempty" toml:"gitlab,omitempty"`
	S3     *S3Config     `json:"s3,omitempty" yaml:"s3,omitempty" toml:"s3,omitempty"`
	FTP    *FTPConfig    `json:"ftp,omitempty" yaml:"ftp,omitempty" toml:"ftp,omitempty"`
}

// CommonRegistryConfig contains settings applicable to all backends
type CommonRegistryConfig struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"` // optional: per-request timeout, 0 means none
	MaxRPS         int `json:"max_rps,omitempty" yaml:"max_rps,omitempty" toml:"max_rps,omitempty"`                         // optional: maximum requests per second, 0 means no limit
}

// GitLabConfig holds the settings of a GitLab Maven package registry
type GitLabConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url" toml:"base_url"`       // e.g. https://gitlab.example.com
	ProjectID int    `json:"project_id" yaml:"project_id" toml:"project_id"` // numeric project owning the packages
	Token     string `json:"-" yaml:"-" toml:"-"`                            // PRIVATE-TOKEN header value
}

// S3Config holds S3-specific configuration
type S3Config struct {
	Region          string `json:"region" yaml:"region" toml:"region"`
	Bucket          string `json:"bucket" yaml:"bucket" toml:"bucket"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" toml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" toml:"secret_access_key,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"` // For S3-compatible services
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty"`       // Key prefix of the Maven layout
}

// FTPConfig holds FTP-specific configuration
type FTPConfig struct {
	Host     string `json:"host" yaml:"host" toml:"host"`                                           // FTP server host
	Port     int    `json:"port" yaml:"port" toml:"port"`                                           // FTP server port (default: 21)
	Username string `json:"username" yaml:"username" toml:"username"`                               // FTP username
	Password string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"` // FTP password
	BasePath string `json:"base_path,omitempty" yaml:"base_path,omitempty" toml:"base_path"`        // Root of the Maven layout on the server
	UseTLS   bool   `json:"use_tls,omitempty" yaml:"use_tls,omitempty" toml:"use_tls,omitempty"`    // Use FTPS (FTP over TLS)
}

// Validate ensures the configuration is valid for the specified registry type
func (rc *RegistryConfig) Validate() error {
	if err := rc.Common.Validate(); err != nil {
		return err
	}

	switch rc.RegistryType {
	case RegistryTypeGitLab:
		if rc.GitLab == nil {
			return fmt.Errorf("gitlab configuration is required when type is 'gitlab'")
		}
		return rc.GitLab.Validate()
	case RegistryTypeS3:
		if rc.S3 == nil {
			return fmt.Errorf("s3 configuration is required when type is 's3'")
		}
		return rc.S3.Validate()
	case RegistryTypeFTP:
		if rc.FTP == nil {
			return fmt.Errorf("ftp configuration is required when type is 'ftp'")
		}
		return rc.FTP.Validate()
	default:
		return fmt.Errorf("unsupported registry type: %s", rc.RegistryType)
	}
}

// GetActiveConfig returns the active configuration based on the registry type
func (rc *RegistryConfig) GetActiveConfig() interface{} {
	switch rc.RegistryType {
	case RegistryTypeGitLab:
		return rc.GitLab
	case RegistryTypeS3:
		return rc.S3
	case RegistryTypeFTP:
		return rc.FTP
	default:
		return nil
	}
}

func (c *CommonRegistryConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative")
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("max_rps cannot be negative")
	}
	return nil
}

// Validate validates GitLab configuration
func (gc *GitLabConfig) Validate() error {
	if gc.Token == "" {
		return fmt.Errorf("gitlab private token is required (set PRIVATE_TOKEN)")
	}
	if gc.BaseURL == "" {
		return fmt.Errorf("gitlab base url is required")
	}
	u, err := url.Parse(gc.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gitlab base url is invalid: %q", gc.BaseURL)
	}
	if gc.ProjectID <= 0 {
		return fmt.Errorf("gitlab project id must be positive")
	}
	return nil
}

// ApplyDefaults sets default values for GitLab configuration
func (gc *GitLabConfig) ApplyDefaults() {
	if gc.BaseURL == "" {
		gc.BaseURL = DefaultGitLabURL
	}
	if gc.ProjectID == 0 {
		gc.ProjectID = DefaultProjectID
	}
}

// Validate validates S3 configuration
func (s3c *S3Config) Validate() error {
	if s3c.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	if s3c.AccessKeyID == "" {
		return fmt.Errorf("s3 access key is required")
	}
	if s3c.SecretAccessKey == "" {
		return fmt.Errorf("s3 secret key is required")
	}
	if s3c.Endpoint == "" {
		return fmt.Errorf("s3 endpoint is required")
	}
	return nil
}

// Validate validates FTP configuration
func (fc *FTPConfig) Validate() error {
	if fc.Host == "" {
		return fmt.Errorf("ftp host is required")
	}
	if fc.Port <= 0 || fc.Port > 65535 {
		return fmt.Errorf("ftp port must be between 1 and 65535")
	}
	if fc.Username == "" {
		return fmt.Errorf("ftp username is required")
	}
	// Password can be empty for anonymous FTP
	return nil
}

// ApplyDefaults sets default values for FTP configuration
func (fc *FTPConfig) ApplyDefaults() {
	if fc.Port == 0 {
		fc.Port = 21 // Default FTP port
	}
	if fc.BasePath == "" {
		fc.BasePath = "/" // Default to root
	}
}
