package config

import (
	"fmt"
	"strings"
)

const (
	DefaultGitLabURL    = "https://gitlab.ilts.com"
	DefaultProjectID    = 121
	DefaultGroupID      = "com.ilts.libs"
	DefaultJarFolder    = "lib"
	DefaultManifestName = "library.json"
	DefaultArtifactRoot = "/app/lib"
	DefaultExtension    = ".jar"
	DefaultChunkSize    = 4096
)

// SyncConfig controls how local directories are reconciled with the registry
type SyncConfig struct {
	// Dotted Maven group every upload is published under
	GroupID string `json:"group_id" yaml:"group_id" toml:"group_id"`
	// Default roots for the upload (-u, -a) and download (-d, -o) operations
	UploadPath   string `json:"upload_path" yaml:"upload_path" toml:"upload_path"`
	DownloadPath string `json:"download_path" yaml:"download_path" toml:"download_path"`
	// Manifest file name inside each directory
	ManifestName string `json:"manifest_name" yaml:"manifest_name" toml:"manifest_name"`
	// "root" tag written to manifest records
	ArtifactRoot string `json:"artifact_root" yaml:"artifact_root" toml:"artifact_root"`
	Extension    string `json:"extension" yaml:"extension" toml:"extension"`
	// Download copy buffer in bytes
	ChunkSize int `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty" toml:"chunk_size,omitempty"`

	// Keep a manifest record for uploads the registry rejected
	RecordFailedUploads bool `json:"record_failed_uploads" yaml:"record_failed_uploads" toml:"record_failed_uploads"`
	// Remove the local file once the registry accepted it
	DeleteAfterUpload bool `json:"delete_after_upload" yaml:"delete_after_upload" toml:"delete_after_upload"`
}

// ApplyDefaults fills in unset string and size fields. The two policy
// booleans are not touched: their defaults are set by LoadFromEnv.
func (sc *SyncConfig) ApplyDefaults() {
	if sc.GroupID == "" {
		sc.GroupID = DefaultGroupID
	}
	if sc.UploadPath == "" {
		sc.UploadPath = DefaultJarFolder
	}
	if sc.DownloadPath == "" {
		sc.DownloadPath = DefaultJarFolder
	}
	if sc.ManifestName == "" {
		sc.ManifestName = DefaultManifestName
	}
	if sc.ArtifactRoot == "" {
		sc.ArtifactRoot = DefaultArtifactRoot
	}
	if sc.Extension == "" {
		sc.Extension = DefaultExtension
	}
	if sc.ChunkSize <= 0 {
		sc.ChunkSize = DefaultChunkSize
	}
}

func (sc *SyncConfig) Validate() error {
	if strings.TrimSpace(sc.GroupID) == "" {
		return fmt.Errorf("group id is required")
	}
	if strings.ContainsAny(sc.ManifestName, `/\`) {
		return fmt.Errorf("manifest name must be a plain file name: %s", sc.ManifestName)
	}
	if sc.Extension != "" && !strings.HasPrefix(sc.Extension, ".") {
		return fmt.Errorf("extension must start with a dot: %s", sc.Extension)
	}
	if sc.ChunkSize < 0 {
		return fmt.Errorf("chunk_size cannot be negative")
	}
	return nil
}
