package config

import (
	"fmt"
	"os"
)

// JournalType represents the backend of the transfer journal
type JournalType string

const (
	JournalTypeNone  JournalType = "none"
	JournalTypeBbolt JournalType = "bbolt"
)

// JournalConfig holds the configuration of the transfer journal
type JournalConfig struct {
	JournalType JournalType `json:"type" yaml:"type" toml:"type"`

	// Type-specific configs
	Bbolt *BboltConfig `json:"bbolt,omitempty" yaml:"bbolt,omitempty" toml:"bbolt,omitempty"`
}

// BboltConfig holds bbolt-specific configuration
type BboltConfig struct {
	Path   string      `json:"path" yaml:"path" toml:"path"`                                        // Path to bbolt DB file
	Bucket string      `json:"bucket" yaml:"bucket" toml:"bucket"`                                  // Name of the bucket
	Mode   os.FileMode `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`          // File open mode: "0600", "0644"
	NoSync bool        `json:"no_sync,omitempty" yaml:"no_sync,omitempty" toml:"no_sync,omitempty"` // Disable fsync for better performance
}

// Enabled reports whether transfers should be journalled
func (jc *JournalConfig) Enabled() bool {
	return jc.JournalType != "" && jc.JournalType != JournalTypeNone
}

// Validate validates the journal configuration
func (jc *JournalConfig) Validate() error {
	switch jc.JournalType {
	case JournalTypeNone, "":
		return nil
	case JournalTypeBbolt:
		if jc.Bbolt == nil {
			return fmt.Errorf("bbolt configuration is required when type is 'bbolt'")
		}
		return jc.Bbolt.Validate()
	default:
		return fmt.Errorf("unsupported journal type: %s", jc.JournalType)
	}
}

func (jc *JournalConfig) GetActiveConfig() interface{} {
	switch jc.JournalType {
	case JournalTypeBbolt:
		return jc.Bbolt
	default:
		return nil
	}
}

func (bc *BboltConfig) Validate() error {
	if bc.Path == "" {
		return fmt.Errorf("bbolt path is required")
	}
	if bc.Bucket == "" {
		return fmt.Errorf("bbolt bucket is required")
	}
	return nil
}

// ApplyDefaults sets default values if not provided for bbolt
func (bc *BboltConfig) ApplyDefaults() {
	if bc.Path == "" {
		bc.Path = "./jar-journal.db"
	}
	if bc.Bucket == "" {
		bc.Bucket = "transfers"
	}
	if bc.Mode == 0 {
		bc.Mode = 0600 // Default file permission
	}
	// NoSync remains false by default for data safety
}
