package cache

import (
	"errors"
	"fmt"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

// CacheProvider is the transfer journal. Keys are "<dir>/<jarFilename>".
type CacheProvider interface {
	Set(key string, meta model.TransferMeta) error
	Get(key string) (*model.TransferMeta, error)
	BatchSet(entries map[string]model.TransferMeta) error
	GetByPrefix(prefix string) (map[string]model.TransferMeta, error)
	DumpAll() (map[string]model.TransferMeta, error)
	Delete(key string) error
	Close() error
	Count() (int64, error)
}

var (
	ErrKeyNotFound    error = errors.New("key not found")
	ErrBucketNotFound error = errors.New("bucket not found")
)

// CreateCache opens the journal described by cfg. It returns nil, nil when journalling is disabled.
func CreateCache(cfg *config.JournalConfig) (CacheProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid journal configuration: %w", err)
	}

	switch cfg.JournalType {
	case config.JournalTypeNone, "":
		return nil, nil
	case config.JournalTypeBbolt:
		c, err := NewBboltCache(cfg.Bbolt)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported journal type: %s", cfg.JournalType)
	}
}
