package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

var _ CacheProvider = (*BboltCache)(nil)

type BboltCache struct {
	db     *bbolt.DB
	bucket string
}

// NewBboltCache creates a new BboltCache based on configuration
func NewBboltCache(cfg *config.BboltConfig) (*BboltCache, error) {
	// Apply defaults to ensure required values are set
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bbolt config: %w", err)
	}

	db, err := bbolt.Open(cfg.Path, cfg.Mode, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", cfg.Path, err)
	}
	db.NoSync = cfg.NoSync

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BboltCache{
		db:     db,
		bucket: cfg.Bucket,
	}, nil
}

func (c *BboltCache) Close() error {
	return c.db.Close()
}

func (c *BboltCache) Set(key string, meta model.TransferMeta) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		val, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), val)
	})
}

func (c *BboltCache) Get(key string) (*model.TransferMeta, error) {
	var meta model.TransferMeta
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		val := b.Get([]byte(key))
		if val == nil {
			return ErrKeyNotFound
		}
		return json.Unmarshal(val, &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// BatchSet writes all entries in a single transaction
func (c *BboltCache) BatchSet(entries map[string]model.TransferMeta) error {
	if len(entries) == 0 {
		return nil
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		for key, meta := range entries {
			val, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(key), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *BboltCache) DumpAll() (map[string]model.TransferMeta, error) {
	results := make(map[string]model.TransferMeta)

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucket))
		if b == nil {
			return ErrBucketNotFound
		}

		return b.ForEach(func(k, v []byte) error {
			var meta model.TransferMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("unmarshal error for key %s: %w", k, err)
			}
			results[string(k)] = meta
			return nil
		})
	})

	return results, err
}

// GetByPrefix returns the entries whose key starts with prefix, e.g. every jar of one directory
func (c *BboltCache) GetByPrefix(prefix string) (map[string]model.TransferMeta, error) {
	results := make(map[string]model.TransferMeta)

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucket))
		if b == nil {
			return ErrBucketNotFound
		}

		cur := b.Cursor()
		for k, v := cur.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = cur.Next() {
			var meta model.TransferMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("unmarshal error for key %s: %w", k, err)
			}
			results[string(k)] = meta
		}

		return nil
	})

	return results, err
}

func (c *BboltCache) Delete(key string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucket))
		if b == nil {
			return ErrBucketNotFound
		}

		if b.Get([]byte(key)) == nil {
			return ErrKeyNotFound
		}
		return b.Delete([]byte(key))
	})
}

func (c *BboltCache) Count() (int64, error) {
	var count int64
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		count = int64(b.Stats().KeyN)
		return nil
	})
	return count, err
}
