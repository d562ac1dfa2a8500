// Package manifest persists the per-directory list of artifact records.
//
// A manifest is a JSON array of model.ArtifactRecord written with a four
// space indent. Records are keyed by JarFilename: a merge only appends
// records whose file name is not present yet and never rewrites existing
// entries. Writes overwrite the whole file in place; there is no protection
// against a crash mid-write.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/sandeshbnataraj/gitlab-jar-manager/logger"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

const filePerm = 0644

// Store reads and writes manifests on a filesystem
type Store struct {
	fs     afero.Fs
	logger logger.Logger
}

// NewStore creates a manifest store on top of fsys
func NewStore(fsys afero.Fs, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{fs: fsys, logger: log}
}

// MergeResult describes the outcome of a MergeAndSave call
type MergeResult struct {
	Existing int      // records already in the manifest
	Added    []string // file names appended by this merge
	Skipped  []string // file names that were already present
	Created  bool     // the manifest file did not exist before
}

func (r MergeResult) Total() int {
	return r.Existing + len(r.Added)
}

// Exists reports whether a manifest file is present at path
func (s *Store) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Load returns the records stored at path. A missing, unreadable or
// malformed manifest yields an empty list.
func (s *Store) Load(path string) []model.ArtifactRecord {
	records, err := s.read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Ignoring manifest %s: %v", path, err)
		}
		return []model.ArtifactRecord{}
	}
	return records
}

func (s *Store) read(path string) ([]model.ArtifactRecord, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}

	var records []model.ArtifactRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if records == nil {
		records = []model.ArtifactRecord{}
	}
	return records, nil
}

// MergeAndSave appends every record of newRecords whose JarFilename is not in
// the manifest yet, in input order, and writes the result back to path. The
// file is created if needed.
func (s *Store) MergeAndSave(path string, newRecords []model.ArtifactRecord) (MergeResult, error) {
	result := MergeResult{Created: !s.Exists(path)}

	records := s.Load(path)
	result.Existing = len(records)

	seen := make(map[string]struct{}, len(records)+len(newRecords))
	for _, r := range records {
		seen[r.JarFilename] = struct{}{}
	}

	for _, r := range newRecords {
		if _, ok := seen[r.JarFilename]; ok {
			result.Skipped = append(result.Skipped, r.JarFilename)
			continue
		}
		seen[r.JarFilename] = struct{}{}
		records = append(records, r)
		result.Added = append(result.Added, r.JarFilename)
		s.logger.Debug("Added new jar: %s", r.JarFilename)
	}

	if err := s.Save(path, records); err != nil {
		return result, err
	}
	return result, nil
}

// Save overwrites path with records
func (s *Store) Save(path string, records []model.ArtifactRecord) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// Encode renders records in the manifest file format
func Encode(records []model.ArtifactRecord) ([]byte, error) {
	if records == nil {
		records = []model.ArtifactRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}
