package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/sandeshbnataraj/gitlab-jar-manager/cache"
	"github.com/sandeshbnataraj/gitlab-jar-manager/config"
	"github.com/sandeshbnataraj/gitlab-jar-manager/coords"
	"github.com/sandeshbnataraj/gitlab-jar-manager/logger"
	"github.com/sandeshbnataraj/gitlab-jar-manager/manifest"
	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
	"github.com/sandeshbnataraj/gitlab-jar-manager/registry"
	"github.com/sandeshbnataraj/gitlab-jar-manager/walker"
)

// ErrUnsafeFilename is reported for manifest entries that would write outside their directory
var ErrUnsafeFilename = errors.New("jar file name is not a plain file name")

type Runner struct {
	fs       afero.Fs
	registry registry.RegistryProvider
	journal  cache.CacheProvider
	store    *manifest.Store
	walker   *walker.Walker
	logger   logger.Logger
	cfg      config.SyncConfig
	dryRun   bool
}

// NewRunner creates a new Runner with the provided dependencies. journal may be nil.
func NewRunner(fsys afero.Fs, reg registry.RegistryProvider, journal cache.CacheProvider, log logger.Logger, cfg config.SyncConfig, dryRun bool) *Runner {
	// Use NoOpLogger if none provided
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	cfg.ApplyDefaults()
	return &Runner{
		fs:       fsys,
		registry: reg,
		journal:  journal,
		store:    manifest.NewStore(fsys, log),
		walker:   walker.New(fsys),
		logger:   log,
		cfg:      cfg,
		dryRun:   dryRun,
	}
}

// UploadStats contains statistics from an upload run
type UploadStats struct {
	Directories      int64 // Directories visited
	Scanned          int64 // Artifact files found
	Uploaded         int64 // Files accepted by the registry (or that would be, in dry-run)
	Failed           int64 // Files the registry rejected or could not be reached for
	Deleted          int64 // Local files removed after upload
	DeleteFailed     int64 // Local files that could not be removed
	Recorded         int64 // Records handed to the manifest merge
	ManifestsWritten int64 // Manifest files written
	DryRun           bool
}

func (s *UploadStats) String() string {
	if s.DryRun {
		return fmt.Sprintf("Upload (dry-run): dirs=%d, scanned=%d, would_upload=%d, would_record=%d",
			s.Directories, s.Scanned, s.Uploaded, s.Recorded)
	}
	return fmt.Sprintf("Upload: dirs=%d, scanned=%d, uploaded=%d, failed=%d, deleted=%d, delete_failed=%d, recorded=%d, manifests=%d",
		s.Directories, s.Scanned, s.Uploaded, s.Failed, s.Deleted, s.DeleteFailed, s.Recorded, s.ManifestsWritten)
}

// DownloadStats contains statistics from a download run
type DownloadStats struct {
	Directories int64 // Directories with a manifest
	Skipped     int64 // Directories without a manifest
	Entries     int64 // Manifest records processed
	Downloaded  int64 // Files written (or that would be, in dry-run)
	Failed      int64 // Records that could not be fetched or written
	Bytes       int64 // Bytes written
	DryRun      bool
}

func (s *DownloadStats) String() string {
	sizeMB := float64(s.Bytes) / (1024 * 1024)
	if s.DryRun {
		return fmt.Sprintf("Download (dry-run): dirs=%d, skipped=%d, entries=%d, would_download=%d",
			s.Directories, s.Skipped, s.Entries, s.Downloaded)
	}
	return fmt.Sprintf("Download: dirs=%d, skipped=%d, entries=%d, downloaded=%d, failed=%d, total_size=%d bytes (%.2f MB)",
		s.Directories, s.Skipped, s.Entries, s.Downloaded, s.Failed, s.Bytes, sizeMB)
}

func (r *Runner) UploadOne(ctx context.Context, root string) (*UploadStats, error) {
	return r.Upload(ctx, root, walker.Shallow)
}

func (r *Runner) UploadAll(ctx context.Context, root string) (*UploadStats, error) {
	return r.Upload(ctx, root, walker.OneLevel)
}

func (r *Runner) DownloadOne(ctx context.Context, root string) (*DownloadStats, error) {
	return r.Download(ctx, root, walker.Shallow)
}

func (r *Runner) DownloadAll(ctx context.Context, root string) (*DownloadStats, error) {
	return r.Download(ctx, root, walker.OneLevel)
}

// ================== UPLOAD ==================

// Upload pushes every artifact under root to the registry and merges the
// resulting records into each directory's manifest. Per file failures are
// logged and counted; only an unusable root or a canceled context is returned.
func (r *Runner) Upload(ctx context.Context, root string, mode walker.Mode) (*UploadStats, error) {
	stats := &UploadStats{DryRun: r.dryRun}

	dirs, err := r.walker.Dirs(root, mode)
	if err != nil {
		return stats, err
	}
	r.logger.Info("Uploading %s (%s, %d directories)", root, mode, len(dirs))

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := r.uploadDir(ctx, dir, stats); err != nil {
			return stats, err
		}
	}

	r.logger.Info(stats.String())
	return stats, nil
}

func (r *Runner) uploadDir(ctx context.Context, dir string, stats *UploadStats) error {
	log := r.logger.With("dir", dir)
	stats.Directories++

	names, err := r.walker.Files(dir, r.cfg.Extension)
	if err != nil {
		log.Error("Failed to list artifacts: %v", err)
		return nil
	}
	log.Debug("Found %d artifacts", len(names))

	records := make([]model.ArtifactRecord, 0, len(names))
	journal := make(map[string]model.TransferMeta, len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			r.writeJournal(log, journal)
			return err
		}

		record, ok := coords.NewRecord(name, r.cfg.Extension, r.cfg.GroupID, r.cfg.ArtifactRoot)
		if !ok {
			log.Debug("Skipping %s: no artifact name", name)
			continue
		}
		stats.Scanned++

		if r.dryRun {
			log.Info("Would upload %s to %s", name, r.registry.Location(record.Coordinates()))
			stats.Uploaded++
			records = append(records, record)
			continue
		}

		meta, err := r.uploadFile(ctx, dir, record)
		journal[journalKey(dir, name)] = meta
		if err != nil {
			stats.Failed++
			log.Error("Failed to upload %s: %v", name, err)
			if r.cfg.RecordFailedUploads {
				records = append(records, record)
			}
			continue
		}

		stats.Uploaded++
		log.Info("Uploaded %s to %s", name, r.registry.Location(record.Coordinates()))
		records = append(records, record)

		if r.cfg.DeleteAfterUpload {
			if err := r.fs.Remove(filepath.Join(dir, name)); err != nil {
				stats.DeleteFailed++
				log.Warn("Failed to delete %s after upload: %v", name, err)
			} else {
				stats.Deleted++
				log.Debug("Deleted local file %s", name)
			}
		}
	}

	r.writeJournal(log, journal)
	stats.Recorded += int64(len(records))

	manifestPath := filepath.Join(dir, r.cfg.ManifestName)
	if len(records) == 0 && !r.store.Exists(manifestPath) {
		log.Debug("No records and no manifest, leaving directory untouched")
		return nil
	}

	if r.dryRun {
		log.Info("Would merge %d records into %s", len(records), manifestPath)
		return nil
	}

	result, err := r.store.MergeAndSave(manifestPath, records)
	if err != nil {
		log.Error("Failed to write manifest: %v", err)
		return nil
	}
	stats.ManifestsWritten++
	log.Info("Updated %s: %d existing, %d added, %d already present",
		manifestPath, result.Existing, len(result.Added), len(result.Skipped))
	return nil
}

// uploadFile sends one artifact and returns its journal entry. The file is
// closed before the caller deletes it.
func (r *Runner) uploadFile(ctx context.Context, dir string, record model.ArtifactRecord) (model.TransferMeta, error) {
	c := record.Coordinates()
	meta := model.TransferMeta{
		Coordinates: c.String(),
		Status:      model.StatusUploadFailed,
		UpdatedAt:   time.Now().Unix(),
	}

	f, err := r.fs.Open(filepath.Join(dir, record.JarFilename))
	if err != nil {
		meta.Error = err.Error()
		return meta, err
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
		meta.Size = size
		meta.ModTime = info.ModTime().Unix()
	}

	if err := r.registry.Put(ctx, c, f, size); err != nil {
		meta.Error = err.Error()
		return meta, err
	}

	meta.Status = model.StatusUploaded
	return meta, nil
}

// ================== DOWNLOAD ==================

// Download fetches every artifact listed in the manifests under root. Per
// record failures are logged and counted; only an unlistable root or a
// canceled context is returned.
func (r *Runner) Download(ctx context.Context, root string, mode walker.Mode) (*DownloadStats, error) {
	stats := &DownloadStats{DryRun: r.dryRun}

	dirs, err := r.walker.Dirs(root, mode)
	if err != nil {
		// A single directory that does not exist simply has no manifest
		if mode != walker.Shallow || !errors.Is(err, walker.ErrNotADirectory) {
			return stats, err
		}
		dirs = []string{root}
	}
	r.logger.Info("Downloading into %s (%s, %d directories)", root, mode, len(dirs))

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := r.downloadDir(ctx, dir, stats); err != nil {
			return stats, err
		}
	}

	r.logger.Info(stats.String())
	return stats, nil
}

func (r *Runner) downloadDir(ctx context.Context, dir string, stats *DownloadStats) error {
	log := r.logger.With("dir", dir)

	manifestPath := filepath.Join(dir, r.cfg.ManifestName)
	if !r.store.Exists(manifestPath) {
		stats.Skipped++
		log.Info("No %s found, skipping", r.cfg.ManifestName)
		return nil
	}
	stats.Directories++

	records := r.store.Load(manifestPath)
	log.Debug("Manifest lists %d artifacts", len(records))

	journal := make(map[string]model.TransferMeta, len(records))
	defer r.writeJournal(log, journal)

	buf := make([]byte, r.cfg.ChunkSize)
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Entries++

		if !isPlainFilename(record.JarFilename) {
			stats.Failed++
			log.Error("Refusing to download %q: %v", record.JarFilename, ErrUnsafeFilename)
			continue
		}

		c := record.Coordinates()
		if r.dryRun {
			stats.Downloaded++
			log.Info("Would download %s to %s", r.registry.Location(c), record.JarFilename)
			continue
		}

		meta, err := r.downloadFile(ctx, dir, record, buf)
		journal[journalKey(dir, record.JarFilename)] = meta
		if err != nil {
			stats.Failed++
			log.Error("Failed to download %s: %v", record.JarFilename, err)
			continue
		}

		stats.Downloaded++
		stats.Bytes += meta.Size
		log.Info("Downloaded %s (%d bytes)", record.JarFilename, meta.Size)
	}

	return nil
}

// downloadFile opens the target only after the registry answered, so a
// rejected request leaves any existing file alone.
func (r *Runner) downloadFile(ctx context.Context, dir string, record model.ArtifactRecord, buf []byte) (model.TransferMeta, error) {
	c := record.Coordinates()
	meta := model.TransferMeta{
		Coordinates: c.String(),
		Status:      model.StatusDownloadFailed,
		UpdatedAt:   time.Now().Unix(),
	}

	body, err := r.registry.Get(ctx, c)
	if err != nil {
		meta.Error = err.Error()
		return meta, err
	}
	defer body.Close()

	target := filepath.Join(dir, record.JarFilename)
	f, err := r.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		meta.Error = err.Error()
		return meta, fmt.Errorf("failed to create %s: %w", target, err)
	}

	// Hide ReadFrom/WriteTo so the copy goes through buf in fixed chunks
	n, copyErr := io.CopyBuffer(struct{ io.Writer }{f}, struct{ io.Reader }{body}, buf)
	closeErr := f.Close()
	meta.Size = n
	if copyErr != nil {
		meta.Error = copyErr.Error()
		return meta, fmt.Errorf("failed to write %s: %w", target, copyErr)
	}
	if closeErr != nil {
		meta.Error = closeErr.Error()
		return meta, fmt.Errorf("failed to close %s: %w", target, closeErr)
	}

	meta.Status = model.StatusDownloaded
	meta.ModTime = time.Now().Unix()
	return meta, nil
}

// ================== JOURNAL ==================

func (r *Runner) writeJournal(log logger.Logger, entries map[string]model.TransferMeta) {
	if r.journal == nil || len(entries) == 0 {
		return
	}
	if err := r.journal.BatchSet(entries); err != nil {
		log.Warn("Failed to journal %d transfers: %v", len(entries), err)
	}
}

func journalKey(dir, name string) string {
	return filepath.ToSlash(filepath.Join(dir, name))
}

func isPlainFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
