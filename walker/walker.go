package walker

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotADirectory is returned when a shallow walk is rooted at something
// that is not a directory
var ErrNotADirectory = errors.New("not a directory")

// Mode selects which directories take part in a sync operation
type Mode int

const (
	// Shallow visits only the given directory
	Shallow Mode = iota
	// OneLevel visits the immediate subdirectories of the given directory and
	// then the directory itself. It never descends further.
	OneLevel
)

func (m Mode) String() string {
	switch m {
	case Shallow:
		return "shallow"
	case OneLevel:
		return "one-level"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Walker enumerates directories and artifact files on a filesystem
type Walker struct {
	fs afero.Fs
}

func New(fsys afero.Fs) *Walker {
	return &Walker{fs: fsys}
}

// Dirs returns the directories to process for root in the given mode, in
// processing order.
func (w *Walker) Dirs(root string, mode Mode) ([]string, error) {
	switch mode {
	case Shallow:
		if !w.isDir(root) {
			return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
		}
		return []string{root}, nil
	case OneLevel:
		entries, err := afero.ReadDir(w.fs, root)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", root, err)
		}

		dirs := make([]string, 0, len(entries)+1)
		for _, e := range entries {
			p := filepath.Join(root, e.Name())
			// Stat rather than the listing mode so symlinked folders count
			if w.isDir(p) {
				dirs = append(dirs, p)
			}
		}
		sort.Strings(dirs)
		return append(dirs, root), nil
	default:
		return nil, fmt.Errorf("unsupported walk mode: %s", mode)
	}
}

// Files returns the names of regular files directly inside dir that end in
// ext, sorted by name
func (w *Walker) Files(dir, ext string) ([]string, error) {
	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := w.fs.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (w *Walker) isDir(p string) bool {
	info, err := w.fs.Stat(p)
	return err == nil && info.IsDir()
}
