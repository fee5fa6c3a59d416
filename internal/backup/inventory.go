package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a named backup file does not exist.
var ErrNotFound = errors.New("backup file not found")

// ErrBadFilename is returned for names that are not well-formed backup
// artifact filenames, including anything that would escape the backup
// directory.
var ErrBadFilename = errors.New("invalid backup filename")

// Inventory presents an always-current view of on-disk backup artifacts.
// Every listing is a fresh directory scan; the set shown always equals the
// set of matching files at scan time.
type Inventory struct {
	dir    string
	logger *zap.Logger
}

// NewInventory creates an inventory over the backup directory.
func NewInventory(dir string, logger *zap.Logger) *Inventory {
	return &Inventory{
		dir:    dir,
		logger: logger.Named("inventory"),
	}
}

// Dir returns the backup directory path.
func (i *Inventory) Dir() string {
	return i.dir
}

// EnsureDir creates the backup directory if it is absent.
func (i *Inventory) EnsureDir() error {
	return os.MkdirAll(i.dir, 0755)
}

// List scans the directory and returns artifacts sorted by modification
// time, newest first. An absent or empty directory yields an empty slice.
// Files still being written show up with transient sizes; that is tolerated.
func (i *Inventory) List() ([]*Artifact, error) {
	if err := i.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	artifacts := make([]*Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// The file vanished between scan and stat; skip it.
			continue
		}
		artifacts = append(artifacts, &Artifact{
			Filename:       entry.Name(),
			SourceDatabase: SourceDatabase(entry.Name()),
			ModTime:        info.ModTime(),
			Timestamp:      info.ModTime().Format(displayTimeLayout),
			SizeBytes:      info.Size(),
			Size:           FormatSize(info.Size()),
		})
	}

	sort.Slice(artifacts, func(a, b int) bool {
		return artifacts[a].ModTime.After(artifacts[b].ModTime)
	})
	return artifacts, nil
}

// Count returns the number of artifacts in the directory. It is the cheap
// primitive behind change polling.
func (i *Inventory) Count() (int, error) {
	if err := i.EnsureDir(); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && IsArtifact(entry.Name()) {
			n++
		}
	}
	return n, nil
}

// Path resolves a backup filename to its absolute path, rejecting names
// that escape the backup directory.
func (i *Inventory) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w %q", ErrBadFilename, filename)
	}
	if !IsArtifact(filename) {
		return "", fmt.Errorf("%w %q", ErrBadFilename, filename)
	}
	return filepath.Join(i.dir, filename), nil
}

// Delete removes a backup file. A missing file is ErrNotFound, never a
// silent success.
func (i *Inventory) Delete(filename string) error {
	path, err := i.Path(filename)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete backup %s: %w", filename, err)
	}
	i.logger.Info("backup deleted", zap.String("filename", filename))
	return nil
}
