// Package artifact implements the atomic, backup-aware file writer every
// rendered artifact goes through. The writer guarantees the destination is
// never observable with partial contents and never silently discards a
// hand-edited file.
package artifact

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edquist/osg-configure/pkg/telemetry"
)

// Marker tags files managed by this tool. Files lacking the marker are
// treated as hand-edited and backed up before being overwritten.
const Marker = "This file is automatically generated by osg-configure"

// BackupSuffix is appended to the destination path for backups of
// hand-edited files.
const BackupSuffix = ".pre-configure"

// Header returns the managed-file marker block with the given line comment
// prefix ("#", "//", ...).
func Header(commentPrefix string) string {
	return fmt.Sprintf("%s %s\n%s Manual modifications to this file will be overwritten on future runs\n",
		commentPrefix, Marker, commentPrefix)
}

// Artifact is one target file produced by a section's render pass.
type Artifact struct {
	// Path is the destination file.
	Path string

	// Contents is the full desired file contents.
	Contents []byte

	// Mode is the desired permission bits.
	Mode os.FileMode
}

// Writer persists artifacts. Implemented by DiskWriter; tests substitute a
// recording fake.
type Writer interface {
	// Write atomically replaces the file at a.Path with a.Contents.
	Write(a Artifact) error
}

// DiskWriter writes artifacts with the atomic rename discipline: full
// contents go to a temporary file in the destination directory, are fsynced,
// and the temporary file is renamed over the destination. Any step failure
// leaves the original file untouched.
type DiskWriter struct {
	logger *telemetry.Logger
}

// NewDiskWriter creates a writer that logs backups and skipped writes.
func NewDiskWriter(logger *telemetry.Logger) *DiskWriter {
	return &DiskWriter{logger: logger.NewComponentLogger("artifact")}
}

// Write implements Writer.
func (w *DiskWriter) Write(a Artifact) error {
	existing, err := os.ReadFile(a.Path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing %s: %w", a.Path, err)
	}

	// Re-running with unchanged input must produce no writes and no
	// backups.
	if exists && bytes.Equal(existing, a.Contents) {
		w.logger.Debugf("%s already up to date", a.Path)
		return nil
	}

	if exists && !bytes.Contains(existing, []byte(Marker)) {
		backup := a.Path + BackupSuffix
		if err := copyFile(a.Path, backup); err != nil {
			return fmt.Errorf("failed to back up hand-edited %s: %w", a.Path, err)
		}
		w.logger.Warnf("%s appears hand-edited, backed up to %s", a.Path, backup)
	}

	if err := w.replace(a); err != nil {
		return err
	}
	w.logger.Infof("wrote %s", a.Path)
	return nil
}

// replace performs the temp-write/fsync/rename/chmod sequence.
func (w *DiskWriter) replace(a Artifact) error {
	dir := filepath.Dir(a.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(a.Contents); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", a.Path, err)
	}
	// fsync before rename so the rename never publishes an empty file
	// after a crash.
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", a.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary file for %s: %w", a.Path, err)
	}
	if err := os.Rename(tmpName, a.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", a.Path, err)
	}
	mode := a.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(a.Path, mode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", a.Path, err)
	}
	return nil
}

// copyFile copies src to dst, preserving the source permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
