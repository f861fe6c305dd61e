package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edquist/osg-configure/pkg/telemetry"
)

func managed(body string) []byte {
	return []byte(Header("#") + body)
}

func TestWrite_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "osg-attributes.conf")
	w := NewDiskWriter(telemetry.Nop())

	contents := managed("OSG_HOSTNAME=\"ce.example.org\"\n")
	if err := w.Write(Artifact{Path: path, Contents: contents, Mode: 0o644}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected file to exist, got: %v", err)
	}
	if string(got) != string(contents) {
		t.Errorf("Contents mismatch:\n got: %q\nwant: %q", got, contents)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("Expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestWrite_IdempotentNoSecondBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lcmaps.db")
	w := NewDiskWriter(telemetry.Nop())

	contents := managed("authorize_only\n")
	if err := w.Write(Artifact{Path: path, Contents: contents, Mode: 0o644}); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := w.Write(Artifact{Path: path, Contents: contents, Mode: 0o644}); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Error("Second run must produce byte-identical output")
	}
	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Error("Identical rewrite must not create a backup")
	}
}

func TestWrite_BacksUpHandEditedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gsi-authz.conf")
	handEdited := []byte("globus_mapping custom_module custom_callout\n")
	if err := os.WriteFile(path, handEdited, 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewDiskWriter(telemetry.Nop())
	if err := w.Write(Artifact{Path: path, Contents: managed("globus_mapping lcmaps\n"), Mode: 0o644}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	backup, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("Expected backup of hand-edited file, got: %v", err)
	}
	if string(backup) != string(handEdited) {
		t.Errorf("Backup contents mismatch: %q", backup)
	}
}

func TestWrite_NoBackupForManagedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blah.config")
	w := NewDiskWriter(telemetry.Nop())

	if err := w.Write(Artifact{Path: path, Contents: managed("old\n"), Mode: 0o644}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Artifact{Path: path, Contents: managed("new\n"), Mode: 0o644}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + BackupSuffix); !os.IsNotExist(err) {
		t.Error("Marker-tagged file must be overwritten without a backup")
	}
}

func TestWrite_FailureLeavesOriginalUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-parent", "file.conf")

	w := NewDiskWriter(telemetry.Nop())
	err := w.Write(Artifact{Path: path, Contents: managed("data\n"), Mode: 0o644})
	if err == nil {
		t.Fatal("Expected error writing into missing directory")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("Failed write must not leave a destination file behind")
	}
}

func TestWrite_InterruptedTempDoesNotClobber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.conf")
	original := managed("original\n")
	w := NewDiskWriter(telemetry.Nop())
	if err := w.Write(Artifact{Path: path, Contents: original, Mode: 0o644}); err != nil {
		t.Fatal(err)
	}

	// A stranded temporary file from an interrupted run must not affect
	// the destination.
	if err := os.WriteFile(filepath.Join(dir, ".file.conf.12345"), []byte("partial"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(original) {
		t.Error("Original artifact changed without a rename")
	}
}
