package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fib.py")

	if err := WriteFile(path, []byte("pass\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pass\n" {
		t.Errorf("content = %q", got)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0644 {
		t.Errorf("perm = %v, want 0644", info.Mode().Perm())
	}
}

func TestWriteFileKeepsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.py")
	if err := os.WriteFile(path, []byte("old"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []byte("new"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0755 {
		t.Errorf("perm = %v, want 0755", info.Mode().Perm())
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content = %q, want new", got)
	}
}

func TestWriteFileRenameFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fib.py")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	orig := osRename
	osRename = func(string, string) error { return errors.New("disk full") }
	defer func() { osRename = orig }()

	if err := WriteFile(path, []byte("replacement"), 0644); err == nil {
		t.Fatal("WriteFile() succeeded with failing rename")
	}
	got, _ := os.ReadFile(path)
	if string(got) != "original" {
		t.Errorf("original file changed to %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "fib.py")
	if err := WriteFile(path, []byte("x"), 0644); err == nil {
		t.Error("WriteFile() into a missing directory succeeded")
	}
}
