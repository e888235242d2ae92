package cas

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/dansk/core/errors"
)

func TestKey(t *testing.T) {
	src := []byte("hvis x:\n    fisk\n")

	k := Key(src, false)
	if !ValidKey(k) {
		t.Fatalf("Key returned %q, not a hex digest", k)
	}
	if k != Key(src, false) {
		t.Error("Key is not deterministic")
	}
	if k == Key(src, true) {
		t.Error("skip flag does not change the key")
	}
	if k == Key([]byte("hvis y:\n    fisk\n"), false) {
		t.Error("different sources share a key")
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{strings.Repeat("a", 64), true},
		{strings.Repeat("A", 64), false},
		{strings.Repeat("a", 63), false},
		{"../" + strings.Repeat("a", 61), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestPutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	key := Key([]byte("aflever 1\n"), false)
	if _, ok, err := c.Get(key); err != nil || ok {
		t.Fatalf("Get on empty cache = ok %v, err %v", ok, err)
	}

	if err := c.Put(key, "return 1\n"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	text, ok, err := c.Get(key)
	if err != nil || !ok || text != "return 1\n" {
		t.Errorf("Get = (%q, %v, %v)", text, ok, err)
	}

	blob := filepath.Join(dir, "blobs", "blake3", key[:2], key+".xz")
	data, err := os.ReadFile(blob)
	if err != nil {
		t.Fatalf("blob missing at %s: %v", blob, err)
	}
	// xz stream magic
	if !strings.HasPrefix(string(data), "\xFD7zXZ\x00") {
		t.Errorf("blob is not xz-compressed: % x", data[:6])
	}
}

func TestGetFromDiskAfterReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	key := Key([]byte("brud\n"), false)
	if err := c.Put(key, "break\n"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	reopened, err := OpenSize(dir, 0)
	if err != nil {
		t.Fatalf("OpenSize error: %v", err)
	}
	text, ok, err := reopened.Get(key)
	if err != nil || !ok || text != "break\n" {
		t.Errorf("Get after reopen = (%q, %v, %v)", text, ok, err)
	}
	if n, _ := reopened.mem.len(); n != 0 {
		t.Errorf("disabled memory cache holds %d entries", n)
	}
}

func TestInvalidKey(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if _, _, err := c.Get("../../etc/passwd"); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Get with bad key error = %v, want ErrInvalidInput", err)
	}
	if err := c.Put("zz", "x"); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Put with bad key error = %v, want ErrInvalidInput", err)
	}
}

func TestOpenEmptyDir(t *testing.T) {
	if _, err := Open(""); !stderrors.Is(err, errors.ErrConfiguration) {
		t.Errorf("Open(\"\") error = %v, want ErrConfiguration", err)
	}
}

func TestPutWriteFailure(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	key := Key([]byte("x\n"), false)
	// A file where the shard directory belongs makes the write fail.
	shard := filepath.Join(c.Root(), "blobs", "blake3", key[:2])
	if err := os.WriteFile(shard, nil, 0644); err != nil {
		t.Fatal(err)
	}

	err = c.Put(key, "x\n")
	var ioErr *errors.IOError
	if !stderrors.As(err, &ioErr) {
		t.Fatalf("Put error = %v, want IOError", err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Error("failed Put left an entry behind")
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	key := Key([]byte("x\n"), false)
	if err := c.Put(key, "x\n"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(c.Root(), "blobs", "blake3", key[:2]))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != key+".xz" {
		t.Errorf("shard contents = %v, want only %s.xz", entries, key)
	}
}

func TestStatsAndClear(t *testing.T) {
	c, err := OpenSize(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	k1 := Key([]byte("a\n"), false)
	k2 := Key([]byte("b\n"), false)
	if err := c.Put(k1, "a\n"); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(k2, "b\n"); err != nil {
		t.Fatal(err)
	}
	c.Get(k2)
	c.Get(Key([]byte("c\n"), false))

	st, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if st.Entries != 2 || st.CompressedBytes <= 0 {
		t.Errorf("Stats = %+v, want 2 entries on disk", st)
	}
	if st.MemoryEntries != 1 || st.Evictions != 1 {
		t.Errorf("memory stats = %+v, want 1 entry and 1 eviction", st)
	}
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("hit/miss = %d/%d, want 1/1", st.Hits, st.Misses)
	}

	n, err := c.Clear()
	if err != nil || n != 2 {
		t.Fatalf("Clear = %d, %v; want 2", n, err)
	}
	if _, ok, _ := c.Get(k1); ok {
		t.Error("entry survived Clear")
	}
	st, _ = c.Stats()
	if st.Entries != 0 || st.MemoryEntries != 0 {
		t.Errorf("Stats after Clear = %+v", st)
	}
}

func TestStatsCountsDiskHits(t *testing.T) {
	c, err := OpenSize(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	k1 := Key([]byte("a\n"), false)
	k2 := Key([]byte("b\n"), false)
	if err := c.Put(k1, "a\n"); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(k2, "b\n"); err != nil {
		t.Fatal(err)
	}

	// k1 was evicted from memory and must come from disk.
	if text, ok, err := c.Get(k1); err != nil || !ok || text != "a\n" {
		t.Fatalf("Get(k1) = %q, %v, %v", text, ok, err)
	}
	if _, ok, _ := c.Get(k1); !ok {
		t.Fatal("Get(k1) missed after disk hit")
	}

	st, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if st.Hits != 2 || st.Misses != 0 {
		t.Errorf("hit/miss = %d/%d, want 2/0", st.Hits, st.Misses)
	}
}
