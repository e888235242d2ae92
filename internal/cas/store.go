// Package cas is a content-addressed cache of translated sources.
//
// Entries are keyed by the BLAKE3 hash of the source bytes together with
// everything else that decides the output: the vocabulary fingerprint and
// whether the leading line is skipped. Blobs are xz-compressed on disk under
// <root>/blobs/blake3/<first2>/<key>.xz, and a small in-memory LRU sits in
// front of the disk store.
package cas

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/vocab"
	"github.com/FocuswithJustin/dansk/internal/fileutil"
)

// keyPattern matches a lowercase BLAKE3-256 hex digest.
var keyPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// fingerprint identifies the vocabulary baked into cached output.
var fingerprint = func() []byte {
	h := blake3.New()
	for _, e := range vocab.Entries() {
		fmt.Fprintf(h, "%s=%s\n", e.Danish, e.Canonical)
	}
	for _, r := range vocab.Compounds {
		fmt.Fprintf(h, "%s/%d\n", r.Compound, r.Width())
	}
	return h.Sum(nil)
}()

// Key returns the cache key for translating src.
func Key(src []byte, skipLeadingLine bool) string {
	h := blake3.New()
	h.Write(fingerprint)
	if skipLeadingLine {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidKey reports whether key has the shape Key produces.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// store keeps compressed blobs on disk.
type store struct {
	root string
}

func newStore(root string) (*store, error) {
	if err := os.MkdirAll(filepath.Join(root, "blobs", "blake3"), 0755); err != nil {
		return nil, errors.NewIO("create", root, err)
	}
	return &store{root: root}, nil
}

// path returns <root>/blobs/blake3/<first2>/<key>.xz.
func (s *store) path(key string) string {
	return filepath.Join(s.root, "blobs", "blake3", key[:2], key+".xz")
}

func (s *store) get(key string) (string, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFound("cache entry", key)
		}
		return "", errors.NewIO("open", s.path(key), err)
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return "", errors.NewIO("decompress", s.path(key), err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewIO("decompress", s.path(key), err)
	}
	return string(data), nil
}

// put writes the blob atomically. Existing entries are left alone since
// equal keys mean equal content.
func (s *store) put(key, text string) (int64, error) {
	blobPath := s.path(key)
	if info, err := os.Stat(blobPath); err == nil {
		return info.Size(), nil
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return 0, errors.NewIO("compress", key, err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return 0, errors.NewIO("compress", key, err)
	}
	if err := w.Close(); err != nil {
		return 0, errors.NewIO("compress", key, err)
	}

	dir := filepath.Dir(blobPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.NewIO("create", dir, err)
	}
	if err := fileutil.WriteFile(blobPath, buf.Bytes(), 0644); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

// walk calls fn for every blob on disk.
func (s *store) walk(fn func(path string, size int64) error) error {
	root := filepath.Join(s.root, "blobs", "blake3")
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".xz") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(path, info.Size())
	})
}
