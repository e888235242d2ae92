// Package validation checks the paths, names and payloads that reach the
// decoder from the command line and the streaming server, so oversized or
// binary input is refused before it is buffered.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits that keep a single decode session bounded (CWE-400).
const (
	// MaxSourceSize is the largest source accepted in one session (16 MB).
	MaxSourceSize = 16 << 20
	// MaxNameLength is the longest source name recorded or logged.
	MaxNameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrSameFile         = errors.New("output would overwrite input")
	ErrTooLarge         = errors.New("source too large")
	ErrBinary           = errors.New("input is not source text")
	ErrInvalidOrigin    = errors.New("invalid origin pattern")
)

// Stdin is the path that means standard input or output.
const Stdin = "-"

// ValidatePath rejects empty, overlong and control-character paths. The
// stdin marker "-" is always valid.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if path == Stdin {
		return nil
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateOutput checks out and refuses to let it name the same file as in.
func ValidateOutput(in, out string) error {
	if err := ValidatePath(out); err != nil {
		return err
	}
	if in == Stdin || out == Stdin {
		return nil
	}
	absIn, err := filepath.Abs(in)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("failed to resolve output: %w", err)
	}
	if absIn == absOut {
		return fmt.Errorf("%w: %s", ErrSameFile, out)
	}
	return nil
}

// CheckSize reports whether buffering n more bytes on top of held stays
// within max. A max of zero or less means MaxSourceSize.
func CheckSize(held, n, max int) error {
	if max <= 0 {
		max = MaxSourceSize
	}
	if held+n > max {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, held+n, max)
	}
	return nil
}

// magicBytes are signatures of files people pipe in by mistake.
var magicBytes = []struct {
	kind  string
	magic []byte
}{
	{"gzip", []byte{0x1f, 0x8b}},
	{"xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{"zip", []byte{0x50, 0x4b, 0x03, 0x04}},
	{"sqlite", []byte("SQLite format 3")},
}

// CheckSource rejects buffers that are recognisably binary: a known archive
// or database signature, or a NUL byte in the first 512 bytes. Invalid UTF-8
// is left for the tokenizer, which reports its position.
func CheckSource(buf []byte) error {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return fmt.Errorf("%w: looks like %s", ErrBinary, sig.kind)
		}
	}
	head := buf
	if len(head) > 512 {
		head = head[:512]
	}
	if i := bytes.IndexByte(head, 0); i >= 0 {
		return fmt.Errorf("%w: null byte at offset %d", ErrBinary, i)
	}
	return nil
}

// SanitizeName turns a user-supplied source name into something safe to log
// and store: control characters dropped, invalid UTF-8 replaced, length
// capped. An empty result becomes "<stdin>".
func SanitizeName(name string) string {
	name = strings.ToValidUTF8(strings.TrimSpace(name), "\uFFFD")
	var cleaned strings.Builder
	for _, r := range name {
		if !unicode.IsControl(r) {
			cleaned.WriteRune(r)
		}
	}
	name = cleaned.String()
	if len(name) > MaxNameLength {
		cut := MaxNameLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	if name == "" {
		return "<stdin>"
	}
	return name
}

// ValidateOrigin checks one allowed-origin pattern: "*", "*.example.com"
// or an absolute http(s) origin without a path.
func ValidateOrigin(pattern string) error {
	switch {
	case pattern == "*":
		return nil
	case strings.HasPrefix(pattern, "*."):
		if len(pattern) == 2 || strings.ContainsAny(pattern[2:], "/*:") {
			return fmt.Errorf("%w: %q", ErrInvalidOrigin, pattern)
		}
		return nil
	}
	u, err := url.Parse(pattern)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidOrigin, pattern, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q needs an http or https scheme and host", ErrInvalidOrigin, pattern)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: %q must not have a path", ErrInvalidOrigin, pattern)
	}
	return nil
}
