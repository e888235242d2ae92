// Package codec exposes the Danish transcoder the way a host runtime expects
// a source encoding: a one-shot Decode, an incremental Decoder that only
// translates once it has seen the final chunk, an Encode that always fails,
// and a small registry keyed by normalized codec name.
package codec

import (
	"bytes"
	"regexp"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/tokenize"
)

// Name is the registered name of the Danish codec.
const Name = "dansk"

// Codec describes one source encoding.
type Codec struct {
	Name string
	// Encode converts canonical text back into the encoding.
	Encode func(text string) ([]byte, int, error)
	// Decode translates a complete buffer that still starts with its
	// coding declaration.
	Decode func(src []byte) (string, int, error)
	// NewDecoder returns a streaming decoder for input whose coding
	// declaration has already been consumed.
	NewDecoder func() IncrementalDecoder
}

// Dansk is the Danish codec.
var Dansk = &Codec{
	Name:   Name,
	Encode: Encode,
	Decode: func(src []byte) (string, int, error) {
		return Decode(src, true, true)
	},
	NewDecoder: func() IncrementalDecoder {
		return NewDecoder(Options{})
	},
}

// Decode translates src in one call. When final is false nothing has been
// consumed yet and ("", 0, nil) is returned. skipLeadingLine drops the
// first physical line, which normally holds the coding declaration.
func Decode(src []byte, final, skipLeadingLine bool) (string, int, error) {
	if !final {
		return "", 0, nil
	}
	return NewDecoder(Options{SkipLeadingLine: skipLeadingLine}).Decode(src, true)
}

// Encode always fails: Python source cannot be turned back into Danish
// without losing the distinction between keywords that were written in
// English to begin with.
func Encode(string) ([]byte, int, error) {
	return nil, 0, errors.NewUnsupported("encode", "the dansk codec only decodes")
}

var codingRe = regexp.MustCompile(`^[ \t\f]*#.*?coding[:=][ \t]*([-\w.]+)`)
var blankRe = regexp.MustCompile(`^[ \t\f]*(?:[#\r\n]|$)`)

// Declaration looks for a coding declaration in the first two lines of src.
// It returns the 0-based line index and the declared codec name. The second
// line is only considered when the first is blank or a comment.
func Declaration(src []byte) (int, string, bool) {
	src, _ = tokenize.StripBOM(src)
	for i := 0; i < 2 && len(src) > 0; i++ {
		line, rest, _ := bytes.Cut(src, []byte("\n"))
		if m := codingRe.FindSubmatch(line); m != nil {
			return i, string(m[1]), true
		}
		if !blankRe.Match(line) {
			break
		}
		src = rest
	}
	return 0, "", false
}
