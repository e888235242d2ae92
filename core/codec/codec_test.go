package codec

import (
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/FocuswithJustin/dansk/core/errors"
)

const fibSource = "# coding=dansk\n\nlad fib(n):\n    hvis n indeni (0, 1):\n        aflever n\n    ellers:\n        aflever fib(n - 1) + fib(n - 2)\n"

const fibPython = "\ndef fib(n):\n    if n in (0, 1):\n        return n\n    else:\n        return fib(n - 1) + fib(n - 2)\n"

func TestDecoderStreaming(t *testing.T) {
	d := NewDecoder(Options{})
	chunks := []string{"hvis n indeni (0,", " 1):\n    afl", "ever n\n"}

	for i, c := range chunks {
		text, n, err := d.Decode([]byte(c), false)
		if err != nil {
			t.Fatalf("chunk %d: unexpected error: %v", i, err)
		}
		if text != "" || n != 0 {
			t.Errorf("chunk %d: got (%q, %d), want nothing before final", i, text, n)
		}
		if d.State() != Accumulating {
			t.Errorf("chunk %d: state = %s, want accumulating", i, d.State())
		}
	}
	total := len(strings.Join(chunks, ""))
	if d.Buffered() != total {
		t.Errorf("Buffered() = %d, want %d", d.Buffered(), total)
	}

	text, n, err := d.Decode(nil, true)
	if err != nil {
		t.Fatalf("final: unexpected error: %v", err)
	}
	if want := "if n in (0, 1):\n    return n\n"; text != want {
		t.Errorf("final text = %q, want %q", text, want)
	}
	if n != total {
		t.Errorf("consumed = %d, want %d", n, total)
	}
	if d.State() != Done {
		t.Errorf("state = %s, want done", d.State())
	}
	if d.Stats().Substitutions != 3 {
		t.Errorf("Substitutions = %d, want 3", d.Stats().Substitutions)
	}
}

func TestDecoderOpenBracketAcrossChunks(t *testing.T) {
	d := NewDecoder(Options{})
	// The first chunk alone would be an unterminated statement.
	if _, _, err := d.Decode([]byte("x = (1,\n"), false); err != nil {
		t.Fatalf("non-final chunk failed: %v", err)
	}
	text, _, err := d.Decode([]byte("     2)\n"), true)
	if err != nil {
		t.Fatalf("final chunk failed: %v", err)
	}
	if want := "x = (1,\n     2)\n"; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestDecoderFreshSessionAfterDone(t *testing.T) {
	d := NewDecoder(Options{})
	if _, _, err := d.Decode([]byte("fisk\n"), true); err != nil {
		t.Fatalf("first session: %v", err)
	}
	text, n, err := d.Decode([]byte("brud\n"), true)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if text != "break\n" || n != 5 {
		t.Errorf("second session = (%q, %d), want (%q, 5)", text, n, "break\n")
	}
}

func TestDecoderErrorDiscardsBuffer(t *testing.T) {
	d := NewDecoder(Options{Filename: "fejl.py"})
	d.Decode([]byte("x = (1,\n"), false)
	text, n, err := d.Decode(nil, true)
	if err == nil {
		t.Fatal("expected a lexical error for an unclosed bracket")
	}
	if !stderrors.Is(err, errors.ErrLexical) {
		t.Errorf("error %v does not match ErrLexical", err)
	}
	if !strings.HasPrefix(err.Error(), "fejl.py:") {
		t.Errorf("error %q does not name the file", err)
	}
	if text != "" || n != 0 {
		t.Errorf("failed decode returned (%q, %d)", text, n)
	}
	if d.State() != Done || d.Buffered() != 0 {
		t.Errorf("after failure: state %s, %d bytes buffered", d.State(), d.Buffered())
	}

	text, _, err = d.Decode([]byte("fisk\n"), true)
	if err != nil || text != "pass\n" {
		t.Errorf("next session = (%q, %v), want (%q, nil)", text, err, "pass\n")
	}
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder(Options{})
	d.Decode([]byte("hvis (\n"), false)
	d.Reset()
	if d.State() != Accumulating || d.Buffered() != 0 {
		t.Fatalf("after Reset: state %s, %d bytes buffered", d.State(), d.Buffered())
	}
	text, _, err := d.Decode([]byte("Sand\n"), true)
	if err != nil || text != "True\n" {
		t.Errorf("Decode after Reset = (%q, %v)", text, err)
	}
}

func TestDecoderSkipLeadingLine(t *testing.T) {
	d := NewDecoder(Options{SkipLeadingLine: true})
	text, n, err := d.Decode([]byte(fibSource), true)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if text != fibPython {
		t.Errorf("text = %q, want %q", text, fibPython)
	}
	if n != len(fibSource) {
		t.Errorf("consumed = %d, want %d", n, len(fibSource))
	}
}

func TestDecoderBOM(t *testing.T) {
	text, n, err := Decode([]byte("\xEF\xBB\xBFfisk\n"), true, false)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if text != "\ufeffpass\n" || n != 8 {
		t.Errorf("Decode = (%q, %d), want (%q, 8)", text, n, "\ufeffpass\n")
	}
}

func TestDecode(t *testing.T) {
	text, n, err := Decode([]byte("fisk\n"), false, false)
	if err != nil || text != "" || n != 0 {
		t.Errorf("Decode(final=false) = (%q, %d, %v), want nothing", text, n, err)
	}

	text, n, err = Decode([]byte(fibSource), true, true)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if text != fibPython || n != len(fibSource) {
		t.Errorf("Decode = (%q, %d)", text, n)
	}

	text, _, err = Decode([]byte("# coding=dansk\nfisk\n"), true, false)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if want := "# coding=dansk\npass\n"; text != want {
		t.Errorf("Decode without skip = %q, want %q", text, want)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	for _, text := range []string{"", "if x:\n    pass\n"} {
		out, n, err := Encode(text)
		if !stderrors.Is(err, errors.ErrUnsupported) {
			t.Errorf("Encode(%q) error = %v, want ErrUnsupported", text, err)
		}
		var unsupported *errors.UnsupportedError
		if !stderrors.As(err, &unsupported) || unsupported.Feature != "encode" {
			t.Errorf("Encode(%q) error = %#v", text, err)
		}
		if out != nil || n != 0 {
			t.Errorf("Encode(%q) returned output", text)
		}
	}
}

func TestReadAll(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader(fibSource))
	text, n, err := ReadAll(NewDecoder(Options{SkipLeadingLine: true}), r)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if text != fibPython || n != len(fibSource) {
		t.Errorf("ReadAll = (%q, %d)", text, n)
	}
}

func TestReadAllReadError(t *testing.T) {
	d := NewDecoder(Options{})
	_, _, err := ReadAll(d, iotest.ErrReader(stderrors.New("disk væk")))
	var ioErr *errors.IOError
	if !stderrors.As(err, &ioErr) {
		t.Fatalf("ReadAll error = %v, want *IOError", err)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d after read error", d.Buffered())
	}
}

func TestDeclaration(t *testing.T) {
	tests := []struct {
		src  string
		line int
		name string
		ok   bool
	}{
		{"# coding=dansk\nfisk\n", 0, "dansk", true},
		{"# -*- coding: dansk -*-\n", 0, "dansk", true},
		{"#!/usr/bin/env python\n# coding=dansk\n", 1, "dansk", true},
		{"\n# vim: set fileencoding=utf-8 :\n", 1, "utf-8", true},
		{"\xEF\xBB\xBF# coding=dansk\n", 0, "dansk", true},
		{"import os\n# coding=dansk\n", 0, "", false},
		{"\n\n# coding=dansk\n", 0, "", false},
		{"", 0, "", false},
		{"x = 1  # coding=dansk\n", 0, "", false},
	}
	for _, tt := range tests {
		line, name, ok := Declaration([]byte(tt.src))
		if line != tt.line || name != tt.name || ok != tt.ok {
			t.Errorf("Declaration(%q) = (%d, %q, %v), want (%d, %q, %v)",
				tt.src, line, name, ok, tt.line, tt.name, tt.ok)
		}
	}
}

func TestRegisterIdempotent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := Register(); err != nil {
				t.Errorf("Register() error: %v", err)
			}
		}()
	}
	wg.Wait()
	if err := Register(); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	for _, name := range []string{"dansk", "DANSK", " Dansk "} {
		c, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", name, err)
			continue
		}
		if c != Dansk {
			t.Errorf("Lookup(%q) returned %q", name, c.Name)
		}
	}

	text, _, err := Dansk.NewDecoder().Decode([]byte("yd x\n"), true)
	if err != nil || text != "yield x\n" {
		t.Errorf("registered decoder = (%q, %v)", text, err)
	}
}

// withEmptyRegistry gives the test a registry of its own.
func withEmptyRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = make(map[string]*Codec)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

func TestRegisterAfterRegisterCodec(t *testing.T) {
	withEmptyRegistry(t)

	if err := RegisterCodec(Dansk); err != nil {
		t.Fatalf("RegisterCodec(Dansk) error: %v", err)
	}
	if err := Register(); err != nil {
		t.Fatalf("Register() after RegisterCodec(Dansk) error: %v", err)
	}
	if c, err := Lookup("dansk"); err != nil || c != Dansk {
		t.Errorf("Lookup(dansk) = %v, %v", c, err)
	}
}

func TestRegisterNameTaken(t *testing.T) {
	withEmptyRegistry(t)

	other := &Codec{Name: "DANSK", Encode: Encode, Decode: Dansk.Decode, NewDecoder: Dansk.NewDecoder}
	if err := RegisterCodec(other); err != nil {
		t.Fatalf("RegisterCodec error: %v", err)
	}
	if err := Register(); !stderrors.Is(err, errors.ErrConfiguration) {
		t.Errorf("Register() error = %v, want ErrConfiguration", err)
	}
	if c, _ := Lookup("dansk"); c != other {
		t.Error("Register replaced the codec holding the name")
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("svensk")
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("Lookup error = %v, want ErrNotFound", err)
	}
}

func TestRegisterCodec(t *testing.T) {
	c := &Codec{
		Name:       "Test-Codec One",
		Encode:     Encode,
		Decode:     Dansk.Decode,
		NewDecoder: Dansk.NewDecoder,
	}
	if err := RegisterCodec(c); err != nil {
		t.Fatalf("RegisterCodec error: %v", err)
	}
	if got, err := Lookup("test_codec_one"); err != nil || got != c {
		t.Errorf("Lookup(test_codec_one) = %v, %v", got, err)
	}

	dup := *c
	dup.Name = "TEST CODEC ONE"
	if err := RegisterCodec(&dup); !stderrors.Is(err, errors.ErrConfiguration) {
		t.Errorf("duplicate RegisterCodec error = %v, want ErrConfiguration", err)
	}

	bad := []*Codec{
		nil,
		{Name: "  ", Decode: Dansk.Decode, NewDecoder: Dansk.NewDecoder},
		{Name: "uden-dekoder"},
	}
	for _, b := range bad {
		if err := RegisterCodec(b); !stderrors.Is(err, errors.ErrConfiguration) {
			t.Errorf("RegisterCodec(%v) error = %v, want ErrConfiguration", b, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"dansk":       "dansk",
		"UTF-8":       "utf_8",
		"  latin 1  ": "latin_1",
		"iso--8859.1": "iso_8859.1",
		"---":         "",
	}
	for in, want := range tests {
		if got := normalize(in); got != want {
			t.Errorf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
