package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestLexicalError(t *testing.T) {
	tests := []struct {
		name    string
		err     *LexicalError
		wantMsg string
	}{
		{
			name:    "with position",
			err:     &LexicalError{Filename: "fib.py", Line: 3, Col: 4, Message: "unterminated string literal"},
			wantMsg: "fib.py:3:4: unterminated string literal",
		},
		{
			name:    "no filename",
			err:     NewLexical(1, 0, "invalid character"),
			wantMsg: "<source>:1:0: invalid character",
		},
		{
			name:    "no position",
			err:     &LexicalError{Message: "invalid UTF-8"},
			wantMsg: "<source>: invalid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrLexical) {
				t.Errorf("errors.Is(%v, ErrLexical) = false", tt.err)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("lexer: invalid input text")
		err := &LexicalError{Line: 1, Message: "bad", Err: underlyingErr}
		if !errors.Is(err, underlyingErr) {
			t.Error("underlying error not reachable through errors.Is")
		}
		if !errors.Is(err, ErrLexical) {
			t.Error("ErrLexical not reachable when underlying error is set")
		}
	})
}

func TestUnsupportedError(t *testing.T) {
	tests := []struct {
		name     string
		err      *UnsupportedError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with reason",
			err:      &UnsupportedError{Feature: "encode", Reason: "the transform is one-directional"},
			wantMsg:  "unsupported encode: the transform is one-directional",
			wantBase: ErrUnsupported,
		},
		{
			name:     "without reason",
			err:      &UnsupportedError{Feature: "encode"},
			wantMsg:  "unsupported encode",
			wantBase: ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfiguration("codec dansk", "already registered")
	if got, want := err.Error(), "invalid configuration for codec dansk: already registered"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("expected ErrConfiguration")
	}

	bare := &ConfigurationError{Message: "no cache directory"}
	if got, want := bare.Error(), "invalid configuration: no cache directory"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "codec", ID: "klingon"},
			wantMsg:  "codec not found: klingon",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "cache entry"},
			wantMsg:  "cache entry not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "fib.py", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidation("path", "must not be empty")
	if got, want := err.Error(), "validation failed for path: must not be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected ErrInvalidInput")
	}

	bare := &ValidationError{Message: "too large"}
	if got, want := bare.Error(), "validation failed: too large"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     NewIO("read", "/tmp/fib.py", baseErr),
			wantMsg: "failed to read /tmp/fib.py: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: baseErr},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); got != baseErr {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	err := Wrap(ErrLexical, "decode fib.py")
	if err.Error() != "decode fib.py: lexical error" {
		t.Errorf("Wrap() = %q", err.Error())
	}
	if !Is(err, ErrLexical) {
		t.Error("wrapped error lost its sentinel")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "decode %s", "x") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	err := Wrapf(ErrNotFound, "lookup %q", "klingon")
	if err.Error() != `lookup "klingon": not found` {
		t.Errorf("Wrapf() = %q", err.Error())
	}
}

func TestAs(t *testing.T) {
	var err error = Wrap(NewLexical(2, 4, "unindent does not match any outer indentation level"), "decode")
	var lexErr *LexicalError
	if !As(err, &lexErr) {
		t.Fatal("As() failed to find LexicalError")
	}
	if lexErr.Line != 2 || lexErr.Col != 4 {
		t.Errorf("position = %d:%d, want 2:4", lexErr.Line, lexErr.Col)
	}
}
