// Package verify parses translated output with gpython to catch Danish
// source that tokenizes cleanly but is not valid Python.
//
// gpython implements the Python 3.4 grammar, so newer syntax (f-strings,
// assignment expressions, match statements) is reported as a syntax error
// even though a current interpreter would accept it. Callers treat a
// failure as a warning, never as a reason to withhold the translation.
package verify

import (
	"fmt"
	"strings"

	"github.com/go-python/gpython/parser"
	"github.com/go-python/gpython/py"

	"github.com/FocuswithJustin/dansk/core/errors"
)

// SyntaxError is a parse failure in translated output.
type SyntaxError struct {
	Filename string
	Line     int
	Offset   int
	Message  string
	Text     string
}

func (e *SyntaxError) Error() string {
	name := e.Filename
	if name == "" {
		name = "<translated>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", name, e.Line, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", name, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return errors.ErrInvalidInput
}

// Check parses src as a Python module.
func Check(src, filename string) error {
	if filename == "" {
		filename = "<translated>"
	}
	_, err := parser.Parse(strings.NewReader(src), filename, py.ExecMode)
	if err == nil {
		return nil
	}
	return syntaxError(err, filename)
}

func syntaxError(err error, filename string) *SyntaxError {
	se := &SyntaxError{Filename: filename, Message: err.Error()}
	exc, ok := err.(*py.Exception)
	if !ok {
		return se
	}
	if args, ok := exc.Args.(py.Tuple); ok && len(args) > 0 {
		if msg, ok := args[0].(py.String); ok {
			se.Message = string(msg)
		}
	}
	if v, ok := exc.Dict["lineno"].(py.Int); ok {
		se.Line = int(v)
	}
	if v, ok := exc.Dict["offset"].(py.Int); ok {
		se.Offset = int(v)
	}
	if v, ok := exc.Dict["line"].(py.String); ok {
		se.Text = strings.TrimRight(string(v), "\r\n")
	}
	return se
}
