// Package tokenize adapts the participle lexer to Python's token model.
//
// The raw lexer knows nothing about layout; this package adds what Python's
// own tokenizer reports on top of it: NEWLINE versus NL, INDENT and DEDENT
// from an indent stack, the implicit NEWLINE on a final unterminated line,
// and the closing DEDENTs and ENDMARKER. The token stream it returns is what
// the reassembler needs to reproduce the source layout exactly.
package tokenize

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/token"
)

// tabSize is the tab stop used when comparing indentation levels.
const tabSize = 8

// bom is the UTF-8 byte order mark.
var bom = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(src []byte) ([]byte, bool) {
	if bytes.HasPrefix(src, bom) {
		return src[len(bom):], true
	}
	return src, false
}

// Tokenize returns the complete token sequence for src. It fails with a
// *errors.LexicalError when src is not a tokenizable unit.
func Tokenize(src []byte) ([]token.Token, error) {
	return TokenizeFile("", src)
}

// TokenizeFile is Tokenize with a filename for error messages. A leading
// byte order mark is dropped before lexing.
func TokenizeFile(filename string, src []byte) ([]token.Token, error) {
	src, _ = StripBOM(src)
	if !utf8.Valid(src) {
		line, col := invalidUTF8Pos(src)
		return nil, &errors.LexicalError{Filename: filename, Line: line, Col: col, Message: "invalid UTF-8 in source"}
	}

	text := string(src)
	lex, err := pyLexer.LexString(filename, text)
	if err != nil {
		return nil, &errors.LexicalError{Filename: filename, Message: err.Error(), Err: err}
	}

	s := &layout{
		filename:    filename,
		lines:       strings.SplitAfter(text, "\n"),
		indents:     []int{0},
		atLineStart: true,
	}
	if err := s.run(lex); err != nil {
		return nil, err
	}
	s.finish()
	return s.out, nil
}

// layout turns raw lexer tokens into Python tokens.
type layout struct {
	filename    string
	lines       []string
	out         []token.Token
	indents     []int
	depth       int
	continued   bool
	atLineStart bool
	pending     *lexer.Token
}

func (s *layout) next(lex lexer.Lexer) (lexer.Token, error) {
	if s.pending != nil {
		t := *s.pending
		s.pending = nil
		return t, nil
	}
	return lex.Next()
}

func (s *layout) unread(t lexer.Token) {
	s.pending = &t
}

func (s *layout) run(lex lexer.Lexer) error {
	for {
		raw, err := s.next(lex)
		if err != nil {
			return s.lexError(err)
		}

		if s.atLineStart {
			if s.depth > 0 || s.continued {
				if raw.EOF() {
					return s.errorAt(raw.Pos.Line, 0, "EOF in multi-line statement")
				}
				s.continued = false
				s.atLineStart = false
			} else {
				done, err := s.lineStart(lex, raw)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
				continue
			}
		}

		if raw.EOF() {
			if s.depth > 0 {
				return s.errorAt(raw.Pos.Line, 0, "EOF in multi-line statement")
			}
			return nil
		}
		if err := s.token(raw); err != nil {
			return err
		}
	}
}

// lineStart handles the first raw token of a logical line: blank and
// comment-only lines become NL, anything else is measured against the indent
// stack. It reports done when the input ends.
func (s *layout) lineStart(lex lexer.Lexer, raw lexer.Token) (bool, error) {
	indent := ""
	if raw.Type == symWhitespace {
		indent = raw.Value
		next, err := s.next(lex)
		if err != nil {
			return false, s.lexError(err)
		}
		raw = next
	}
	if raw.EOF() {
		return true, nil
	}

	line := raw.Pos.Line
	pos := utf8.RuneCountInString(indent)

	switch raw.Type {
	case symComment:
		s.emit(token.Comment, raw)
		next, err := s.next(lex)
		if err != nil {
			return false, s.lexError(err)
		}
		end := token.Pos{Line: line, Col: pos + utf8.RuneCountInString(raw.Value)}
		if next.EOF() {
			s.out = append(s.out, token.Token{Kind: token.NL, Start: end, End: end, Line: s.lineText(line, line)})
			return true, nil
		}
		if next.Type != symNewline {
			s.unread(next)
			return false, nil
		}
		s.emit(token.NL, next)
		return false, nil
	case symNewline:
		s.emit(token.NL, raw)
		return false, nil
	}

	column := measure(indent)
	if column > s.indents[len(s.indents)-1] {
		s.indents = append(s.indents, column)
		s.out = append(s.out, token.Token{
			Kind:  token.Indent,
			Text:  indent,
			Start: token.Pos{Line: line, Col: 0},
			End:   token.Pos{Line: line, Col: pos},
			Line:  s.lineText(line, line),
		})
	}
	for column < s.indents[len(s.indents)-1] {
		if !containsLevel(s.indents, column) {
			return false, s.errorAt(line, pos, "unindent does not match any outer indentation level")
		}
		s.indents = s.indents[:len(s.indents)-1]
		at := token.Pos{Line: line, Col: pos}
		s.out = append(s.out, token.Token{Kind: token.Dedent, Start: at, End: at, Line: s.lineText(line, line)})
	}

	s.atLineStart = false
	return false, s.token(raw)
}

// token handles a raw token in the middle of a line.
func (s *layout) token(raw lexer.Token) error {
	switch raw.Type {
	case symWhitespace:
	case symComment:
		s.emit(token.Comment, raw)
	case symNewline:
		if s.depth > 0 {
			s.emit(token.NL, raw)
		} else {
			s.emit(token.Newline, raw)
		}
		s.atLineStart = true
	case symContinuation:
		s.continued = true
		s.atLineStart = true
	case symName:
		s.emit(token.Name, raw)
	case symNumber:
		s.emit(token.Number, raw)
	case symString, symLongString:
		s.emit(token.String, raw)
	case symOpenString:
		return s.errorAt(raw.Pos.Line, raw.Pos.Column-1, "unterminated string literal")
	case symOpenLong:
		return s.errorAt(raw.Pos.Line, raw.Pos.Column-1, "unterminated triple-quoted string literal")
	case symOp:
		switch raw.Value {
		case "(", "[", "{":
			s.depth++
		case ")", "]", "}":
			if s.depth == 0 {
				return s.errorAt(raw.Pos.Line, raw.Pos.Column-1, fmt.Sprintf("unmatched '%s'", raw.Value))
			}
			s.depth--
		}
		s.emit(token.Op, raw)
	default:
		return s.errorAt(raw.Pos.Line, raw.Pos.Column-1, fmt.Sprintf("unexpected token %q", raw.Value))
	}
	return nil
}

// finish appends the implicit NEWLINE, the closing DEDENTs and ENDMARKER.
func (s *layout) finish() {
	last := s.lines[len(s.lines)-1]
	rows := len(s.lines)
	if last == "" {
		rows--
	} else if !strings.HasPrefix(strings.TrimSpace(last), "#") {
		n := utf8.RuneCountInString(last)
		s.out = append(s.out, token.Token{
			Kind:  token.Newline,
			Start: token.Pos{Line: rows, Col: n},
			End:   token.Pos{Line: rows, Col: n + 1},
		})
	}

	end := token.Pos{Line: rows + 1, Col: 0}
	for range s.indents[1:] {
		s.out = append(s.out, token.Token{Kind: token.Dedent, Start: end, End: end})
	}
	s.out = append(s.out, token.Token{Kind: token.EndMarker, Start: end, End: end})
}

func (s *layout) emit(kind token.Kind, raw lexer.Token) {
	start := token.Pos{Line: raw.Pos.Line, Col: raw.Pos.Column - 1}
	end := advance(start, raw.Value)
	if kind == token.Newline || kind == token.NL {
		// Line breaks end on their own row; the next row starts at column 0.
		end = token.Pos{Line: start.Line, Col: start.Col + utf8.RuneCountInString(raw.Value)}
	}
	s.out = append(s.out, token.Token{
		Kind:  kind,
		Text:  raw.Value,
		Start: start,
		End:   end,
		Line:  s.lineText(start.Line, end.Line),
	})
}

// lineText returns the physical lines from..to, 1-based and inclusive.
func (s *layout) lineText(from, to int) string {
	if from < 1 || from > len(s.lines) {
		return ""
	}
	if to > len(s.lines) {
		to = len(s.lines)
	}
	if from == to {
		return s.lines[from-1]
	}
	return strings.Join(s.lines[from-1:to], "")
}

func (s *layout) errorAt(line, col int, msg string) error {
	return &errors.LexicalError{Filename: s.filename, Line: line, Col: col, Message: msg}
}

func (s *layout) lexError(err error) error {
	lexErr, ok := err.(*lexer.Error)
	if !ok {
		return &errors.LexicalError{Filename: s.filename, Message: err.Error(), Err: err}
	}
	line := lexErr.Pos.Line
	msg := "invalid character"
	if line >= 1 && line <= len(s.lines) {
		rest := []rune(s.lines[line-1])
		if col := lexErr.Pos.Column - 1; col >= 0 && col < len(rest) {
			if rest[col] == '\\' {
				msg = "unexpected character after line continuation character"
			} else {
				msg = fmt.Sprintf("invalid character %q (U+%04X)", rest[col], rest[col])
			}
		}
	}
	return &errors.LexicalError{
		Filename: s.filename,
		Line:     line,
		Col:      lexErr.Pos.Column - 1,
		Message:  msg,
		Err:      err,
	}
}

// advance returns the position just past text when it starts at p.
func advance(p token.Pos, text string) token.Pos {
	if nl := strings.Count(text, "\n"); nl > 0 {
		return token.Pos{
			Line: p.Line + nl,
			Col:  utf8.RuneCountInString(text[strings.LastIndex(text, "\n")+1:]),
		}
	}
	return token.Pos{Line: p.Line, Col: p.Col + utf8.RuneCountInString(text)}
}

// measure returns the indentation column of ws with tabs expanded.
func measure(ws string) int {
	col := 0
	for _, r := range ws {
		switch r {
		case ' ':
			col++
		case '\t':
			col = (col/tabSize + 1) * tabSize
		case '\f':
			col = 0
		}
	}
	return col
}

func containsLevel(levels []int, col int) bool {
	for _, l := range levels {
		if l == col {
			return true
		}
	}
	return false
}

// invalidUTF8Pos locates the first invalid byte as a 1-based line and a
// 0-based rune column.
func invalidUTF8Pos(src []byte) (int, int) {
	line, col := 1, 0
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError && size <= 1 {
			return line, col
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
		src = src[size:]
	}
	return line, col
}
