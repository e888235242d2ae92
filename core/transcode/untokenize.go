package transcode

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/token"
)

// Untokenize renders toks back into source text. Layout comes from token
// positions: the gap between the previous token's end and the next token's
// start becomes whitespace, skipped rows become backslash continuations, and
// the first token of a line gets the current block indentation. Where the
// token still carries its source line, the gap is copied from it so tabs and
// the text before a continuation survive; otherwise it is padded with spaces.
// Rendering stops at ENDMARKER.
//
// Gaps are measured from the recorded end of the previous token, so
// replacement text of a different length never shifts what follows.
func Untokenize(toks []token.Token) (string, error) {
	u := untokenizer{prev: token.Pos{Line: 1}}
	for _, t := range toks {
		if t.Kind == token.EndMarker {
			break
		}
		if err := u.add(t); err != nil {
			return "", err
		}
	}
	return u.out.String(), nil
}

type untokenizer struct {
	out       strings.Builder
	prev      token.Pos
	prevLine  string
	indents   []string
	startLine bool
}

func (u *untokenizer) add(t token.Token) error {
	switch t.Kind {
	case token.Indent:
		u.indents = append(u.indents, t.Text)
		return nil
	case token.Dedent:
		if len(u.indents) > 0 {
			u.indents = u.indents[:len(u.indents)-1]
		}
		u.prev = t.End
		return nil
	case token.Newline, token.NL:
		u.startLine = true
	default:
		if u.startLine {
			u.indent(t)
			u.startLine = false
		}
	}

	if err := u.whitespace(t); err != nil {
		return err
	}
	u.out.WriteString(t.Text)
	u.prev = t.End
	if t.Line != "" {
		u.prevLine = lastPhysical(t.Line)
	}
	if t.Kind == token.Newline || t.Kind == token.NL {
		u.prev = token.Pos{Line: u.prev.Line + 1, Col: 0}
	}
	return nil
}

// indent writes the leading whitespace of the first token on a line.
func (u *untokenizer) indent(t token.Token) {
	if t.Start.Line == u.prev.Line && u.prev.Col == 0 {
		if lead, ok := segment(firstPhysical(t.Line), 0, t.Start.Col); ok {
			u.out.WriteString(lead)
			u.prev.Col = t.Start.Col
			return
		}
	}
	if len(u.indents) == 0 {
		return
	}
	indent := u.indents[len(u.indents)-1]
	if n := utf8.RuneCountInString(indent); t.Start.Col >= n {
		u.out.WriteString(indent)
		u.prev.Col = n
	}
}

func (u *untokenizer) whitespace(t token.Token) error {
	start := t.Start
	if start.Before(u.prev) {
		return &errors.LexicalError{
			Line:    start.Line,
			Col:     start.Col,
			Message: fmt.Sprintf("token starts at %s, before the previous token ends at %s", start, u.prev),
		}
	}
	if rows := start.Line - u.prev.Line; rows > 0 {
		if tail, ok := continuation(u.prevLine, u.prev.Col); ok {
			u.out.WriteString(tail)
			rows--
		}
		u.out.WriteString(strings.Repeat("\\\n", rows))
		u.prev.Col = 0
	}
	if cols := start.Col - u.prev.Col; cols > 0 {
		if gap, ok := segment(firstPhysical(t.Line), u.prev.Col, start.Col); ok {
			u.out.WriteString(gap)
		} else {
			u.out.WriteString(strings.Repeat(" ", cols))
		}
	}
	return nil
}

// segment returns runes [from, to) of line when they are all blanks.
func segment(line string, from, to int) (string, bool) {
	if line == "" || from >= to {
		return "", false
	}
	runes := []rune(line)
	if to > len(runes) {
		return "", false
	}
	for _, r := range runes[from:to] {
		if r != ' ' && r != '\t' && r != '\f' {
			return "", false
		}
	}
	return string(runes[from:to]), true
}

// continuation returns the rest of line from col when it is blanks followed
// by a backslash line continuation.
func continuation(line string, col int) (string, bool) {
	runes := []rune(line)
	if line == "" || col > len(runes) {
		return "", false
	}
	rest := string(runes[col:])
	body := strings.TrimRight(rest, "\r\n")
	if body == rest || !strings.HasSuffix(body, "\\") {
		return "", false
	}
	if strings.TrimLeft(body[:len(body)-1], " \t\f") != "" {
		return "", false
	}
	return rest, true
}

func firstPhysical(lines string) string {
	if i := strings.IndexByte(lines, '\n'); i >= 0 {
		return lines[:i+1]
	}
	return lines
}

func lastPhysical(lines string) string {
	trimmed := strings.TrimSuffix(lines, "\n")
	if i := strings.LastIndexByte(trimmed, '\n'); i >= 0 {
		return lines[i+1:]
	}
	return lines
}
