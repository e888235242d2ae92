// Package token defines the token model shared by the tokenizer, the
// compound and substitution passes, and the reassembler.
package token

import "fmt"

// Kind is the lexical category of a token.
type Kind uint8

const (
	// EndMarker terminates every token stream.
	EndMarker Kind = iota
	// Name is an identifier or keyword.
	Name
	// Number is a numeric literal.
	Number
	// String is a string or bytes literal, prefix and quotes included.
	String
	// Op is an operator or delimiter.
	Op
	// Comment is a '#' comment without its line break.
	Comment
	// Newline ends a logical line.
	Newline
	// NL is a line break that does not end a logical line: blank lines,
	// comment-only lines and breaks inside brackets.
	NL
	// Indent opens a block; its text is the new indentation.
	Indent
	// Dedent closes a block; its text is empty.
	Dedent
)

var kindNames = [...]string{
	EndMarker: "ENDMARKER",
	Name:      "NAME",
	Number:    "NUMBER",
	String:    "STRING",
	Op:        "OP",
	Comment:   "COMMENT",
	Newline:   "NEWLINE",
	NL:        "NL",
	Indent:    "INDENT",
	Dedent:    "DEDENT",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Pos is a token boundary. Line is 1-based; Col is a 0-based rune offset
// within the physical line.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Before reports whether p comes strictly before q.
func (p Pos) Before(q Pos) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Col < q.Col)
}

// Token is an immutable lexical unit. Line holds the physical source
// line(s) the token was read from and is informational only.
type Token struct {
	Kind  Kind
	Text  string
	Start Pos
	End   Pos
	Line  string
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// WithText returns a copy of t carrying different text.
func (t Token) WithText(text string) Token {
	t.Text = text
	return t
}

func (t Token) String() string {
	return fmt.Sprintf("%s-%s %s %q", t.Start, t.End, t.Kind, t.Text)
}
