// Package transcode implements the token passes that turn Danish Python
// into standard Python: compound collapsing, keyword substitution and
// reassembly of the token stream into text.
package transcode

import (
	"github.com/FocuswithJustin/dansk/core/token"
	"github.com/FocuswithJustin/dansk/core/tokenize"
	"github.com/FocuswithJustin/dansk/core/vocab"
)

// Pipeline bundles the vocabulary used by the passes. The zero value is not
// usable; use Default or New.
type Pipeline struct {
	Table     vocab.Table
	Compounds []vocab.CompoundRule
}

// Default is the pipeline over the built-in Danish vocabulary.
var Default = New(vocab.Default, vocab.Compounds)

// New returns a pipeline over the given vocabulary.
func New(table vocab.Table, compounds []vocab.CompoundRule) *Pipeline {
	return &Pipeline{Table: table, Compounds: compounds}
}

// Stats describes what one run of the pipeline did.
type Stats struct {
	RawTokens     int
	Compounds     int
	Substitutions int
}

// Tokens runs tokenize, collapse and substitute over src and returns the
// final token sequence.
func (p *Pipeline) Tokens(filename string, src []byte) ([]token.Token, Stats, error) {
	raw, err := tokenize.TokenizeFile(filename, src)
	if err != nil {
		return nil, Stats{}, err
	}
	collapsed, merged := collapse(raw, p.Compounds)
	out := Substitute(collapsed, p.Table)

	st := Stats{RawTokens: len(raw), Compounds: merged}
	for i := range out {
		if out[i].Text != collapsed[i].Text {
			st.Substitutions++
		}
	}
	return out, st, nil
}

// Translate runs the whole pipeline over src and returns the rendered text.
// A leading byte order mark is kept in front of the output.
func (p *Pipeline) Translate(filename string, src []byte) (string, Stats, error) {
	src, hadBOM := tokenize.StripBOM(src)
	toks, st, err := p.Tokens(filename, src)
	if err != nil {
		return "", Stats{}, err
	}
	text, err := Untokenize(toks)
	if err != nil {
		return "", Stats{}, err
	}
	if hadBOM {
		text = "\ufeff" + text
	}
	return text, st, nil
}

// Translate runs the default pipeline over src.
func Translate(src []byte) (string, error) {
	text, _, err := Default.Translate("", src)
	return text, err
}
