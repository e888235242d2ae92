package transcode

import (
	"github.com/FocuswithJustin/dansk/core/token"
	"github.com/FocuswithJustin/dansk/core/vocab"
)

// Substitute rewrites the text of every Name token found in table. Kind and
// positions are kept, other tokens pass through untouched, and the result
// has the same length and order as toks.
func Substitute(toks []token.Token, table vocab.Table) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		if t.Kind == token.Name {
			if canonical, ok := table.Lookup(t.Text); ok {
				t = t.WithText(canonical)
			}
		}
		out[i] = t
	}
	return out
}
