package transcode

import (
	"github.com/FocuswithJustin/dansk/core/token"
	"github.com/FocuswithJustin/dansk/core/vocab"
)

// Collapse merges every run of tokens matching a compound rule into one
// synthetic Name token carrying the rule's compound spelling. The synthetic
// token takes both its start and its end from the first matched token; the
// reassembler derives the following gap from the next token's start.
//
// The scan is a single left-to-right pass. At each index the rules are tried
// in order and the first match wins; matched tokens are never rescanned.
// Tokens past the last index where a rule window fits are appended as they
// are, so no token is dropped or duplicated whatever the rule widths.
func Collapse(toks []token.Token, rules []vocab.CompoundRule) []token.Token {
	out, _ := collapse(toks, rules)
	return out
}

// collapse is Collapse that also reports the number of merged runs.
func collapse(toks []token.Token, rules []vocab.CompoundRule) ([]token.Token, int) {
	minWidth := 0
	for _, r := range rules {
		if w := r.Width(); w > 0 && (minWidth == 0 || w < minWidth) {
			minWidth = w
		}
	}
	if minWidth == 0 || len(toks) < minWidth {
		return toks, 0
	}

	out := make([]token.Token, 0, len(toks))
	merged := 0
	i := 0
	for i+minWidth <= len(toks) {
		rule, ok := matchAt(toks, i, rules)
		if !ok {
			out = append(out, toks[i])
			i++
			continue
		}
		first := toks[i]
		out = append(out, token.Token{
			Kind:  token.Name,
			Text:  rule.Compound,
			Start: first.Start,
			End:   first.End,
			Line:  first.Line,
		})
		i += rule.Width()
		merged++
	}
	return append(out, toks[i:]...), merged
}

func matchAt(toks []token.Token, i int, rules []vocab.CompoundRule) (vocab.CompoundRule, bool) {
	for _, r := range rules {
		if r.Width() > 0 && r.Match(toks, i) {
			return r, true
		}
	}
	return vocab.CompoundRule{}, false
}
