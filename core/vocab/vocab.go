// Package vocab holds the Danish keyword vocabulary: the translation table
// from Danish spellings to Python keywords and the compound rules that
// glue multi-token Danish keywords back together.
//
// All values are built once at package initialization and never mutated,
// so they may be shared freely between concurrent decode sessions.
package vocab

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FocuswithJustin/dansk/core/token"
)

// Entry is a single row of the translation table.
type Entry struct {
	Danish    string
	Canonical string
}

// entries is the vocabulary in Python keyword order.
var entries = []Entry{
	{"Falsk", "False"},
	{"Intet", "None"},
	{"Sand", "True"},
	{"og", "and"},
	{"som", "as"},
	// ForventningsFejl reads best as an exception name, hence forvent.
	{"forvent", "assert"},
	{"asynkron", "async"},
	{"afvent", "await"},
	{"brud", "break"},
	{"klasse", "class"},
	{"fortsæt", "continue"},
	{"lad", "def"},
	{"slet", "del"},
	{"elhvis", "elif"},
	{"ellers", "else"},
	{"pånær", "except"},
	{"slutteligt", "finally"},
	{"for-hver", "for"},
	{"fra", "from"},
	{"altomfattende", "global"},
	{"hvis", "if"},
	{"indfør", "import"},
	// indeni rather than i, so that i stays usable as a variable.
	{"indeni", "in"},
	{"er", "is"},
	{"λ", "lambda"},
	{"omfattende", "nonlocal"},
	{"ikke", "not"},
	{"eller", "or"},
	{"fisk", "pass"},
	{"hejs", "raise"},
	{"aflever", "return"},
	{"forsøg", "try"},
	{"medens", "while"},
	{"brug", "with"},
	{"yd", "yield"},
}

// Table maps Danish spellings to canonical Python spellings.
type Table map[string]string

// Lookup returns the canonical spelling for word.
func (t Table) Lookup(word string) (string, bool) {
	c, ok := t[word]
	return c, ok
}

// Default is the process-wide translation table.
var Default = func() Table {
	t := make(Table, len(entries))
	for _, e := range entries {
		t[e.Danish] = e.Canonical
	}
	return t
}()

// Entries returns a copy of the vocabulary sorted by canonical keyword.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Canonical < out[j].Canonical
	})
	return out
}

// Reverse returns the Danish spelling of a canonical keyword. It exists for
// listings and suggestions; the decoder never translates in this direction.
func Reverse(canonical string) (string, bool) {
	for _, e := range entries {
		if e.Canonical == canonical {
			return e.Danish, true
		}
	}
	return "", false
}

// Slot is one position of a compound rule window.
type Slot struct {
	Kind token.Kind
	Text string
}

// CompoundRule describes a run of tokens that the lexer splits apart but
// that reads as one Danish keyword.
type CompoundRule struct {
	Window   []Slot
	Compound string
}

// Width is the number of tokens the rule consumes.
func (r CompoundRule) Width() int {
	return len(r.Window)
}

// Match reports whether the rule matches toks starting at index i.
func (r CompoundRule) Match(toks []token.Token, i int) bool {
	if i < 0 || i+len(r.Window) > len(toks) {
		return false
	}
	for j, slot := range r.Window {
		if !toks[i+j].Is(slot.Kind, slot.Text) {
			return false
		}
	}
	return true
}

// hyphenated builds the rule for a word the lexer reads as NAME '-' NAME.
func hyphenated(left, right, compound string) CompoundRule {
	return CompoundRule{
		Window: []Slot{
			{token.Name, left},
			{token.Op, "-"},
			{token.Name, right},
		},
		Compound: compound,
	}
}

// Compounds lists the compound rules in priority order.
var Compounds = []CompoundRule{
	hyphenated("ellers", "hvis", "elhvis"),
	hyphenated("for", "hver", "for-hver"),
}

// Suggest returns Danish keywords close to word, best match first. It backs
// "did you mean" hints in the command line tools.
func Suggest(word string) []string {
	danish := make([]string, len(entries))
	for i, e := range entries {
		danish[i] = e.Danish
	}
	ranks := fuzzy.RankFindNormalizedFold(word, danish)
	sort.Sort(ranks)
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}
