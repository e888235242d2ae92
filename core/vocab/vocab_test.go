package vocab

import (
	"testing"

	"github.com/FocuswithJustin/dansk/core/token"
)

func TestDefaultTable(t *testing.T) {
	tests := []struct {
		danish    string
		canonical string
	}{
		{"hvis", "if"},
		{"indeni", "in"},
		{"aflever", "return"},
		{"elhvis", "elif"},
		{"for-hver", "for"},
		{"λ", "lambda"},
		{"fortsæt", "continue"},
		{"Intet", "None"},
	}
	for _, tt := range tests {
		got, ok := Default.Lookup(tt.danish)
		if !ok {
			t.Errorf("Lookup(%q) missing", tt.danish)
			continue
		}
		if got != tt.canonical {
			t.Errorf("Lookup(%q) = %q, want %q", tt.danish, got, tt.canonical)
		}
	}

	if _, ok := Default.Lookup("i"); ok {
		t.Error("single letter i must stay usable as an identifier")
	}
	if _, ok := Default.Lookup("if"); ok {
		t.Error("canonical keywords must not be table keys")
	}
}

func TestTableIsInjective(t *testing.T) {
	seen := make(map[string]string)
	for _, e := range Entries() {
		if prev, ok := seen[e.Canonical]; ok {
			t.Errorf("%q translated from both %q and %q", e.Canonical, prev, e.Danish)
		}
		seen[e.Canonical] = e.Danish
	}
	if len(seen) != len(Default) {
		t.Errorf("Entries() has %d canonical keywords, table has %d keys", len(seen), len(Default))
	}
}

func TestEntriesSorted(t *testing.T) {
	es := Entries()
	for i := 1; i < len(es); i++ {
		if es[i-1].Canonical > es[i].Canonical {
			t.Fatalf("Entries() not sorted at %d: %q > %q", i, es[i-1].Canonical, es[i].Canonical)
		}
	}
}

func TestReverse(t *testing.T) {
	if got, ok := Reverse("while"); !ok || got != "medens" {
		t.Errorf("Reverse(while) = %q, %v", got, ok)
	}
	if _, ok := Reverse("print"); ok {
		t.Error("Reverse(print) should not be found")
	}
}

func TestCompoundRuleMatch(t *testing.T) {
	toks := []token.Token{
		{Kind: token.Name, Text: "for"},
		{Kind: token.Op, Text: "-"},
		{Kind: token.Name, Text: "hver"},
		{Kind: token.Name, Text: "x"},
	}

	forRule := Compounds[1]
	if forRule.Width() != 3 {
		t.Fatalf("Width() = %d, want 3", forRule.Width())
	}
	if !forRule.Match(toks, 0) {
		t.Error("expected for-hver rule to match at 0")
	}
	if forRule.Match(toks, 1) {
		t.Error("unexpected match at 1")
	}
	if forRule.Match(toks, 2) {
		t.Error("window past the end must not match")
	}
	if forRule.Match(toks, -1) {
		t.Error("negative index must not match")
	}
	if Compounds[0].Match(toks, 0) {
		t.Error("ellers-hvis rule matched for-hver tokens")
	}
}

func TestCompoundRuleKindSensitive(t *testing.T) {
	toks := []token.Token{
		{Kind: token.String, Text: "ellers"},
		{Kind: token.Op, Text: "-"},
		{Kind: token.Name, Text: "hvis"},
	}
	if Compounds[0].Match(toks, 0) {
		t.Error("rule matched a string literal slot")
	}
}

func TestCompoundsTranslate(t *testing.T) {
	for _, r := range Compounds {
		if _, ok := Default.Lookup(r.Compound); !ok {
			t.Errorf("compound spelling %q is not a table key", r.Compound)
		}
	}
}

func TestSuggest(t *testing.T) {
	got := Suggest("hvs")
	if len(got) == 0 {
		t.Fatal("Suggest(hvs) returned nothing")
	}
	if got[0] != "hvis" {
		t.Errorf("Suggest(hvs)[0] = %q, want %q", got[0], "hvis")
	}
	if len(Suggest("zzzz")) != 0 {
		t.Error("Suggest(zzzz) should be empty")
	}
}
