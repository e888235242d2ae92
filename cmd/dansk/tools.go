package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/token"
	"github.com/FocuswithJustin/dansk/core/tokenize"
	"github.com/FocuswithJustin/dansk/core/transcode"
	"github.com/FocuswithJustin/dansk/core/vocab"
	"github.com/FocuswithJustin/dansk/internal/validation"
)

// TokensCmd prints the token stream of a source file.
type TokensCmd struct {
	Path string `arg:"" optional:"" default:"-" help:"Danish Python source file (- for stdin)"`
	Raw  bool   `help:"Show tokenizer output before compounds and substitution"`
	Dump bool   `help:"Dump full token structs"`
}

func (c *TokensCmd) Run() error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return err
	}
	src, err := readSource(c.Path)
	if err != nil {
		return err
	}
	if err := validation.CheckSize(0, len(src), validation.MaxSourceSize); err != nil {
		return err
	}
	if err := validation.CheckSource(src); err != nil {
		return err
	}

	name := displayName(c.Path)
	var toks []token.Token
	if c.Raw {
		toks, err = tokenize.TokenizeFile(name, src)
	} else {
		toks, _, err = transcode.Default.Tokens(name, src)
	}
	if err != nil {
		return err
	}

	if c.Dump {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableMethods: true}
		cfg.Fdump(stdout, toks)
		return nil
	}
	for _, t := range toks {
		fmt.Fprintln(stdout, t)
	}
	return nil
}

// VocabListCmd prints the keyword table.
type VocabListCmd struct{}

func (c *VocabListCmd) Run() error {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DANISH\tPYTHON")
	for _, e := range vocab.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Danish, e.Canonical)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Compounds:")
	for _, r := range vocab.Compounds {
		parts := make([]string, len(r.Window))
		for i, s := range r.Window {
			parts[i] = s.Text
		}
		fmt.Fprintf(stdout, "  %s -> %s\n", strings.Join(parts, " "), r.Compound)
	}
	return nil
}

// VocabLookupCmd looks a word up in both directions.
type VocabLookupCmd struct {
	Word string `arg:"" help:"Danish keyword or Python keyword"`
}

func (c *VocabLookupCmd) Run() error {
	if canonical, ok := vocab.Default.Lookup(c.Word); ok {
		fmt.Fprintf(stdout, "%s -> %s\n", c.Word, canonical)
		return nil
	}
	if danish, ok := vocab.Reverse(c.Word); ok {
		fmt.Fprintf(stdout, "%s <- %s\n", c.Word, danish)
		return nil
	}
	if s := vocab.Suggest(c.Word); len(s) > 0 {
		if len(s) > 3 {
			s = s[:3]
		}
		fmt.Fprintf(stderr, "did you mean %s?\n", strings.Join(s, ", "))
	}
	return errors.NewNotFound("keyword", c.Word)
}
