package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/transcode"
	"github.com/FocuswithJustin/dansk/internal/journal"
	"github.com/FocuswithJustin/dansk/internal/translator"
)

const (
	promptMain = ">>> "
	promptCont = "... "
)

// ReplCmd translates statements as they are typed.
type ReplCmd struct {
	HistoryFile string `name:"history-file" type:"path" help:"Line history file (default ~/.dansk_history)"`
	Verify      bool   `help:"Check each translation with gpython"`
}

// prompter is the part of liner.State the loop needs.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func (c *ReplCmd) Run() error {
	path := c.HistoryFile
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".dansk_history")
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(path); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(path); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(stdout, "dansk "+version+" - type Danish Python, Ctrl-D to exit")
	return c.loop(ln, ln.AppendHistory)
}

// loop reads statements from p until EOF and prints their translation.
func (c *ReplCmd) loop(p prompter, remember func(string)) error {
	tr, closeFn, err := newTranslator(c.Verify)
	if err != nil {
		return err
	}
	defer closeFn()
	session := journal.NewSession()

	for {
		code, ok := readStatement(p)
		if !ok {
			fmt.Fprintln(stdout)
			return nil
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		remember(strings.ReplaceAll(code, "\n", " "))

		res, err := tr.Translate(context.Background(), translator.Request{
			Session: session,
			Source:  "<repl>",
			Src:     []byte(code + "\n"),
		})
		if err != nil {
			fmt.Fprintln(stderr, err)
			continue
		}
		fmt.Fprint(stdout, res.Text)
		if res.Warning != nil {
			fmt.Fprintf(stderr, "warning: %v\n", res.Warning)
		}
	}
}

// readStatement reads one statement, prompting for more lines while the
// input is incomplete. A line ending in ':' opens a block that runs until
// an empty line. ok is false at end of input.
func readStatement(p prompter) (code string, ok bool) {
	var b strings.Builder
	block := false
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}

		if block && strings.TrimSpace(line) == "" {
			return b.String(), true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if block {
			continue
		}
		if strings.HasSuffix(strings.TrimSpace(line), ":") {
			block = true
			continue
		}
		if incomplete(b.String()) {
			continue
		}
		return b.String(), true
	}
}

// incomplete reports whether src fails to tokenize only because more
// lines are needed.
func incomplete(src string) bool {
	_, err := transcode.Translate([]byte(src + "\n"))
	var lex *errors.LexicalError
	if !errors.As(err, &lex) {
		return false
	}
	switch lex.Message {
	case "EOF in multi-line statement", "unterminated triple-quoted string literal":
		return true
	}
	return false
}
