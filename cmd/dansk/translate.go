package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/FocuswithJustin/dansk/core/codec"
	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/transcode"
	"github.com/FocuswithJustin/dansk/internal/fileutil"
	"github.com/FocuswithJustin/dansk/internal/journal"
	"github.com/FocuswithJustin/dansk/internal/logging"
	"github.com/FocuswithJustin/dansk/internal/translator"
	"github.com/FocuswithJustin/dansk/internal/validation"
)

// TranslateCmd translates one source file.
type TranslateCmd struct {
	Path   string `arg:"" optional:"" default:"-" help:"Danish Python source file (- for stdin)"`
	Output string `short:"o" default:"-" help:"Output file (- for stdout)"`
	Skip   string `name:"skip-leading-line" enum:"auto,yes,no" default:"auto" help:"Drop the first line; auto drops a dansk coding declaration (auto, yes, no)"`
	Verify bool   `help:"Parse the output with gpython and warn on syntax errors"`
	Stream bool   `help:"Feed input through the incremental decoder in chunks (bypasses the cache)"`
	Stats  bool   `help:"Print token statistics to stderr"`
}

func (c *TranslateCmd) Run() error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return err
	}
	if err := validation.ValidateOutput(c.Path, c.Output); err != nil {
		return err
	}
	ctx := context.Background()

	var (
		text  string
		stats transcode.Stats
		err   error
	)
	if c.Stream {
		text, stats, err = c.stream(ctx)
	} else {
		text, stats, err = c.whole(ctx)
	}
	if err != nil {
		return err
	}
	if c.Stats {
		fmt.Fprintf(stderr, "%s: %d tokens, %d compounds, %d substitutions\n",
			displayName(c.Path), stats.RawTokens, stats.Compounds, stats.Substitutions)
	}
	return writeOutput(c.Output, text)
}

// whole reads the entire input and translates it through the cache-aware
// translator.
func (c *TranslateCmd) whole(ctx context.Context) (string, transcode.Stats, error) {
	src, err := readSource(c.Path)
	if err != nil {
		return "", transcode.Stats{}, err
	}
	tr, closeFn, err := newTranslator(c.Verify)
	if err != nil {
		return "", transcode.Stats{}, err
	}
	defer closeFn()

	res, err := tr.Translate(ctx, translator.Request{
		Source:          displayName(c.Path),
		Src:             src,
		SkipLeadingLine: skipLeadingLine(c.Skip, src),
	})
	if err != nil {
		return "", transcode.Stats{}, err
	}
	if res.Warning != nil {
		fmt.Fprintf(stderr, "warning: %v\n", res.Warning)
	}
	return res.Text, res.Stats, nil
}

// stream feeds the input to an incremental decoder without holding it in a
// separate buffer first.
func (c *TranslateCmd) stream(ctx context.Context) (string, transcode.Stats, error) {
	var r io.Reader = stdin
	if c.Path != validation.Stdin {
		f, err := os.Open(c.Path)
		if err != nil {
			return "", transcode.Stats{}, errors.NewIO("open", c.Path, err)
		}
		defer f.Close()
		r = f
	}
	br := bufio.NewReaderSize(r, 64*1024)
	// Peek returns what is available along with io.EOF on short input.
	head, _ := br.Peek(4096)

	name := displayName(c.Path)
	session := journal.NewSession()
	ctx = logging.WithSessionID(ctx, session)
	d := codec.NewDecoder(codec.Options{
		SkipLeadingLine: skipLeadingLine(c.Skip, head),
		Filename:        name,
	})

	start := time.Now()
	text, consumed, err := codec.ReadAll(d, &sizeLimit{r: br, max: validation.MaxSourceSize})
	duration := time.Since(start)
	logging.DecodeSession(ctx, name, consumed, duration, err, "mode", "stream")

	j, jerr := openJournal()
	if jerr != nil {
		logging.WarnContext(ctx, "journal unavailable", "error", jerr)
	} else if j != nil {
		defer j.Close()
		e := journal.Entry{Session: session, Source: name, Bytes: consumed, Duration: duration,
			Compounds: d.Stats().Compounds, Substitutions: d.Stats().Substitutions}
		if err != nil {
			e.Status, e.Error = journal.StatusFailed, err.Error()
		}
		(&translator.Translator{Journal: j}).Record(ctx, e)
	}
	if err != nil {
		return "", transcode.Stats{}, err
	}
	return text, d.Stats(), nil
}

// CheckCmd translates files and reports every failure.
type CheckCmd struct {
	Paths []string `arg:"" help:"Danish Python source files" type:"existingfile"`
	Quiet bool     `short:"q" help:"Only report failures"`
}

func (c *CheckCmd) Run() error {
	tr, closeFn, err := newTranslator(true)
	if err != nil {
		return err
	}
	defer closeFn()

	failed := 0
	for _, path := range c.Paths {
		src, err := readSource(path)
		if err == nil {
			var res translator.Result
			res, err = tr.Translate(context.Background(), translator.Request{
				Source:          path,
				Src:             src,
				SkipLeadingLine: skipLeadingLine("auto", src),
			})
			if err == nil {
				err = res.Warning
			}
			if err == nil && !c.Quiet {
				fmt.Fprintf(stdout, "%s: ok (%d substitutions, %d compounds)\n",
					path, res.Stats.Substitutions, res.Stats.Compounds)
			}
		}
		if err != nil {
			failed++
			fmt.Fprintln(stdout, describe(path, err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(c.Paths))
	}
	return nil
}

// describe formats err with the path in front unless the error already
// carries it.
func describe(path string, err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, path+":") {
		return msg
	}
	return path + ": " + msg
}

// newTranslator opens the configured services. The returned func closes
// them.
func newTranslator(verify bool) (*translator.Translator, func(), error) {
	c, err := openCache()
	if err != nil {
		return nil, nil, err
	}
	j, err := openJournal()
	if err != nil {
		return nil, nil, err
	}
	tr := &translator.Translator{Cache: c, Journal: j, Verify: verify}
	return tr, func() {
		if j != nil {
			j.Close()
		}
	}, nil
}

// skipLeadingLine resolves the --skip-leading-line mode for src.
func skipLeadingLine(mode string, src []byte) bool {
	switch mode {
	case "yes":
		return true
	case "no":
		return false
	}
	return declaresDansk(src)
}

// declaresDansk reports whether the first line of src is a coding
// declaration naming the dansk codec. A declaration on the second line
// sits below a shebang that must be kept, so it is not stripped.
func declaresDansk(src []byte) bool {
	line, name, ok := codec.Declaration(src)
	if !ok || line != 0 {
		return false
	}
	c, err := codec.Lookup(name)
	return err == nil && c.Name == codec.Name
}

// sizeLimit fails a read once more than max bytes have passed through.
type sizeLimit struct {
	r   io.Reader
	n   int
	max int
}

func (l *sizeLimit) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += n
	if lerr := validation.CheckSize(0, l.n, l.max); lerr != nil {
		return n, lerr
	}
	return n, err
}

func readSource(path string) ([]byte, error) {
	if path == validation.Stdin {
		src, err := io.ReadAll(io.LimitReader(stdin, validation.MaxSourceSize+1))
		if err != nil {
			return nil, errors.NewIO("read", "<stdin>", err)
		}
		return src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return src, nil
}

func writeOutput(path, text string) error {
	if path == validation.Stdin {
		_, err := io.WriteString(stdout, text)
		return err
	}
	return fileutil.WriteFile(path, []byte(text), 0644)
}

func displayName(path string) string {
	if path == validation.Stdin {
		return "<stdin>"
	}
	return path
}
