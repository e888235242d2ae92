// Command dansk translates Danish-keyword Python into standard Python.
// It provides commands for translating and checking files, inspecting the
// token stream and vocabulary, serving the decoder over WebSocket and
// browsing the translation journal and cache.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/dansk/core/codec"
	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/sqlite"
	"github.com/FocuswithJustin/dansk/internal/cas"
	"github.com/FocuswithJustin/dansk/internal/journal"
	"github.com/FocuswithJustin/dansk/internal/logging"
)

const version = "0.2.0"

// Swapped in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// CLI defines the command-line interface for dansk.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"DANSK_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" env:"DANSK_LOG_FORMAT"`
	CacheDir  string `name:"cache-dir" help:"Translation cache directory (disabled when empty)" type:"path" env:"DANSK_CACHE_DIR"`
	Journal   string `name:"journal" help:"SQLite translation journal (disabled when empty)" type:"path" env:"DANSK_JOURNAL"`

	Translate TranslateCmd `cmd:"" help:"Translate Danish Python source to Python"`
	Check     CheckCmd     `cmd:"" help:"Translate files and report lexical and syntax errors"`
	Tokens    TokensCmd    `cmd:"" help:"Show the token stream of a source file"`
	Vocab     VocabGroup   `cmd:"" help:"Keyword vocabulary"`
	Serve     ServeCmd     `cmd:"" help:"Serve the decoder over HTTP and WebSocket"`
	Repl      ReplCmd      `cmd:"" help:"Translate Danish Python interactively"`
	History   HistoryCmd   `cmd:"" help:"Show the translation journal"`
	Cache     CacheGroup   `cmd:"" help:"Translation cache maintenance"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// VocabGroup contains vocabulary operations.
type VocabGroup struct {
	List   VocabListCmd   `cmd:"" help:"List every Danish keyword and its Python spelling"`
	Lookup VocabLookupCmd `cmd:"" help:"Look up a Danish or Python keyword"`
}

// CacheGroup contains cache operations.
type CacheGroup struct {
	Stats CacheStatsCmd `cmd:"" help:"Show cache size and activity"`
	Clear CacheClearCmd `cmd:"" help:"Delete every cached translation"`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "dansk version %s\n", version)
	fmt.Fprintf(stdout, "codecs: %v\n", codec.Names())
	fmt.Fprintf(stdout, "sqlite driver: %s (%s)\n", info.Package, info.DriverType)
	return nil
}

// initLogging applies the global log flags. Logs go to stderr so stdout
// carries only translated source.
func initLogging(level, format string) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return errors.NewConfiguration("log-level", err.Error())
	}
	f, err := logging.ParseFormat(format)
	if err != nil {
		return errors.NewConfiguration("log-format", err.Error())
	}
	logging.InitLoggerTo(stderr, lvl, f)
	return nil
}

// openCache opens the cache named by --cache-dir, or returns nil when the
// flag is unset.
func openCache() (*cas.Cache, error) {
	if CLI.CacheDir == "" {
		return nil, nil
	}
	return cas.Open(CLI.CacheDir)
}

// openJournal opens the journal named by --journal, or returns nil when the
// flag is unset.
func openJournal() (*journal.Journal, error) {
	if CLI.Journal == "" {
		return nil, nil
	}
	return journal.Open(CLI.Journal)
}

func requireJournal() (*journal.Journal, error) {
	if CLI.Journal == "" {
		return nil, errors.NewConfiguration("journal", "set --journal or DANSK_JOURNAL")
	}
	return journal.Open(CLI.Journal)
}

func requireCache() (*cas.Cache, error) {
	if CLI.CacheDir == "" {
		return nil, errors.NewConfiguration("cache-dir", "set --cache-dir or DANSK_CACHE_DIR")
	}
	return cas.Open(CLI.CacheDir)
}

func init() {
	if err := codec.Register(); err != nil {
		panic(err)
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dansk"),
		kong.Description("dansk - Python with Danish keywords"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(initLogging(CLI.LogLevel, CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
