// Package translator runs one complete decode session with the optional
// services around it: the translation cache, the journal and the gpython
// syntax check. The CLI and the HTTP endpoint share it.
package translator

import (
	"context"
	"time"

	"github.com/FocuswithJustin/dansk/core/codec"
	"github.com/FocuswithJustin/dansk/core/transcode"
	"github.com/FocuswithJustin/dansk/internal/cas"
	"github.com/FocuswithJustin/dansk/internal/journal"
	"github.com/FocuswithJustin/dansk/internal/logging"
	"github.com/FocuswithJustin/dansk/internal/validation"
	"github.com/FocuswithJustin/dansk/internal/verify"
)

// Translator holds the services a session may use. Every field is optional.
type Translator struct {
	Cache   *cas.Cache
	Journal *journal.Journal
	// Verify parses the output with gpython and reports failures in
	// Result.Warning.
	Verify bool
	// MaxSize caps the source size; zero means validation.MaxSourceSize.
	MaxSize int
}

// Request is one source to translate.
type Request struct {
	Session         string
	Source          string
	Src             []byte
	SkipLeadingLine bool
}

// Result is a finished translation.
type Result struct {
	Session  string
	Text     string
	Consumed int
	Stats    transcode.Stats
	Cached   bool
	CacheKey string
	Duration time.Duration
	// Warning is a verify.SyntaxError when Verify is set and the output
	// does not parse.
	Warning error
}

// Translate decodes req.Src in a single final chunk.
func (t *Translator) Translate(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	req.Source = validation.SanitizeName(req.Source)
	if req.Session == "" {
		req.Session = journal.NewSession()
	}
	ctx = logging.WithSessionID(ctx, req.Session)
	res.Session = req.Session
	defer func() { t.finish(ctx, req, &res, start, err) }()

	if err = validation.CheckSize(0, len(req.Src), t.MaxSize); err != nil {
		return res, err
	}
	if err = validation.CheckSource(req.Src); err != nil {
		return res, err
	}

	if t.Cache != nil {
		res.CacheKey = cas.Key(req.Src, req.SkipLeadingLine)
		text, ok, cerr := t.Cache.Get(res.CacheKey)
		if cerr != nil {
			logging.WarnContext(ctx, "cache read failed", "error", cerr)
		} else if ok {
			res.Text = text
			res.Consumed = len(req.Src)
			res.Cached = true
			t.check(&res, req.Source)
			return res, nil
		}
	}

	d := codec.NewDecoder(codec.Options{SkipLeadingLine: req.SkipLeadingLine, Filename: req.Source})
	text, consumed, err := d.Decode(req.Src, true)
	if err != nil {
		return res, err
	}
	res.Text = text
	res.Consumed = consumed
	res.Stats = d.Stats()

	if t.Cache != nil {
		if perr := t.Cache.Put(res.CacheKey, text); perr != nil {
			logging.WarnContext(ctx, "cache write failed", "error", perr)
		}
	}
	t.check(&res, req.Source)
	return res, nil
}

func (t *Translator) check(res *Result, source string) {
	if !t.Verify {
		return
	}
	if err := verify.Check(res.Text, source); err != nil {
		res.Warning = err
	}
}

// finish stamps the duration, then logs and journals the session.
func (t *Translator) finish(ctx context.Context, req Request, res *Result, start time.Time, err error) {
	res.Duration = time.Since(start)
	logging.DecodeSession(ctx, req.Source, len(req.Src), res.Duration, err,
		"cached", res.Cached, "compounds", res.Stats.Compounds, "substitutions", res.Stats.Substitutions)
	if res.Warning != nil {
		logging.WarnContext(ctx, "translated output does not parse", "error", res.Warning)
	}
	t.Record(ctx, entryFor(req, *res, err))
}

// Record writes e to the journal if there is one. Journal failures are
// logged and never fail the translation.
func (t *Translator) Record(ctx context.Context, e journal.Entry) {
	if t.Journal == nil {
		return
	}
	if _, err := t.Journal.Record(ctx, e); err != nil {
		logging.WarnContext(ctx, "journal write failed", "error", err)
	}
}

func entryFor(req Request, res Result, err error) journal.Entry {
	e := journal.Entry{
		Session:       req.Session,
		Source:        req.Source,
		CacheKey:      res.CacheKey,
		Status:        journal.StatusOK,
		Bytes:         len(req.Src),
		Compounds:     res.Stats.Compounds,
		Substitutions: res.Stats.Substitutions,
		Duration:      res.Duration,
	}
	switch {
	case err != nil:
		e.Status = journal.StatusFailed
		e.Error = err.Error()
	case res.Cached:
		e.Status = journal.StatusCached
	}
	return e
}
