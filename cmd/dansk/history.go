package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/dansk/internal/journal"
)

// HistoryCmd prints journal entries.
type HistoryCmd struct {
	Limit   int           `short:"n" default:"20" help:"Number of entries to show"`
	Session string        `help:"Show every entry of one session"`
	Summary bool          `help:"Show totals instead of entries"`
	Prune   time.Duration `help:"Delete entries older than this before listing"`
}

func (c *HistoryCmd) Run() error {
	j, err := requireJournal()
	if err != nil {
		return err
	}
	defer j.Close()
	ctx := context.Background()

	if c.Prune > 0 {
		n, err := j.Prune(ctx, time.Now().Add(-c.Prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "pruned %d entries\n", n)
	}

	if c.Summary {
		s, err := j.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "translations: %d (%d failed, %d cached)\n", s.Total, s.Failed, s.Cached)
		fmt.Fprintf(stdout, "sessions:     %d\n", s.Sessions)
		fmt.Fprintf(stdout, "source:       %s\n", humanize.Bytes(uint64(s.Bytes)))
		return nil
	}

	var entries []journal.Entry
	if c.Session != "" {
		entries, err = j.Session(ctx, c.Session)
	} else {
		entries, err = j.Recent(ctx, c.Limit)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSESSION\tSOURCE\tSTATUS\tSIZE\tSUBS\tDURATION")
	for _, e := range entries {
		status := string(e.Status)
		if e.Error != "" {
			status += ": " + e.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			humanize.Time(e.CreatedAt), shortID(e.Session), e.Source, status,
			humanize.Bytes(uint64(e.Bytes)), e.Substitutions, e.Duration.Round(time.Microsecond))
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// CacheStatsCmd prints cache statistics.
type CacheStatsCmd struct{}

func (c *CacheStatsCmd) Run() error {
	cache, err := requireCache()
	if err != nil {
		return err
	}
	st, err := cache.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "root:    %s\n", cache.Root())
	fmt.Fprintf(stdout, "entries: %d (%s compressed)\n", st.Entries, humanize.Bytes(uint64(st.CompressedBytes)))
	return nil
}

// CacheClearCmd removes every cached translation.
type CacheClearCmd struct{}

func (c *CacheClearCmd) Run() error {
	cache, err := requireCache()
	if err != nil {
		return err
	}
	n, err := cache.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "removed %s\n", humanize.Comma(int64(n))+" entries")
	return nil
}
