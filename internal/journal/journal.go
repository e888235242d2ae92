// Package journal keeps a SQLite history of translations: which source was
// decoded in which session, how much was consumed and how it ended.
package journal

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/sqlite"
)

// Status is the outcome of a translation.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
	StatusCached Status = "cached"
)

// Entry is one journal row.
type Entry struct {
	ID            string
	Session       string
	Source        string
	CacheKey      string
	Status        Status
	Bytes         int
	Compounds     int
	Substitutions int
	Error         string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Summary aggregates the whole journal.
type Summary struct {
	Total    int
	Failed   int
	Cached   int
	Bytes    int64
	Sessions int
}

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	id            TEXT PRIMARY KEY,
	session       TEXT NOT NULL,
	source        TEXT NOT NULL,
	cache_key     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	bytes         INTEGER NOT NULL,
	compounds     INTEGER NOT NULL DEFAULT 0,
	substitutions INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	duration_us   INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS translations_session ON translations (session);
CREATE INDEX IF NOT EXISTS translations_created ON translations (created_at);
`

// Journal is a translation history backed by SQLite. It is safe for
// concurrent use. Writes from one process are serialized; the busy timeout
// covers writers in other processes.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.NewConfiguration("journal", "empty path")
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	return initialize(db)
}

// OpenMemory opens a journal that lives only as long as the process.
func OpenMemory() (*Journal, error) {
	db, err := sqlite.OpenMemory()
	if err != nil {
		return nil, errors.NewIO("open", ":memory:", err)
	}
	return initialize(db)
}

func initialize(db *sql.DB) (*Journal, error) {
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "journal: create schema")
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// NewSession returns a fresh session ID.
func NewSession() string {
	return uuid.New().String()
}

// Record stores e, filling in ID, Session and CreatedAt when unset, and
// returns the stored entry.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Session == "" {
		e.Session = NewSession()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusOK
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO translations
			(id, session, source, cache_key, status, bytes, compounds, substitutions, error, duration_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Session, e.Source, e.CacheKey, string(e.Status), e.Bytes, e.Compounds, e.Substitutions,
		e.Error, e.Duration.Microseconds(), e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Entry{}, errors.Wrap(err, "journal: record")
	}
	return e, nil
}

// timeLayout is fixed width so created_at sorts and compares as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, session, source, cache_key, status, bytes, compounds, substitutions, error, duration_us, created_at`

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM translations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "journal: query recent")
	}
	return scanEntries(rows)
}

// Session returns the entries of one session in the order they were made.
func (j *Journal) Session(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM translations WHERE session = ? ORDER BY created_at, rowid`, session)
	if err != nil {
		return nil, errors.Wrap(err, "journal: query session")
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NewNotFound("session", session)
	}
	return entries, nil
}

// Summary aggregates every entry.
func (j *Journal) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := j.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cached' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(bytes), 0),
			COUNT(DISTINCT session)
		FROM translations`).Scan(&s.Total, &s.Failed, &s.Cached, &s.Bytes, &s.Sessions)
	if err != nil {
		return Summary{}, errors.Wrap(err, "journal: summary")
	}
	return s, nil
}

// Prune deletes entries older than cutoff and reports how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM translations WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, errors.Wrap(err, "journal: prune")
	}
	return res.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			status   string
			micros   int64
			creation string
		)
		if err := rows.Scan(&e.ID, &e.Session, &e.Source, &e.CacheKey, &status, &e.Bytes,
			&e.Compounds, &e.Substitutions, &e.Error, &micros, &creation); err != nil {
			return nil, errors.Wrap(err, "journal: scan")
		}
		e.Status = Status(status)
		e.Duration = time.Duration(micros) * time.Microsecond
		t, err := time.Parse(timeLayout, creation)
		if err != nil {
			return nil, errors.Wrapf(err, "journal: entry %s has bad timestamp", e.ID)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "journal: rows")
	}
	return entries, nil
}
