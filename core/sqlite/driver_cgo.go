//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3, selected with the cgo_sqlite
// build tag. The import lives in contrib/sqlite-external.
package sqlite

import (
	"net/url"
	"strconv"

	sqliteexternal "github.com/FocuswithJustin/dansk/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
)

// dsnParams returns the mattn connection settings.
func dsnParams(wal bool) url.Values {
	q := url.Values{}
	q.Set("_foreign_keys", "1")
	q.Set("_busy_timeout", strconv.FormatInt(DefaultBusyTimeout.Milliseconds(), 10))
	if wal {
		q.Set("_journal_mode", "WAL")
	}
	return q
}
