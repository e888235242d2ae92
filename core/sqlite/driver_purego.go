//go:build !cgo_sqlite

package sqlite

import (
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

// dsnParams returns the modernc connection pragmas.
func dsnParams(wal bool) url.Values {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", DefaultBusyTimeout.Milliseconds()))
	if wal {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return q
}
