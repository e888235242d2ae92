// Package sqlite opens SQLite databases through whichever driver the build
// selected.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open instead of sql.Open so the right driver name is used.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DefaultBusyTimeout is how long a writer waits for a lock before failing.
const DefaultBusyTimeout = 5 * time.Second

// DriverName returns the SQL driver name to use.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database. Every pooled connection gets foreign keys
// and a busy timeout through the DSN; file databases also get WAL
// journaling so readers do not block the writer.
func Open(path string) (*sql.DB, error) {
	if strings.ContainsRune(path, '?') {
		return nil, fmt.Errorf("sqlite: path %q must not contain '?'", path)
	}
	memory := path == ":memory:"
	db, err := sql.Open(driverName, path+"?"+dsnParams(!memory).Encode())
	if err != nil {
		return nil, err
	}
	if memory {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return db, nil
}

// OpenMemory opens a private in-memory database.
func OpenMemory() (*sql.DB, error) {
	return Open(":memory:")
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
