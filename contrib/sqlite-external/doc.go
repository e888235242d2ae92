// Package sqliteexternal holds the optional CGO SQLite driver.
//
// The translation journal uses a pure Go driver by default. Building with
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/dansk
//
// links github.com/mattn/go-sqlite3 instead, which is faster on large
// journals but needs a C toolchain and rules out simple cross-compilation.
package sqliteexternal
