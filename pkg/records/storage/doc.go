// Package storage provides Store implementations for evaluation records.
//
// SQLiteStore persists records in a SQLite database. Two drivers are
// supported and selected by SQLiteConfig.Driver:
//
//   - "sqlite" uses modernc.org/sqlite, a pure-Go build that needs no cgo.
//   - "sqlite3" uses github.com/mattn/go-sqlite3, which requires cgo.
//
// Timestamps are stored as Unix nanoseconds so both drivers round-trip
// them identically.
//
// MemoryStore keeps records in a slice and is intended for tests and for
// running without persistence.
package storage
