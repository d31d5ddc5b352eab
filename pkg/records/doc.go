// Package records keeps an audit trail of ladder evaluations.
//
// Every successful engine decision can be turned into a Record and
// persisted through a Store. The Recorder does this asynchronously: the
// engine hands it a decision, the recorder converts it and enqueues it on
// a buffered channel, and a single background worker writes to storage.
// Evaluation latency therefore never depends on disk speed.
//
// # Storage Backends
//
// The storage subpackage provides a SQLite store (pure-Go or cgo driver,
// selected by configuration) and an in-memory store for tests.
//
// # Retention
//
// The retention subpackage deletes records older than a configured age,
// or beyond a maximum count, on a cron schedule.
//
// # Usage
//
//	store, err := storage.NewSQLiteStore(storage.DefaultSQLiteConfig(), logger)
//	rec := records.NewRecorder(store, records.DefaultConfig(), logger)
//	defer rec.Close()
//	eng.SetRecorder(rec)
//
//	recent, err := store.Query(ctx, &records.Query{Ladder: "seasons", Limit: 10})
package records
