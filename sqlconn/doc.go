// Package sqlconn owns the single writer connection to the embedded SQL
// engine and the optional read-only reader connections that share the
// same file.
//
// # Overview
//
// Conn lazily opens its writer connection on first use, configures it
// for WAL journaling, foreign keys, recursive triggers and a bounded
// busy timeout, and serializes every write transaction in-process via a
// mutex — at most one WithTransaction callback runs at a time, enforcing
// a single-writer discipline in process.
//
// Readers opened through Reader() get their own *sql.DB handle onto the
// same file in read-only mode; under WAL they proceed concurrently with
// an in-flight write transaction and see only committed state.
//
// # Retry
//
// BEGIN IMMEDIATE contention (SQLITE_BUSY) is retried with jittered
// exponential backoff up to Config.MaxRetries times before the busy
// error is surfaced to the caller.
package sqlconn
