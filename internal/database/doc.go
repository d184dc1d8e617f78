// Package database provides SQLite-based storage for LinkFinder tests.
//
// A test is a request to crawl one site with both strategies. TestDB keeps
// the test queue (pending, running, done, failed) that workers drain, and the
// per-URL results of finished tests, which can be paged through with
// GetResults.
//
// The store uses modernc.org/sqlite, which is CGO-free, in WAL mode with a
// single connection: SQLite allows one writer at a time, and claiming a test
// must be atomic across concurrent workers.
package database
