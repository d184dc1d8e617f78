// Package model defines the core data structures used throughout LinkFinder.
//
// This package contains the following main types:
//   - Link: A discovered URL tagged with its traversal depth
//   - Test: A persisted request to crawl one site with both strategies
//   - Result: One URL of a finished test with its per-source presence flags
//   - TestReport: The in-memory result of a test run, including the comparison
//
// Models live in their own package so that crawler, database, pipeline and
// report can share them without import cycles.
package model
