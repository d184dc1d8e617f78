// Package pipeline runs LinkFinder tests.
//
// A test runs three steps against one site: the HTML crawl, the sitemap
// crawl and the comparison of the two link sets. Pipeline executes the steps
// for a single site, BatchProcessor runs several sites concurrently, and
// Worker drains the pending tests stored in the database.
//
// Factory builds the crawlers of each step from the global configuration
// and the per-site overrides of the configuration file.
package pipeline
