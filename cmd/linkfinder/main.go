// Package main provides the entry point for the LinkFinder CLI.
//
// LinkFinder crawls a website twice, once by following hyperlinks from the
// seed page and once by reading its sitemap, and reports the URLs on which
// the two disagree.
//
// Usage:
//
//	linkfinder crawl https://example.com
//	linkfinder enqueue https://example.com && linkfinder worker --once
//
// See --help for all available options.
package main

func main() {
	Execute()
}
